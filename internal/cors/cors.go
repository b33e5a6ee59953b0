// Package cors decorates every response with a fixed, permissive set of
// cross-origin headers and answers pre-flight requests.
package cors

import (
	"io"
	"net/http"
)

// Header values sent on every response.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST, OPTIONS"
	AllowHeaders = "Content-Type"
)

// Handler wraps next so that every response, whatever its status, carries
// the three Access-Control-Allow-* headers. They are written when the
// status line is committed, after next has set its own headers, and
// replace any values next chose. OPTIONS requests are answered here with
// 200 and an empty body.
func Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &responseWriter{ResponseWriter: w}

		if r.Method == http.MethodOptions {
			cw.Header().Set("Content-Length", "0")
			cw.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(cw, r)

		// A handler that never wrote gets an implicit 200 from net/http,
		// which bypasses cw.
		if !cw.wroteHeader {
			Apply(w.Header())
		}
	})
}

// Apply sets the CORS headers on h.
func Apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", AllowOrigin)
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)
}

// responseWriter applies the headers exactly once, right before the
// header block goes out.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= 200 {
		// 1xx responses are informational; the final header block still
		// has to be decorated.
		w.wroteHeader = true
		Apply(w.ResponseWriter.Header())
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// ReadFrom keeps the io.Copy fast path of the underlying writer.
func (w *responseWriter) ReadFrom(r io.Reader) (int64, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		return rf.ReadFrom(r)
	}
	return io.Copy(w.ResponseWriter, r)
}

func (w *responseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
