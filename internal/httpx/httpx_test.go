package httpx

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusRecorder(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    int
		bytes   int64
	}{
		{
			name:    "nothing written",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			code:    http.StatusOK,
		},
		{
			name: "explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, "nope")
			},
			code:  http.StatusNotFound,
			bytes: 4,
		},
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "HELLOWORLD")
			},
			code:  http.StatusOK,
			bytes: 10,
		},
		{
			name: "io.Copy",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.Copy(w, strings.NewReader("abc"))
			},
			code:  http.StatusOK,
			bytes: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewStatusRecorder(httptest.NewRecorder())
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code() != tt.code {
				t.Errorf("Code() = %d, want %d", rec.Code(), tt.code)
			}
			if rec.Bytes != tt.bytes {
				t.Errorf("Bytes = %d, want %d", rec.Bytes, tt.bytes)
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := AccessLog(logger, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 2048))
	}))

	req := httptest.NewRequest(http.MethodGet, "/file.zip", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{
		"level=INFO",
		"method=GET",
		"path=/file.zip",
		"status=200",
		`size="2.0 kB"`,
		"client=192.0.2.1",
		"scheme=http",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %q:\n%s", want, line)
		}
	}
}

func TestAccessLog_ServerErrorIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := AccessLog(logger, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected WARN line, got:\n%s", buf.String())
	}
}
