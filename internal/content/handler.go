package content

import (
	"net/http"
)

// AllowedMethods is sent in the Allow header of 405 responses.
const AllowedMethods = "GET, HEAD, OPTIONS"

// Handler returns the static file handler for the root. GET and HEAD are
// delegated to http.FileServer (MIME types, Range, conditional requests,
// index.html and directory listings). Paths with a ".." element are
// answered with 404 before any lookup. Other methods get 405.
func (r *Root) Handler() http.Handler {
	files := http.FileServer(r)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet, http.MethodHead:
		default:
			w.Header().Set("Allow", AllowedMethods)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if containsDotDot(req.URL.Path) {
			http.NotFound(w, req)
			return
		}
		files.ServeHTTP(w, req)
	})
}
