// Package request derives client identity from HTTP requests, including
// when the server sits behind a reverse proxy.
//
// Forwarding headers are only consulted when trustProxy is true; otherwise
// any client could claim an arbitrary address or scheme.
package request

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address of the client that sent r. With trustProxy
// it prefers the first X-Forwarded-For entry, then the first Forwarded
// (RFC 7239) for= parameter. It falls back to the host part of
// r.RemoteAddr.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if first != "" {
				return first
			}
		}
		if v := forwardedParam(r, "for"); v != "" {
			return strings.Trim(stripPort(v), "[]")
		}
	}
	return stripPort(r.RemoteAddr)
}

// Scheme returns the scheme (http or https) for the request. With
// trustProxy it honours X-Forwarded-Proto and Forwarded proto=.
func Scheme(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-Proto: de facto standard, most proxies set this.
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			switch p := strings.TrimSpace(strings.ToLower(proto)); p {
			case "https", "http":
				return p
			}
		}
		switch v := strings.ToLower(forwardedParam(r, "proto")); v {
		case "https", "http":
			return v
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// forwardedParam returns the value of key in the first element of the
// Forwarded header, unquoted, or "".
func forwardedParam(r *http.Request, key string) string {
	forwarded := r.Header.Get("Forwarded")
	if forwarded == "" {
		return ""
	}
	first := strings.Split(forwarded, ",")[0]
	prefix := key + "="
	for _, part := range strings.Split(first, ";") {
		part = strings.TrimSpace(part)
		if len(part) > len(prefix) && strings.EqualFold(part[:len(prefix)], prefix) {
			return strings.Trim(part[len(prefix):], `"`)
		}
	}
	return ""
}

// stripPort removes a trailing :port from addr if there is one.
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
