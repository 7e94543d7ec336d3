// Package hostcheck wraps an httprouter.Handle (or a plain http.Handler,
// for routes registered outside httprouter's param-carrying signature)
// with the spec's host allow-list enforcement and response header
// injection. It replaces the teacher's Origin-based CORS middleware with
// a Host-header policy, kept in the same "wrap a handler" shape.
package hostcheck

import (
	"net"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/tarkov-database/mbtileserver/config"
)

// Policy is the host allow-list plus the response headers to inject on
// every 2xx response.
type Policy struct {
	AllowedHosts []string
	Headers      []config.Header
}

// IsAllowed reports whether host matches one of the configured patterns.
// "*" matches everything; a pattern beginning with "." matches that domain
// and all of its subdomains (but not the bare domain itself); anything
// else must match exactly.
func IsAllowed(patterns []string, host string) bool {
	host = stripPort(host)
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if strings.HasSuffix(host, p) {
				return true
			}
		default:
			if strings.Trim(p, "[]") == host {
				return true
			}
		}
	}
	return false
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

// responseWriter wraps http.ResponseWriter to inject Policy.Headers only
// on responses with a 2xx status, mirroring the spec's "every 2xx response
// gets every configured custom header" rule.
type responseWriter struct {
	http.ResponseWriter
	headers     []config.Header
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		if status >= 200 && status < 300 {
			for _, h := range w.headers {
				w.Header().Set(h.Name, h.Value)
			}
		}
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Wrap enforces p.AllowedHosts against the request's Host header (403 on
// rejection) and injects p.Headers into any 2xx response from h.
func Wrap(p Policy, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !enforce(p, w, r) {
			return
		}
		h(newResponseWriter(w, p.Headers), r, ps)
	}
}

// WrapHandler is Wrap for a plain http.Handler, so that routes registered
// outside httprouter's param-carrying Handle (e.g. the static asset tree)
// go through the same host-check/header-injection policy as every other
// route.
func WrapHandler(p Policy, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !enforce(p, w, r) {
			return
		}
		h.ServeHTTP(newResponseWriter(w, p.Headers), r)
	})
}

// enforce checks the Host header against p.AllowedHosts, writing a 403 and
// returning false on rejection.
func enforce(p Policy, w http.ResponseWriter, r *http.Request) bool {
	if !IsAllowed(p.AllowedHosts, r.Host) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func newResponseWriter(w http.ResponseWriter, headers []config.Header) *responseWriter {
	return &responseWriter{ResponseWriter: w, headers: headers}
}
