// Permissive CORS middleware for the mock listener.

package engine

import (
	"net/http"
	"strings"
)

// RouteChecker can check if a request matches a user-defined route.
type RouteChecker interface {
	HasMatch(r *http.Request) bool
}

// CORSMiddleware wraps the dispatcher with permissive CORS handling so
// browser-based clients can exercise mocked APIs from any origin. The
// optional checker lets user-defined OPTIONS routes take precedence over
// preflight handling.
type CORSMiddleware struct {
	handler http.Handler
	checker RouteChecker
}

// NewCORSMiddleware creates a permissive CORS middleware around handler.
func NewCORSMiddleware(handler http.Handler, checker RouteChecker) *CORSMiddleware {
	return &CORSMiddleware{handler: handler, checker: checker}
}

// ServeHTTP implements the http.Handler interface.
func (m *CORSMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
		"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD",
	}, ", "))
	w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
		"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin",
	}, ", "))
	w.Header().Set("Access-Control-Max-Age", "86400")

	if r.Method == http.MethodOptions {
		if m.checker != nil && m.checker.HasMatch(r) {
			// User has defined an OPTIONS route for this path - pass through.
			m.handler.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	m.handler.ServeHTTP(w, r)
}
