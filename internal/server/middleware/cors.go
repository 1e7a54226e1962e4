package middleware

import (
	"net/http"
	"strings"
)

// CORS header values are fixed by the gateway's contract with its frontends;
// only the origin list is configured.
const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, X-User-ID"
)

// CORSPolicy is the immutable cross-origin policy injected at startup.
type CORSPolicy struct {
	AllowedOrigins []string
}

// Allows reports whether origin is in the configured allowlist.
func (p CORSPolicy) Allows(origin string) bool {
	for _, o := range p.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// CORS returns middleware enforcing the given origin policy. Cross-origin
// requests from unlisted origins are rejected with 401 before authentication
// runs; requests without an Origin header (same-origin, service-to-service)
// pass through untouched. Preflight requests are answered here and never
// reach the rest of the chain.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !policy.Allows(origin) {
				http.Error(w, "origin not allowed", http.StatusUnauthorized)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
