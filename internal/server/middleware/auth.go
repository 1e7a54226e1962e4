// Package middleware holds the gateway's HTTP filter chain: CORS policy,
// bearer token authentication, identity synchronization, and request metrics.
package middleware

import (
	"net/http"
	"strings"

	"fitness-gateway/internal/security"
)

const bearerPrefix = "bearer "

// Auth returns middleware that validates the Bearer token from the
// Authorization header and stores the subject in the request context.
// This is the fail-closed half of the security chain: missing or invalid
// tokens are rejected with 401 before any synchronization or proxying runs.
// publicPaths is the set of exact paths that do not require a token
// (e.g. /healthz, /metrics).
func Auth(verifier *security.Verifier, publicPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// extractBearer returns the Bearer token from the header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
