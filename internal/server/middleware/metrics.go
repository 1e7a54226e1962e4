package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Requests handled by the gateway, by method.",
	}, []string{"method"})

	syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_user_sync_total",
		Help: "Identity synchronization outcomes per request.",
	}, []string{"outcome"})
)

// Sync outcome label values.
const (
	syncOutcomeBypass     = "bypass"      // no effective identity; request forwarded untouched
	syncOutcomeExists     = "exists"      // identity already registered
	syncOutcomeRegistered = "registered"  // identity registered by this request
	syncOutcomeConflict   = "conflict"    // registration lost a concurrent race
	syncOutcomeDegraded   = "degraded"    // directory unavailable; forwarded anyway
)

// Metrics returns middleware counting handled requests.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestsTotal.WithLabelValues(r.Method).Inc()
			next.ServeHTTP(w, r)
		})
	}
}
