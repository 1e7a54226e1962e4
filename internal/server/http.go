// Package server assembles the gateway's HTTP server: the middleware chain
// (metrics, CORS, authentication, identity synchronization) in front of the
// upstream router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fitness-gateway/internal/audit"
	"fitness-gateway/internal/proxy"
	"fitness-gateway/internal/security"
	"fitness-gateway/internal/server/middleware"
)

// publicPaths do not require a bearer token.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Options carries the dependencies for the gateway server.
type Options struct {
	Addr           string
	Verifier       *security.Verifier
	Directory      middleware.DirectoryClient
	Emitter        audit.EventEmitter // may be nil; disables audit events
	Router         *proxy.Router
	AllowedOrigins []string
}

// New builds the gateway http.Server. The filter chain runs in order:
// request metrics, CORS policy, token authentication (fail-closed), identity
// synchronization (fail-open), then the upstream router.
func New(opts Options) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(middleware.CORSPolicy{AllowedOrigins: opts.AllowedOrigins}))
	r.Use(middleware.Auth(opts.Verifier, publicPaths))
	r.Use(middleware.UserSync(opts.Directory, opts.Emitter))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", opts.Router)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           otelhttp.NewHandler(r, "gateway"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
