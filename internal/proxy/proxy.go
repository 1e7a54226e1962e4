// Package proxy routes gateway requests to upstream services by path prefix.
package proxy

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"fitness-gateway/internal/config"
)

// route is a compiled table entry: a path prefix and the proxy for its target.
type route struct {
	prefix  string
	handler *httputil.ReverseProxy
}

// Router forwards requests to the upstream whose route prefix is the longest
// match for the request path. Unmatched requests get 502.
type Router struct {
	routes []route
}

// New compiles the configured route table. Targets must be absolute URLs.
// Routes are matched longest prefix first, so /api/users/activity can shadow
// /api/users.
func New(table []config.Route) (*Router, error) {
	routes := make([]route, 0, len(table))
	for _, entry := range table {
		target, err := url.Parse(entry.Target)
		if err != nil {
			return nil, fmt.Errorf("parsing route target %q: %w", entry.Target, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("route target %q is not an absolute URL", entry.Target)
		}
		rp := httputil.NewSingleHostReverseProxy(target)
		rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("proxy: %s %s -> %s failed: %v", r.Method, r.URL.Path, target.Host, err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		}
		routes = append(routes, route{prefix: entry.Prefix, handler: rp})
	}
	sort.Slice(routes, func(i, j int) bool {
		return len(routes[i].prefix) > len(routes[j].prefix)
	})
	return &Router{routes: routes}, nil
}

// Match returns the proxy for the longest route prefix matching path, or nil.
func (rt *Router) Match(path string) http.Handler {
	for _, r := range rt.routes {
		if strings.HasPrefix(path, r.prefix) {
			return r.handler
		}
	}
	return nil
}

// ServeHTTP forwards the request to the matched upstream.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := rt.Match(r.URL.Path)
	if handler == nil {
		http.Error(w, "no route for path", http.StatusBadGateway)
		return
	}
	handler.ServeHTTP(w, r)
}
