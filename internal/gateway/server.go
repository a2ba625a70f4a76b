package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{}))

	// The action endpoint mirrors the CLI surface: query parameters carry
	// the per-invocation overrides, the body carries a pushed update.
	r.Get("/", g.handleInvoke())
	r.Post("/", g.handleInvoke())

	return r
}
