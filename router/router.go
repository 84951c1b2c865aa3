// Package router assembles the root [http.Handler]: health and metrics
// endpoints, the huma API and the server-rendered pages.
package router

import (
	"io"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New returns the root handler and the API it serves.
// readiness answers /readiness, writeMetrics writes the /metrics body,
// pages mounts the web routes and opts configure the API.
func New(
	title, version string,
	readiness http.HandlerFunc,
	writeMetrics func(io.Writer),
	pages func(chi.Router),
	opts ...func(huma.API),
) (http.Handler, huma.API) {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP)
	mux.Get("/liveness", func(http.ResponseWriter, *http.Request) {})
	mux.Get("/readiness", readiness)
	mux.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(w)
	})

	api := humachi.New(mux, huma.DefaultConfig(title, version))
	for _, opt := range opts {
		opt(api)
	}

	if pages != nil {
		mux.Group(pages)
	}

	return mux, api
}

// OptUseMiddleware adds middlewares to the operations registered after it.
func OptUseMiddleware(middlewares ...func(huma.Context, func(huma.Context))) func(huma.API) {
	return func(api huma.API) { api.UseMiddleware(middlewares...) }
}

// OptGroup applies opts to a group of api mounted at prefix.
func OptGroup(prefix string, opts ...func(huma.API)) func(huma.API) {
	return func(api huma.API) {
		group := huma.NewGroup(api, prefix)
		for _, opt := range opts {
			opt(group)
		}
	}
}

// OptAutoRegister registers the operations of server, see [huma.AutoRegister].
func OptAutoRegister(server any) func(huma.API) {
	return func(api huma.API) { huma.AutoRegister(api, server) }
}
