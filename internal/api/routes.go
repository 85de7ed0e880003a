package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MukeshR-prog/distributer/internal/engine"
	"github.com/MukeshR-prog/distributer/internal/storage"
)

// NewRouter wires the REST endpoints. The caller mounts it under /api
// and attaches middleware.
func NewRouter(store storage.Store, eng *engine.Engine, maxRecords int, logger zerolog.Logger) chi.Router {
	agents := NewAgentHandler(store, logger)
	distributions := NewDistributionHandler(store, eng, maxRecords, logger)

	r := chi.NewRouter()

	r.Route("/agents", func(r chi.Router) {
		r.Get("/", agents.List)
		r.Post("/", agents.Create)
		r.Route("/{agentId}", func(r chi.Router) {
			r.Get("/", agents.Get)
			r.Patch("/", agents.Update)
			r.Delete("/", agents.Delete)
			r.Get("/distributions", agents.Distributions)
		})
	})

	r.Route("/distributions", func(r chi.Router) {
		r.Get("/", distributions.List)
		r.Post("/", distributions.Create)
		r.Route("/{distributionId}", func(r chi.Router) {
			r.Get("/", distributions.Get)
			r.Delete("/", distributions.Delete)
			r.Post("/redistribute", distributions.Redistribute)
			r.Patch("/records/{recordId}", distributions.UpdateRecord)
		})
	})

	return r
}
