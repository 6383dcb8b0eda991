package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pawzhq/pawz-api/internal/api/middleware"
	"github.com/pawzhq/pawz-api/internal/api/shared"
)

// RouterDeps bundles the handlers the router mounts.
type RouterDeps struct {
	Candidates *CandidateHandler
	Jobs       *JobHandler
	Settings   *SettingsHandler
}

// NewRouter builds the API router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", deps.Candidates.Enqueue)
			r.Get("/", deps.Candidates.List)
			r.Delete("/", deps.Candidates.Clear)
			r.Get("/stats", deps.Candidates.Stats)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.Candidates.Get)
				r.Delete("/", deps.Candidates.Remove)
				r.Post("/retry", deps.Candidates.Retry)
				r.Post("/prioritize", deps.Candidates.Prioritize)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", deps.Jobs.Create)
			r.Get("/", deps.Jobs.List)
			r.Post("/parse", deps.Jobs.Parse)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.Jobs.Get)
				r.Put("/", deps.Jobs.Update)
				r.Delete("/", deps.Jobs.Delete)
				r.Post("/activate", deps.Jobs.Activate)
			})
		})

		r.Get("/settings", deps.Settings.GetSettings)
		r.Put("/settings", deps.Settings.UpdateSettings)
		r.Get("/weights", deps.Settings.GetWeights)
		r.Put("/weights", deps.Settings.UpdateWeights)
	})

	return r
}
