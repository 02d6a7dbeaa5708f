package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the Chi router.
func NewRouter(h *Handler, logger *slog.Logger, apiToken string) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recoverer(logger))
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)
		r.Use(BearerAuth(apiToken))

		r.Post("/analyze", h.AnalyzePage)
		r.Post("/analyze/stats", h.SelectionStats)
		r.Post("/harvest", h.Harvest)

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", h.ListVocabulary)
			r.Delete("/", h.DeleteByStatus)

			// Fixed routes before /{word} to avoid conflicts
			r.Get("/export", h.ExportText)
			r.Get("/export.csv", h.ExportCSV)
			r.Post("/import", h.ImportCSV)
			r.Post("/reset", h.ResetCounts)

			r.Route("/{word}", func(r chi.Router) {
				r.Get("/", h.GetEntry)
				r.Delete("/", h.DeleteEntry)
				r.Put("/status", h.SetStatus)
				r.Get("/translation", h.GetTranslation)
			})
		})

		r.Route("/study", func(r chi.Router) {
			r.Get("/flashcards", h.Flashcards)
			r.Get("/spelling", h.NextSpelling)
			r.Post("/spelling/check", h.CheckSpelling)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/autocollect", h.GetAutoCollect)
			r.Put("/autocollect", h.SetAutoCollect)
		})
	})

	return r
}
