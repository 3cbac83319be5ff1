package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/melodia/melodia-api/internal/api"
	apimiddleware "github.com/melodia/melodia-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	promptHandler := api.NewPromptHandler(app.prompts)
	wsHandler := api.NewWSHandler(app.hub)

	r.Route("/api", func(r chi.Router) {
		r.Use(apimiddleware.Identity)

		r.Post("/prompts", promptHandler.SubmitPrompt)
		r.Get("/prompts", promptHandler.ListPrompts)
		r.Get("/prompts/{id}", promptHandler.GetPrompt)

		r.Get("/ws", wsHandler.Connect)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
