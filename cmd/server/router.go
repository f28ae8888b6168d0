package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/calderw/studydeck-api/internal/api"
	apimiddleware "github.com/calderw/studydeck-api/internal/api/middleware"
)

// setupRouter configures the application router: standard middleware,
// trace IDs, bearer auth on the API surface, and the session and
// generation routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	sessionHandler := api.NewSessionHandler(app.sessionService)
	studyHandler := api.NewStudyHandler(app.studyService, app.sessionService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/sessions", sessionHandler.CreateSession)
		r.Get("/sessions", sessionHandler.ListSessions)
		r.Get("/sessions/{id}", sessionHandler.GetSession)
		r.Delete("/sessions/{id}", sessionHandler.DeleteSession)

		r.Post("/sessions/{id}/quiz/extend", studyHandler.ExtendQuiz)
		r.Post("/sessions/{id}/quiz/remediate", studyHandler.RemediateQuiz)

		r.Post("/flashcards/extend", studyHandler.ExtendFlashcards)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
