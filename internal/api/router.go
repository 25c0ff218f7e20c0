package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/scry-adaptive/internal/api/middleware"
	"github.com/phrazzld/scry-adaptive/internal/api/shared"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Sessions *SessionHandler
	Reviews  *ReviewHandler
	Plans    *PlanHandler
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.Sessions.StartSession)
		r.Get("/sessions/{id}", h.Sessions.GetSession)
		r.Post("/sessions/{id}/responses", h.Sessions.SubmitResponse)

		r.Post("/reviews", h.Reviews.RecordReview)
		r.Get("/users/{id}/reviews/due", h.Reviews.ListDue)
		r.Post("/users/{id}/reviews/{itemID}/postpone", h.Reviews.Postpone)
		r.Post("/users/{id}/reviews/{itemID}/deactivate", h.Reviews.Deactivate)

		r.Get("/users/{id}/plan", h.Plans.GetDailyPlan)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	})

	return r
}
