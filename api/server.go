/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile webviews

ROUTE GROUPS:
  /api/users/{id}/*   Per-user reward actions and read selectors
  /api/rules          The point-value constants table
  /metrics            Prometheus metrics
  /health             Liveness probe

ERROR CONTRACT:
  Rule violations (cap reached, already granted, already checked in)
  are 200 responses with ok:false - they are values the client
  branches on, never failures. Invalid input is 400; unknown entries
  are 404.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/rules", h.GetRules)

		r.Route("/users/{id}", func(r chi.Router) {
			// Read selectors
			r.Get("/balance", h.GetBalance)
			r.Get("/ledger", h.GetLedger)

			// Daily check-in
			r.Post("/check-in", h.CheckIn)
			r.Delete("/check-in", h.UndoCheckIn)

			// Routine events
			r.Route("/routine", func(r chi.Router) {
				r.Post("/start", h.RoutineStarted)
				r.Post("/first-step", h.FirstRoutineStep)
				r.Post("/tasks/{taskID}/complete", h.RoutineTaskCompleted)
				r.Delete("/tasks/{taskID}/complete", h.RoutineTaskUndone)
				r.Delete("/tasks/{taskID}", h.RoutineStepDeleted)
			})

			// Community events
			r.Route("/community", func(r chi.Router) {
				r.Post("/first-post", h.FirstPost)
				r.Post("/first-comment", h.FirstComment)
				r.Post("/first-like", h.FirstLike)
				r.Post("/engagement", h.PostEngagement)
			})

			// Referral, review, purchase, signup
			r.Post("/referrals", h.ReferralConfirmed)
			r.Post("/reviews", h.WriteReview)
			r.Post("/purchases", h.PurchaseConfirmed)
			r.Post("/signup-bonus", h.SignupBonus)
		})
	})

	return r
}

// Health is a trivial liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
