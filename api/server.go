/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  zap request log (includes the request id)
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests from the SPA, with credentials

ROUTE GROUPS:
  /api/leave-types, /api/days, /api/leaves/{validate,form}   Public
  /api/auth/*                                                Login flow
  /api/leaves/{apply,mine}                                   Session
  /api/admin/*                                               Session
  /healthz                                                   Liveness

SECURITY NOTE:
  The portal only checks that a session exists. Role checks happen in the
  backend, which sees the session's token on every proxied call.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: RequestLogger, RequireSession
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows the local SPA dev servers.
func NewRouter(h *Handler, allowedOrigins []string, logger *zap.Logger) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		// Catalog and form helpers
		r.Get("/leave-types", h.ListLeaveTypes)
		r.Get("/leave-types/{code}", h.GetLeaveType)
		r.Post("/days", h.CountDays)
		r.Post("/leaves/validate", h.ValidateLeave)
		r.Post("/leaves/form", h.ReduceForm)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
			r.With(h.RequireSession).Get("/me", h.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Post("/leaves/apply", h.ApplyLeave)
			r.Get("/leaves/mine", h.MyLeaves)
			r.Get("/leaves/mine/statistics", h.MyStatistics)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/leaves/pending", h.PendingLeaves)
				r.Get("/leaves/all", h.AllLeaves)
				r.Put("/leaves/{id}/status", h.UpdateLeaveStatus)

				r.Get("/reports/summary", h.SummaryReport)
				r.Post("/reports/filter", h.FilterReport)
				r.Get("/reports/export.csv", h.ExportCSV)
				r.Get("/reports/export.xlsx", h.ExportXLSX)
			})
		})
	})

	return r
}
