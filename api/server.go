/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/guides/*    Pay guide management
  /api/shifts/*    Shifts, recalculation and breakdowns
  /api/periods/*   Pay periods, withholding and lock lifecycle
  /api/tax/*       Coefficient table inspection and cache control

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pay guide routes
		r.Route("/guides", func(r chi.Router) {
			r.Get("/", h.ListGuides)
			r.Post("/", h.CreateGuide)
			r.Get("/{id}", h.GetGuide)
			r.Delete("/{id}", h.DeleteGuide)
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Get("/{id}", h.GetShift)
			r.Delete("/{id}", h.DeleteShift)
			r.Post("/{id}/recalculate", h.RecalculateShift)
			r.Get("/{id}/breakdown", h.ShiftBreakdown)
		})

		// Pay period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/recalculate", h.RecalculatePeriod)
			r.Get("/{id}/preview", h.PreviewPeriod)
			r.Post("/{id}/verify", h.VerifyPeriod)
			r.Post("/{id}/reopen", h.ReopenPeriod)
			r.Post("/{id}/extras", h.AddExtra)
		})

		// Tax table routes
		r.Route("/tax", func(r chi.Router) {
			r.Get("/{year}", h.GetTaxTables)
			r.Post("/{year}/invalidate", h.InvalidateTaxYear)
		})
	})

	// Landing page listing the API surface.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Shift Pay Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Shift Pay Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/guides">/api/guides</a> - List pay guides</li>
<li><a href="/api/shifts">/api/shifts</a> - List shifts</li>
<li><a href="/api/periods">/api/periods</a> - List pay periods</li>
<li>/api/tax/{year} - Withholding tables for a tax year</li>
</ul>
</body>
</html>`))
	})

	return r
}
