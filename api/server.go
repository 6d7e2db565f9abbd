/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLog: Structured request logging via zerolog
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/schedule/*   Projection, summary, funding-month, CSV export
  /api/bills        Bill list (GET/PUT)
  /api/payees       Payee list (GET/PUT)
  /api/options      Schedule options (GET/PUT)
  /api/scenarios/*  Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog(h))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", h.GetSchedule)
			r.Get("/summary", h.GetSummary)
			r.Get("/funding-month", h.GetFundingMonth)
			r.Get("/export.csv", h.ExportCSV)
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", h.GetBills)
			r.Put("/", h.PutBills)
		})

		r.Route("/payees", func(r chi.Router) {
			r.Get("/", h.GetPayees)
			r.Put("/", h.PutPayees)
		})

		r.Route("/options", func(r chi.Router) {
			r.Get("/", h.GetOptions)
			r.Put("/", h.PutOptions)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLog logs one line per request with method, path, status, and
// duration, tagged with the chi request ID.
func requestLog(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			h.Log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
