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
  /api/students/*      Student enrollment and per-student ledgers
  /api/terms/*         Academic term periods
  /api/class-fees/*    Per-class per-term fee schedules
  /api/payments/*      Fee payments, receipts, stats
  /api/statements/*    Individual statement operations
  /api/recalculate/*   Manual balance recalculation triggers
  /api/sweep/*         Scheduled balance sweep control

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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

	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudent)
			r.Get("/{id}/statements", h.ListStudentStatements)
			r.Get("/{id}/payments", h.ListStudentPayments)
			r.Put("/{id}/class", h.ChangeStudentClass)
			r.Post("/{id}/recalculate", h.RecalculateStudent)
		})

		// Term routes
		r.Route("/terms", func(r chi.Router) {
			r.Get("/", h.ListTerms)
			r.Post("/", h.CreateTerm)
			r.Put("/", h.UpdateTerm)
			r.Get("/active", h.ListActiveTerms)
		})

		// Class fee routes
		r.Route("/class-fees", func(r chi.Router) {
			r.Post("/", h.CreateClassFee)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/stats", h.GetPaymentStats)
			r.Get("/{id}", h.GetPayment)
			r.Delete("/{id}", h.DeletePayment)
			r.Post("/{id}/receipts", h.RecordReceipt)
			r.Get("/{id}/receipts", h.ListReceipts)
		})

		// Statement routes
		r.Route("/statements", func(r chi.Router) {
			r.Get("/{id}", h.GetStatement)
			r.Post("/{id}/recalculate", h.RecalculateStatement)
		})

		// Manual recalculation triggers
		r.Route("/recalculate", func(r chi.Router) {
			r.Post("/term", h.RecalculateTerm)
			r.Post("/year/{year}", h.RecalculateYear)
			r.Post("/active", h.RecalculateActiveTerms)
		})

		// Sweep control routes
		r.Route("/sweep", func(r chi.Router) {
			r.Post("/start", h.StartSweep)
			r.Post("/stop", h.StopSweep)
			r.Get("/status", h.GetSweepStatus)
		})
	})

	return r
}
