/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web clients
  5. Authenticator: JWT bearer token on everything but health/register

ROUTE GROUPS:
  /api/health           Liveness probe (public)
  /api/users/*          Accounts and profiles
  /api/products/*       Catalogue (writes admin-only)
  /api/orders/*         Checkout and the collection ledger
  /api/reports/*        Daily collection report
  /api/broadcasts       Announcements
  /api/promos           Promo banners

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token parsing and role gates
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tokocicil/collection-engine/account"
)

// NewRouter creates a new router with all routes configured. secret signs
// and verifies the JWT bearer tokens.
func NewRouter(h *Handler, secret []byte) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	adminOnly := RequireRole(account.RoleAdmin)
	fieldRoles := RequireRole(account.RoleCollector, account.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Registration: anonymous allowed, admin token honored.
		r.With(SoftAuthenticator(secret)).Post("/users/register", h.Register)

		// Everything else needs a valid token.
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(secret))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", h.GetProfile)
				r.Put("/me", h.UpdateProfile)
				r.With(adminOnly).Get("/", h.ListUsers)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Get("/{id}", h.GetProduct)
				r.With(adminOnly).Post("/", h.CreateProduct)
				r.With(adminOnly).Put("/{id}", h.UpdateProduct)
				r.With(adminOnly).Delete("/{id}", h.DeleteProduct)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.With(RequireRole(account.RoleConsumer)).Post("/", h.Checkout)
				r.Get("/{id}", h.GetOrder)
				r.Get("/{id}/history", h.GetOrderHistory)
				r.With(fieldRoles).Post("/{id}/payments", h.RecordPayment)
				r.With(fieldRoles).Post("/{id}/notes", h.RecordVisitNote)
				r.With(adminOnly).Put("/{id}/status", h.UpdateStatus)
				r.With(adminOnly).Put("/{id}/collector", h.AssignCollector)
			})

			r.With(fieldRoles).Get("/reports/daily", h.DailyReport)

			r.Get("/broadcasts", h.ListBroadcasts)
			r.With(adminOnly).Post("/broadcasts", h.CreateBroadcast)
			r.Get("/promos", h.ListPromos)
			r.With(adminOnly).Post("/promos", h.CreatePromo)
		})
	})

	return r
}
