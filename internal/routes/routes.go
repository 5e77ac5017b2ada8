// Package routes wires handlers onto the router. Keeping registration in one
// place makes the API surface auditable at a glance.
package routes

import (
	"github.com/minseoan/podomarket/internal/handler"
	"github.com/minseoan/podomarket/internal/middleware"
	"github.com/minseoan/podomarket/internal/router"
)

// Deps contains the handlers and middleware the route table needs.
type Deps struct {
	Cart    *handler.CartHandler
	Health  *handler.HealthHandler
	Metrics *middleware.Metrics

	// RequireUser guards the cart routes; injected so tests can stub auth.
	RequireUser router.Middleware

	// RateLimit, when non-nil, throttles the cart routes.
	RateLimit router.Middleware
}

// Register registers every route of the service.
func Register(r *router.Router, deps Deps) {
	// Operational endpoints stay outside auth and rate limits.
	r.Get("/health", deps.Health.Health)
	if deps.Metrics != nil {
		r.Handle("GET", "/metrics", deps.Metrics.Handler())
	}

	cart := r
	if deps.RateLimit != nil {
		cart = r.Group(deps.RateLimit)
	}
	deps.Cart.RegisterRoutes(cart, deps.RequireUser)
}
