package routes

import (
	"github.com/dukerupert/balaguruva/internal/middleware"
	"github.com/dukerupert/balaguruva/internal/router"
)

// RegisterAdminRoutes registers the admin-only API routes.
// Administrators are the accounts whose email is listed in ADMIN_EMAILS.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(middleware.RequireAdmin)

	admin.Post("/api/products", deps.Product.Create)
	admin.Get("/api/contacts", deps.Contact.List)
	admin.Get("/api/orders", deps.Order.List)
}
