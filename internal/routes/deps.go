package routes

import (
	"github.com/dukerupert/balaguruva/internal/handler/api"
	"github.com/dukerupert/balaguruva/internal/handler/webhook"
	"github.com/dukerupert/balaguruva/internal/router"
)

// AuthDeps contains dependencies for the signup and login routes
type AuthDeps struct {
	Handler *api.AuthHandler

	// RateLimit is the strict per-IP limiter applied to credential routes
	RateLimit router.Middleware
}

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	Auth     *api.AuthHandler
	User     *api.UserHandler
	Wishlist *api.WishlistHandler
	Product  *api.ProductHandler
	Contact  *api.ContactHandler
	Cart     *api.CartHandler
	Order    *api.OrderHandler
}

// AdminDeps contains dependencies for admin-only API routes
type AdminDeps struct {
	Product *api.ProductHandler
	Contact *api.ContactHandler
	Order   *api.OrderHandler
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	Payment *webhook.PaymentHandler
}
