package routes

import (
	"github.com/dukerupert/balaguruva/internal/middleware"
	"github.com/dukerupert/balaguruva/internal/router"
)

// RegisterAPIRoutes registers the customer-facing JSON API.
//
// The router's global chain runs middleware.Authenticate, so every route
// sees the caller when a bearer token is sent. Catalog, contact, cart and
// checkout routes also serve guests; account and order-history routes
// require a token.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Catalog and contact
	r.Get("/api/products", deps.Product.List)
	r.Post("/api/contact", deps.Contact.Submit)

	// Cart (guest or signed in; a signed-in caller may only touch their own cart)
	r.Get("/api/cart/{userKey}", deps.Cart.Get)
	r.Get("/api/cart/{userKey}/enriched", deps.Cart.Load)
	r.Post("/api/cart", deps.Cart.Sync)
	r.Post("/api/cart/add", deps.Cart.Add)
	r.Post("/api/cart/merge", deps.Cart.Merge)
	r.Put("/api/cart/quantity", deps.Cart.UpdateQuantity)
	r.Post("/api/cart/remove", deps.Cart.Remove)
	r.Delete("/api/cart/{userKey}", deps.Cart.Clear)

	// Checkout
	r.Post("/api/orders", deps.Order.Create)

	// Authenticated routes
	account := r.Group(middleware.RequireAuth)
	account.Get("/api/auth/status", deps.Auth.Status)

	account.Get("/api/user/profile", deps.User.GetProfile)
	account.Put("/api/user/profile", deps.User.UpdateProfile)
	account.Put("/api/user/password", deps.User.ChangePassword)
	account.Delete("/api/user/account", deps.User.DeleteAccount)
	account.Get("/api/user/export", deps.User.Export)

	account.Get("/api/user/wishlist", deps.Wishlist.Get)
	account.Post("/api/user/wishlist", deps.Wishlist.Add)
	account.Delete("/api/user/wishlist", deps.Wishlist.Clear)
	account.Delete("/api/user/wishlist/{productId}", deps.Wishlist.Remove)

	account.Get("/api/orders/{id}", deps.Order.Get)
	account.Get("/api/my-orders", deps.Order.Mine)
	account.Put("/api/orders/{id}/status", deps.Order.UpdateStatus)
}
