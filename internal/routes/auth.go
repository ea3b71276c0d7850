package routes

import (
	"github.com/dukerupert/balaguruva/internal/router"
)

// RegisterAuthRoutes registers signup and login. Both sit behind the strict
// rate limiter to slow credential stuffing.
func RegisterAuthRoutes(r *router.Router, deps AuthDeps) {
	var limited []router.Middleware
	if deps.RateLimit != nil {
		limited = append(limited, deps.RateLimit)
	}

	r.Post("/signup", deps.Handler.Signup, limited...)
	r.Post("/login", deps.Handler.Login, limited...)
}
