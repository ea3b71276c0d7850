package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the storefront SPA origins to call the API with bearer tokens.
// An empty origin list falls back to allowing any origin without credentials,
// which is only suitable for development.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           600,
	}
	return cors.New(opts).Handler
}
