package routes

import (
	"github.com/dukerupert/balaguruva/internal/router"
)

// RegisterWebhookRoutes registers all webhook routes.
//
// Note: Webhook routes do NOT have authentication middleware.
// The handler verifies the gateway's HMAC signature over the raw body.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/api/payments/webhook", deps.Payment.HandleWebhook)
}
