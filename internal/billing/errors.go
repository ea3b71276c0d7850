package billing

import "errors"

var (
	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrWebhookNotConfigured is returned when no webhook secret is set.
	ErrWebhookNotConfigured = errors.New("billing: webhook secret not configured")

	// ErrMalformedWebhook is returned when a webhook body cannot be decoded.
	ErrMalformedWebhook = errors.New("billing: malformed webhook")
)
