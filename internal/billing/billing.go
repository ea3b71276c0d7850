// Package billing verifies payment-gateway receipts and webhooks.
//
// The gateway itself is an opaque collaborator: checkout receives a receipt
// from the client and asks a Verifier whether it is authentic. Asynchronous
// confirmations arrive as signed webhooks.
package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// Verifier checks gateway receipts and webhook signatures.
// Implementations can use Razorpay or any gateway signing receipts with a shared secret.
type Verifier interface {
	// VerifyPayment reports whether the receipt's signature is authentic.
	// An error means the verifier could not decide (unreachable, timed out)
	// and is terminal for the checkout attempt.
	VerifyPayment(ctx context.Context, receipt domain.PaymentResult) (bool, error)

	// VerifyWebhookSignature returns ErrInvalidWebhookSignature unless
	// signature authenticates payload.
	VerifyWebhookSignature(payload []byte, signature string) error
}

// Webhook event names handled by the payment webhook.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// WebhookEvent is the part of a gateway webhook the storefront acts on.
type WebhookEvent struct {
	Event          string
	PaymentID      string
	GatewayOrderID string
	Email          string
	OrderReference string
}

// ReceiptStatus maps the event onto a receipt status, or "" for events the
// storefront ignores.
func (e *WebhookEvent) ReceiptStatus() string {
	switch e.Event {
	case EventPaymentCaptured:
		return domain.ReceiptStatusSuccess
	case EventPaymentFailed:
		return domain.ReceiptStatusFailed
	default:
		return ""
	}
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Email   string            `json:"email"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook decodes a webhook body. The order reference is read from the
// payment notes, where checkout stores it when opening the gateway order.
func ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var body webhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if body.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedWebhook)
	}

	entity := body.Payload.Payment.Entity
	return &WebhookEvent{
		Event:          body.Event,
		PaymentID:      entity.ID,
		GatewayOrderID: entity.OrderID,
		Email:          entity.Email,
		OrderReference: entity.Notes["orderReference"],
	}, nil
}
