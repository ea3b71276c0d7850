// Package webhook receives asynchronous payment-gateway callbacks.
package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/billing"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
	"github.com/dukerupert/balaguruva/internal/telemetry"
)

// SignatureHeader carries the hex HMAC of the raw body.
const SignatureHeader = "X-Razorpay-Signature"

// maxPayloadBytes bounds a webhook body.
const maxPayloadBytes = 64 * 1024

// PaymentHandler applies gateway payment outcomes to orders.
type PaymentHandler struct {
	verifier billing.Verifier
	orders   service.OrderService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new payment webhook handler
func NewPaymentHandler(verifier billing.Verifier, orders service.OrderService, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{verifier: verifier, orders: orders, logger: logger}
}

type ackResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
}

// HandleWebhook handles POST /api/payments/webhook.
//
// Responses drive gateway retries: a 2xx acknowledges the event, anything
// else is redelivered. Events that can never succeed (ignored types,
// missing references, payments already settled) are acknowledged; an order
// that is not stored yet answers 404 so the callback is retried.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("webhook.payment", "Error reading request body"))
		return
	}
	if len(payload) > maxPayloadBytes {
		handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "webhook.payment", "Webhook body too large"))
		return
	}

	if err := h.verifier.VerifyWebhookSignature(payload, r.Header.Get(SignatureHeader)); err != nil {
		h.recordFailure("unknown", "signature")
		if errors.Is(err, billing.ErrWebhookNotConfigured) {
			h.logger.Error("payment webhook received but no webhook secret is configured")
			handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAVAILABLE, "webhook.payment", "Webhook not configured"))
			return
		}
		h.logger.Warn("payment webhook signature rejected", "error", err)
		handler.ErrorResponse(w, r, domain.Unauthorized("webhook.payment", "Invalid signature"))
		return
	}

	evt, err := billing.ParseWebhook(payload)
	if err != nil {
		h.recordFailure("unknown", "malformed")
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "webhook.payment", "Malformed webhook"))
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(evt.Event).Inc()
	}

	status := evt.ReceiptStatus()
	if status == "" {
		h.logger.Debug("payment webhook event ignored", "event", evt.Event)
		handler.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Status: "ignored"})
		return
	}
	if evt.OrderReference == "" {
		h.recordFailure(evt.Event, "missing_reference")
		h.logger.Warn("payment webhook without order reference", "event", evt.Event, "payment_id", evt.PaymentID)
		handler.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Status: "ignored"})
		return
	}

	receipt := domain.PaymentResult{
		ID:             evt.PaymentID,
		Status:         status,
		EmailAddress:   evt.Email,
		GatewayOrderID: evt.GatewayOrderID,
	}

	order, err := h.orders.ReconcilePayment(r.Context(), evt.OrderReference, receipt)
	switch {
	case err == nil:
		h.logger.Info("payment reconciled",
			"order_reference", evt.OrderReference,
			"payment_status", order.PaymentStatus,
			"event", evt.Event,
		)
		handler.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Status: string(order.PaymentStatus)})
	case errors.Is(err, service.ErrPaymentAlreadySettled):
		h.recordFailure(evt.Event, "already_settled")
		h.logger.Warn("payment webhook contradicts settled payment",
			"order_reference", evt.OrderReference,
			"event", evt.Event,
		)
		handler.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Status: "conflict"})
	default:
		h.recordFailure(evt.Event, domain.ErrorCode(err))
		handler.ErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) recordFailure(event, reason string) {
	if telemetry.Business != nil {
		telemetry.Business.WebhookFailed.WithLabelValues(event, reason).Inc()
	}
}
