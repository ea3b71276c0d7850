// Package jobs holds the consumers that run after checkout: linking new
// orders into their owner's history and sending confirmation emails.
package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/balaguruva/internal/cache"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/email"
	"github.com/dukerupert/balaguruva/internal/events"
	"github.com/dukerupert/balaguruva/internal/telemetry"
)

// ConsumerOrderCreated names this consumer in dedup keys.
const ConsumerOrderCreated = "order-created"

// HistoryLinker appends an order to its owner's history.
type HistoryLinker interface {
	LinkOrderHistory(ctx context.Context, orderID string) error
}

// OrderCreatedHandler consumes OrderCreated events.
type OrderCreatedHandler struct {
	history HistoryLinker
	orders  domain.OrderStore
	email   *email.Service
	cache   cache.Cache
	logger  *slog.Logger
}

// NewOrderCreatedHandler creates the consumer. A nil email service disables
// confirmation emails.
func NewOrderCreatedHandler(history HistoryLinker, orders domain.OrderStore, emailSvc *email.Service, c cache.Cache, logger *slog.Logger) *OrderCreatedHandler {
	return &OrderCreatedHandler{
		history: history,
		orders:  orders,
		email:   emailSvc,
		cache:   c,
		logger:  logger,
	}
}

// Handle processes one envelope. Each event id is handled at most once per
// dedup window; a failed step is logged and left to the history repairer.
func (h *OrderCreatedHandler) Handle(ctx context.Context, env events.Envelope) error {
	if env.EventType != events.EventOrderCreated {
		return nil
	}

	first, err := h.cache.SetNX(ctx, cache.DedupKey(ConsumerOrderCreated, env.EventID), []byte("1"), cache.TTLDedup)
	if err != nil {
		// Both steps are idempotent, so a cache outage only costs a repeat.
		h.logger.WarnContext(ctx, "dedup check failed", "event_id", env.EventID, "error", err)
	} else if !first {
		h.logger.DebugContext(ctx, "skipping duplicate event", "event_id", env.EventID)
		if telemetry.Business != nil {
			telemetry.Business.EventsDuplicate.WithLabelValues(env.EventType).Inc()
		}
		return nil
	}

	var payload events.OrderCreatedPayload
	if err := env.Decode(&payload); err != nil {
		return err
	}

	var errs []error
	if payload.UserID != "" {
		if err := h.history.LinkOrderHistory(ctx, payload.OrderID); err != nil {
			h.logger.ErrorContext(ctx, "failed to link order history",
				"order_id", payload.OrderID,
				"user_id", payload.UserID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if h.email != nil {
		if err := SendOrderConfirmation(ctx, h.orders, h.email, payload.OrderID, h.logger); err != nil {
			h.logger.ErrorContext(ctx, "failed to send order confirmation",
				"order_id", payload.OrderID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
