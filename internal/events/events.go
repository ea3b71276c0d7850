// Package events defines the event envelope and the bus used to hand
// order-created events from checkout to background consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// SubjectOrderCreated carries EventOrderCreated envelopes.
	SubjectOrderCreated = "orders.created"

	EventOrderCreated = "OrderCreated"

	// Producer names this service in emitted envelopes.
	Producer = "balaguruva-api"
)

// Envelope wraps every event published on the bus.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderCreatedPayload is the payload of EventOrderCreated.
type OrderCreatedPayload struct {
	OrderID        string          `json:"order_id"`
	OrderReference string          `json:"order_reference"`
	UserID         string          `json:"user_id,omitempty"`
	UserEmail      string          `json:"user_email"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	PaymentMethod  string          `json:"payment_method"`
}

// NewEnvelope builds a version 1 envelope with a fresh event id.
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: correlationID,
		Payload:       data,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// Handler processes one envelope. A returned error is logged by the bus;
// redelivery is not attempted.
type Handler func(ctx context.Context, env Envelope) error

// Bus publishes envelopes to subjects and dispatches them to subscribers.
type Bus interface {
	Publish(ctx context.Context, subject string, env Envelope) error
	Subscribe(subject string, h Handler) error
	Close() error
}
