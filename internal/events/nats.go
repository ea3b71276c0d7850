package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// queueGroup load-balances deliveries across replicas of this service.
const queueGroup = "balaguruva"

// handlerTimeout bounds a single delivery.
const handlerTimeout = 30 * time.Second

// NATSBus implements Bus on core NATS subjects. Delivery is at-most-once;
// consumers must tolerate missing events (the history repair sweep covers
// the one consumer that matters).
type NATSBus struct {
	nc     *nats.Conn
	logger *slog.Logger
}

var _ Bus = (*NATSBus)(nil)

// NewNATSBus connects to url. Reconnects are retried indefinitely.
func NewNATSBus(url string, logger *slog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name(Producer),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return &NATSBus{nc: nc, logger: logger}, nil
}

func (b *NATSBus) Publish(ctx context.Context, subject string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(subject string, h Handler) error {
	_, err := b.nc.QueueSubscribe(subject, queueGroup, func(m *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			b.logger.Error("discarding malformed envelope", "subject", m.Subject, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		if err := h(ctx, env); err != nil {
			b.logger.Error("event handler failed",
				"subject", m.Subject,
				"event_id", env.EventID,
				"event_type", env.EventType,
				"error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Close drains subscriptions, letting in-flight handlers finish.
func (b *NATSBus) Close() error {
	return b.nc.Drain()
}
