package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// LocalBus dispatches envelopes to in-process subscribers synchronously,
// in subscription order. Handler errors are logged and do not fail Publish.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	logger   *slog.Logger
}

var _ Bus = (*LocalBus)(nil)

func NewLocalBus(logger *slog.Logger) *LocalBus {
	return &LocalBus{handlers: make(map[string][]Handler), logger: logger}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, env Envelope) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := append([]Handler(nil), b.handlers[subject]...)
	b.mu.RUnlock()

	// Consumers run detached from the publishing request's cancellation.
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		if err := h(ctx, env); err != nil {
			b.logger.Error("event handler failed",
				"subject", subject,
				"event_id", env.EventID,
				"event_type", env.EventType,
				"error", err)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.handlers[subject] = append(b.handlers[subject], h)
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
