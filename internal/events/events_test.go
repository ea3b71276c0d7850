package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEnvelope(t *testing.T) {
	payload := OrderCreatedPayload{
		OrderID:        "o1",
		OrderReference: "ORD-1",
		UserEmail:      "a@x.com",
		TotalPrice:     decimal.NewFromInt(1700),
		PaymentMethod:  "cod",
	}

	env, err := NewEnvelope(EventOrderCreated, "o1", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, Producer, env.Producer)
	assert.Equal(t, "o1", env.CorrelationID)

	var got OrderCreatedPayload
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "ORD-1", got.OrderReference)
	assert.True(t, got.TotalPrice.Equal(payload.TotalPrice))
}

func TestLocalBus_FanOut(t *testing.T) {
	bus := NewLocalBus(discardLogger())
	ctx := context.Background()

	var calls []string
	require.NoError(t, bus.Subscribe(SubjectOrderCreated, func(ctx context.Context, env Envelope) error {
		calls = append(calls, "first")
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(SubjectOrderCreated, func(ctx context.Context, env Envelope) error {
		calls = append(calls, "second")
		return nil
	}))
	require.NoError(t, bus.Subscribe("other.subject", func(ctx context.Context, env Envelope) error {
		calls = append(calls, "other")
		return nil
	}))

	env, _ := NewEnvelope(EventOrderCreated, "o1", OrderCreatedPayload{})
	assert.NoError(t, bus.Publish(ctx, SubjectOrderCreated, env), "handler errors do not fail publish")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestLocalBus_HandlersOutliveRequestCancellation(t *testing.T) {
	bus := NewLocalBus(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var handlerErr error
	require.NoError(t, bus.Subscribe(SubjectOrderCreated, func(ctx context.Context, env Envelope) error {
		handlerErr = ctx.Err()
		return nil
	}))

	env, _ := NewEnvelope(EventOrderCreated, "o1", OrderCreatedPayload{})
	require.NoError(t, bus.Publish(ctx, SubjectOrderCreated, env))
	assert.NoError(t, handlerErr)
}

func TestLocalBus_Closed(t *testing.T) {
	bus := NewLocalBus(discardLogger())
	require.NoError(t, bus.Close())

	env, _ := NewEnvelope(EventOrderCreated, "o1", OrderCreatedPayload{})
	assert.ErrorIs(t, bus.Publish(context.Background(), SubjectOrderCreated, env), ErrBusClosed)
	assert.ErrorIs(t, bus.Subscribe(SubjectOrderCreated, nil), ErrBusClosed)
}
