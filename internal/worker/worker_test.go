package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepairer struct {
	RepairFunc func(ctx context.Context, olderThan time.Duration, limit int) (int, error)
	calls      atomic.Int32
}

func (m *mockRepairer) RepairOrderHistory(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	m.calls.Add(1)
	if m.RepairFunc != nil {
		return m.RepairFunc(ctx, olderThan, limit)
	}
	return 0, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(&mockRepairer{}, Config{}, discard())

	assert.Equal(t, 5*time.Minute, w.config.Interval)
	assert.Equal(t, 2*time.Minute, w.config.Grace)
	assert.Equal(t, 100, w.config.BatchSize)
	assert.Contains(t, w.config.WorkerID, "worker-")
}

func TestRunOnce_PassesGraceAndBatch(t *testing.T) {
	var gotGrace time.Duration
	var gotLimit int
	r := &mockRepairer{RepairFunc: func(_ context.Context, olderThan time.Duration, limit int) (int, error) {
		gotGrace, gotLimit = olderThan, limit
		return 3, nil
	}}

	w := NewWorker(r, Config{Grace: time.Minute, BatchSize: 7}, discard())
	assert.Equal(t, 3, w.RunOnce(context.Background()))
	assert.Equal(t, time.Minute, gotGrace)
	assert.Equal(t, 7, gotLimit)
}

func TestRunOnce_ReportsPartialProgressOnError(t *testing.T) {
	r := &mockRepairer{RepairFunc: func(context.Context, time.Duration, int) (int, error) {
		return 2, errors.New("one order failed")
	}}

	w := NewWorker(r, Config{}, discard())
	assert.Equal(t, 2, w.RunOnce(context.Background()))
}

func TestStart_SweepsUntilCancelled(t *testing.T) {
	r := &mockRepairer{}
	w := NewWorker(r, Config{Interval: 5 * time.Millisecond}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
