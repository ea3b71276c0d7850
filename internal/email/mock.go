package email

import (
	"context"
	"sync"
)

// MockSender records sent messages for tests.
type MockSender struct {
	// SendFunc allows customizing send behavior
	SendFunc func(ctx context.Context, email *Email) (string, error)

	mu   sync.Mutex
	Sent []*Email
}

var _ Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, email)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, email)
	}
	return "mock-message-id", nil
}

// Count returns the number of messages passed to Send.
func (m *MockSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
