package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// OrderStore implements domain.OrderStore in memory.
type OrderStore struct {
	mu    sync.Mutex
	byID  map[string]*domain.Order
	byRef map[string]string
}

var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{
		byID:  make(map[string]*domain.Order),
		byRef: make(map[string]string),
	}
}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byRef[o.OrderReference]; exists {
		return domain.Conflict("memory.order.create", "Order reference already exists")
	}
	o.ID = newID()
	s.byID[o.ID] = cloneOrder(o)
	s.byRef[o.OrderReference] = o.ID
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, domain.NotFound("memory.order.get", "order", id)
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byRef[reference]
	if !ok {
		return nil, domain.NotFound("memory.order.get_by_reference", "order", reference)
	}
	return cloneOrder(s.byID[id]), nil
}

func (s *OrderStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Order, error) {
	return s.filter(func(o *domain.Order) bool {
		for _, id := range ids {
			if o.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (s *OrderStore) ListForUser(ctx context.Context, userID, email string) ([]domain.Order, error) {
	return s.filter(func(o *domain.Order) bool {
		return (userID != "" && o.UserID == userID) || (email != "" && strings.EqualFold(o.UserEmail, email))
	}), nil
}

func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	return s.filter(func(*domain.Order) bool { return true }), nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, expect, next domain.StatusPair, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return domain.NotFound("memory.order.update_status", "order", id)
	}
	if o.OrderStatus != expect.OrderStatus || o.PaymentStatus != expect.PaymentStatus {
		return domain.Conflict("memory.order.update_status", "Order was modified concurrently")
	}
	o.OrderStatus = next.OrderStatus
	o.PaymentStatus = next.PaymentStatus
	o.UpdatedAt = at
	return nil
}

func (s *OrderStore) UpdatePayment(ctx context.Context, id string, expect, next domain.PaymentStatus, receipt *domain.PaymentResult, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return domain.NotFound("memory.order.update_payment", "order", id)
	}
	if o.PaymentStatus != expect {
		return domain.Conflict("memory.order.update_payment", "Order payment was modified concurrently")
	}
	o.PaymentStatus = next
	if receipt != nil {
		r := *receipt
		o.PaymentResult = &r
	}
	o.UpdatedAt = at
	return nil
}

func (s *OrderStore) MarkHistoryLinked(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return domain.NotFound("memory.order.mark_linked", "order", id)
	}
	o.HistoryPending = false
	return nil
}

func (s *OrderStore) ListHistoryPending(ctx context.Context, before time.Time, limit int) ([]domain.Order, error) {
	pending := s.filter(func(o *domain.Order) bool {
		return o.HistoryPending && o.UserID != "" && o.CreatedAt.Before(before)
	})
	// Oldest first so a bounded sweep makes progress.
	for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
		pending[i], pending[j] = pending[j], pending[i]
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *OrderStore) filter(keep func(*domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Order{}
	for _, o := range s.byID {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sortOrdersNewestFirst(out)
	return out
}
