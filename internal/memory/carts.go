package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// CartStore implements domain.CartStore in memory.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

var _ domain.CartStore = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]*domain.Cart)}
}

func (s *CartStore) Get(ctx context.Context, userKey string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userKey]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (s *CartStore) AddLine(ctx context.Context, userKey string, line domain.CartLine) (*domain.Cart, error) {
	return s.upsert(userKey, line, func(existing *domain.CartLine) {
		existing.Quantity += line.Quantity
	})
}

func (s *CartStore) MergeLine(ctx context.Context, userKey string, line domain.CartLine) (*domain.Cart, error) {
	return s.upsert(userKey, line, func(existing *domain.CartLine) {
		existing.Quantity = max(existing.Quantity, line.Quantity)
	})
}

func (s *CartStore) upsert(userKey string, line domain.CartLine, onExisting func(*domain.CartLine)) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreate(userKey)
	i := c.indexOf(line.ProductID)
	if i >= 0 {
		onExisting(&c.Items[i])
	} else {
		c.Items = append(c.Items, line)
	}
	c.UpdatedAt = now()
	return cloneCart(c.Cart), nil
}

func (s *CartStore) SetQuantity(ctx context.Context, userKey, productID string, quantity int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userKey]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	i := (&cart{c}).indexOf(productID)
	if i < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	c.Items[i].Quantity = quantity
	c.UpdatedAt = now()
	return cloneCart(c), nil
}

func (s *CartStore) RemoveLine(ctx context.Context, userKey, productID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userKey]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	c.Items = slices.DeleteFunc(c.Items, func(l domain.CartLine) bool { return l.ProductID == productID })
	c.UpdatedAt = now()
	return cloneCart(c), nil
}

func (s *CartStore) Replace(ctx context.Context, userKey string, lines []domain.CartLine) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreate(userKey)
	c.Items = append([]domain.CartLine{}, lines...)
	c.UpdatedAt = now()
	return cloneCart(c.Cart), nil
}

func (s *CartStore) Delete(ctx context.Context, userKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userKey)
	return nil
}

// cart adds index lookup to a stored cart. Callers hold s.mu.
type cart struct {
	*domain.Cart
}

func (c *cart) indexOf(productID string) int {
	return slices.IndexFunc(c.Items, func(l domain.CartLine) bool { return l.ProductID == productID })
}

func (s *CartStore) getOrCreate(userKey string) *cart {
	c, ok := s.carts[userKey]
	if !ok {
		c = domain.EmptyCart(userKey)
		s.carts[userKey] = c
	}
	return &cart{c}
}
