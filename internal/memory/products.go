package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// ProductStore implements domain.ProductStore in memory.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

var _ domain.ProductStore = (*ProductStore)(nil)

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]domain.Product)}
}

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.NotFound("memory.product.get", "product", id)
	}
	return &p, nil
}

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	s.products[p.ID] = *p
	return nil
}
