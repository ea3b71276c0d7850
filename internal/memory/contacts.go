package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// ContactStore implements domain.ContactStore in memory. Expired submissions
// are filtered on read rather than purged.
type ContactStore struct {
	mu       sync.Mutex
	contacts []domain.Contact
}

var _ domain.ContactStore = (*ContactStore)(nil)

func NewContactStore() *ContactStore {
	return &ContactStore{}
}

func (s *ContactStore) Create(ctx context.Context, c *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = newID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	s.contacts = append(s.contacts, *c)
	return nil
}

func (s *ContactStore) List(ctx context.Context) ([]domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now().Add(-domain.ContactRetention)
	out := []domain.Contact{}
	for _, c := range s.contacts {
		if c.CreatedAt.After(cutoff) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
