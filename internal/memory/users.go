package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// UserStore implements domain.UserStore in memory.
type UserStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

// Compile-time check to ensure UserStore implements domain.UserStore.
var _ domain.UserStore = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := domain.NormalizeEmail(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return domain.Conflict("memory.user.create", "User already exists")
	}

	u.ID = newID()
	u.Email = email
	if u.Wishlist == nil {
		u.Wishlist = []domain.WishlistItem{}
	}
	if u.OrderHistory == nil {
		u.OrderHistory = []string{}
	}
	s.byID[u.ID] = cloneUser(u)
	s.byEmail[email] = u.ID
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, domain.NotFound("memory.user.get", "user", id)
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.NotFound("memory.user.get_by_email", "user", email)
	}
	return cloneUser(s.byID[id]), nil
}

func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[u.ID]
	if !ok {
		return domain.NotFound("memory.user.update", "user", u.ID)
	}

	updated := cloneUser(u)
	updated.Email = existing.Email
	updated.Wishlist = existing.Wishlist
	updated.OrderHistory = existing.OrderHistory
	updated.CreatedAt = existing.CreatedAt
	s.byID[u.ID] = updated
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return domain.NotFound("memory.user.delete", "user", id)
	}
	delete(s.byEmail, u.Email)
	delete(s.byID, id)
	return nil
}

func (s *UserStore) AppendOrderHistory(ctx context.Context, userID string, orderIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return domain.NotFound("memory.user.append_history", "user", userID)
	}
	for _, id := range orderIDs {
		if !slices.Contains(u.OrderHistory, id) {
			u.OrderHistory = append(u.OrderHistory, id)
		}
	}
	return nil
}

func (s *UserStore) AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) ([]domain.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, domain.NotFound("memory.wishlist.add", "user", userID)
	}
	if u.HasWishlistItem(item.ProductID) {
		return nil, domain.Conflict("memory.wishlist.add", "Item already in wishlist")
	}
	u.Wishlist = append(u.Wishlist, item)
	return append([]domain.WishlistItem{}, u.Wishlist...), nil
}

func (s *UserStore) RemoveWishlistItem(ctx context.Context, userID, productID string) ([]domain.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, domain.NotFound("memory.wishlist.remove", "user", userID)
	}
	i := slices.IndexFunc(u.Wishlist, func(w domain.WishlistItem) bool { return w.ProductID == productID })
	if i < 0 {
		return nil, domain.NotFound("memory.wishlist.remove", "wishlist item", productID)
	}
	u.Wishlist = slices.Delete(u.Wishlist, i, i+1)
	return append([]domain.WishlistItem{}, u.Wishlist...), nil
}

func (s *UserStore) ClearWishlist(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return domain.NotFound("memory.wishlist.clear", "user", userID)
	}
	u.Wishlist = []domain.WishlistItem{}
	return nil
}
