package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/telemetry"
	"github.com/dukerupert/balaguruva/internal/validation"
	"github.com/shopspring/decimal"
)

// WishlistService manages a user's saved products. Unlike the cart, adding a
// product twice is rejected rather than merged.
type WishlistService interface {
	Get(ctx context.Context, userID string) ([]domain.WishlistItem, error)

	// Add returns ErrWishlistDuplicate when the product is already saved.
	Add(ctx context.Context, userID string, input WishlistItemInput) ([]domain.WishlistItem, error)

	// Remove returns ErrWishlistNotFound when the product is not saved.
	Remove(ctx context.Context, userID, productID string) ([]domain.WishlistItem, error)

	Clear(ctx context.Context, userID string) error
}

// WishlistItemInput is the payload for saving a product.
type WishlistItemInput struct {
	ProductID   string           `json:"productId" validate:"notblank"`
	Name        string           `json:"name" validate:"notblank"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Image       string           `json:"image"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
}

type wishlistService struct {
	users  domain.UserStore
	logger *slog.Logger
}

// NewWishlistService creates a new WishlistService instance
func NewWishlistService(users domain.UserStore, logger *slog.Logger) WishlistService {
	return &wishlistService{users: users, logger: logger}
}

func (s *wishlistService) user(ctx context.Context, op, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrUserNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}
	return u, nil
}

func (s *wishlistService) Get(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	u, err := s.user(ctx, "wishlist.get", userID)
	if err != nil {
		return nil, err
	}
	if u.Wishlist == nil {
		return []domain.WishlistItem{}, nil
	}
	return u.Wishlist, nil
}

func (s *wishlistService) Add(ctx context.Context, userID string, input WishlistItemInput) ([]domain.WishlistItem, error) {
	const op = "wishlist.add"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, op, userID); err != nil {
		return nil, err
	}

	item := domain.WishlistItem{
		ProductID:   strings.TrimSpace(input.ProductID),
		Name:        strings.TrimSpace(input.Name),
		Price:       *input.Price,
		Image:       input.Image,
		Description: input.Description,
		Category:    input.Category,
		AddedAt:     time.Now().UTC(),
	}
	list, err := s.users.AddWishlistItem(ctx, userID, item)
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			return nil, domain.WithOp(ErrWishlistDuplicate, op)
		}
		return nil, domain.WithOp(err, op)
	}

	recordWishlist("add")
	return list, nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID string) ([]domain.WishlistItem, error) {
	const op = "wishlist.remove"

	if _, err := s.user(ctx, op, userID); err != nil {
		return nil, err
	}
	list, err := s.users.RemoveWishlistItem(ctx, userID, strings.TrimSpace(productID))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrWishlistNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}

	recordWishlist("remove")
	return list, nil
}

func (s *wishlistService) Clear(ctx context.Context, userID string) error {
	const op = "wishlist.clear"

	if _, err := s.user(ctx, op, userID); err != nil {
		return err
	}
	if err := s.users.ClearWishlist(ctx, userID); err != nil {
		return domain.WithOp(err, op)
	}

	recordWishlist("clear")
	return nil
}

func recordWishlist(action string) {
	if telemetry.Business != nil {
		telemetry.Business.WishlistChanges.WithLabelValues(action).Inc()
	}
}
