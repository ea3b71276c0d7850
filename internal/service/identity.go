package service

import (
	"context"
	"strings"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// IdentityResolver turns the identifiers clients send (user id, email, or an
// opaque guest key) into the keys carts and orders are stored under.
//
// Carts and orders are dual-keyed by user id and email so that a guest who
// later registers with the same email inherits their orders. This type is the
// single place that policy lives.
type IdentityResolver interface {
	// CartKey normalizes idOrEmail into a cart key. A value containing "@"
	// is an email and is used lowercased. A known user id maps to that
	// user's email. Anything else is a guest key and is used as given.
	CartKey(ctx context.Context, idOrEmail string) (string, error)

	// ResolveOwner finds the account an order belongs to: by user id first,
	// then by email. It returns nil for a guest. An unknown id is not an error.
	ResolveOwner(ctx context.Context, userID, email string) (*domain.User, error)
}

type identityResolver struct {
	users domain.UserStore
}

// NewIdentityResolver creates a new IdentityResolver instance
func NewIdentityResolver(users domain.UserStore) IdentityResolver {
	return &identityResolver{users: users}
}

func (r *identityResolver) CartKey(ctx context.Context, idOrEmail string) (string, error) {
	const op = "identity.cart_key"

	key := strings.TrimSpace(idOrEmail)
	if key == "" {
		return "", domain.NewValidationError(op, "userId", "is required")
	}
	if strings.Contains(key, "@") {
		return domain.NormalizeEmail(key), nil
	}

	u, err := r.users.GetByID(ctx, key)
	switch {
	case err == nil:
		return domain.NormalizeEmail(u.Email), nil
	case domain.IsCode(err, domain.ENOTFOUND):
		return key, nil
	default:
		return "", domain.WithOp(err, op)
	}
}

func (r *identityResolver) ResolveOwner(ctx context.Context, userID, email string) (*domain.User, error) {
	const op = "identity.resolve_owner"

	if userID = strings.TrimSpace(userID); userID != "" {
		u, err := r.users.GetByID(ctx, userID)
		if err == nil {
			return u, nil
		}
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(err, op)
		}
	}

	if email = domain.NormalizeEmail(email); email != "" {
		u, err := r.users.GetByEmail(ctx, email)
		if err == nil {
			return u, nil
		}
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(err, op)
		}
	}

	return nil, nil
}
