package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
)

// CartLine is one product entry in a persisted cart. The snapshot fields are
// captured when the line is first added.
type CartLine struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name,omitempty"`
	Image           string          `json:"image,omitempty"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Quantity        int             `json:"quantity"`
}

// Cart is the persisted working state for one identity key.
// It holds at most one line per product id.
type Cart struct {
	UserKey   string     `json:"userId"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero"`
}

// EmptyCart returns the well-formed empty cart handed to callers whose cart
// does not exist yet.
func EmptyCart(userKey string) *Cart {
	return &Cart{UserKey: userKey, Items: []CartLine{}}
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID string) (CartLine, bool) {
	for _, l := range c.Items {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// EnrichedLine is a cart line joined to the live catalog.
type EnrichedLine struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Quantity        int             `json:"quantity"`
}

// EnrichedCart is the client-visible cart.
type EnrichedCart struct {
	UserKey  string          `json:"userId"`
	Items    []EnrichedLine  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Dropped  int             `json:"-"`
}

// CartStore persists carts keyed by identity key.
//
// Every mutation is a single atomic store operation so that concurrent
// requests against the same cart cannot lose updates.
type CartStore interface {
	// Get returns ErrCartNotFound when no cart exists for the key.
	Get(ctx context.Context, userKey string) (*Cart, error)

	// AddLine increments the quantity of an existing line for the product or
	// appends the line, creating the cart if needed.
	AddLine(ctx context.Context, userKey string, line CartLine) (*Cart, error)

	// MergeLine raises an existing line's quantity to at least line.Quantity or
	// appends the line, creating the cart if needed.
	MergeLine(ctx context.Context, userKey string, line CartLine) (*Cart, error)

	// SetQuantity overwrites the quantity of an existing line.
	// Returns ErrCartNotFound or ErrCartItemNotFound.
	SetQuantity(ctx context.Context, userKey, productID string, quantity int) (*Cart, error)

	// RemoveLine filters out the product's line. Returns ErrCartNotFound if no
	// cart exists; removing an absent product is not an error.
	RemoveLine(ctx context.Context, userKey, productID string) (*Cart, error)

	// Replace overwrites all lines, creating the cart if needed.
	Replace(ctx context.Context, userKey string, lines []CartLine) (*Cart, error)

	// Delete removes the cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, userKey string) error
}
