package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Product is a catalog entry.
//
// DiscountedPrice is the price actually charged; MRP is the list price shown
// struck-through. Stored values are trusted at read time.
type Product struct {
	ID              string          `json:"_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	MRP             decimal.Decimal `json:"mrp"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Category        string          `json:"category,omitempty"`
	Image           string          `json:"image,omitempty"`
	Stock           int             `json:"stock"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// DiscountedPriceFor returns mrp × (1 − discount/100) rounded to two places.
func DiscountedPriceFor(mrp, discount decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(discount).Div(hundred)
	return mrp.Mul(factor).Round(2)
}

// ProductStore persists catalog entries.
type ProductStore interface {
	// List returns every product, newest first.
	List(ctx context.Context) ([]Product, error)

	// GetByID returns ENOTFOUND when the product does not exist.
	GetByID(ctx context.Context, id string) (*Product, error)

	// Create inserts the product and assigns its ID.
	Create(ctx context.Context, p *Product) error
}
