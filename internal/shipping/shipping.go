// Package shipping prices delivery for checkout.
package shipping

import (
	"context"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
)

// Provider defines the interface for delivery pricing.
// Implementations can integrate with courier rate APIs; the storefront ships
// with a fixed table.
type Provider interface {
	// Rates returns every delivery option the storefront offers.
	Rates(ctx context.Context) ([]Rate, error)

	// Quote returns the rate for one delivery method.
	// Returns ErrUnknownMethod for methods the provider does not offer.
	Quote(ctx context.Context, method domain.DeliveryMethod) (Rate, error)
}

// Rate represents a delivery option and its price.
type Rate struct {
	Method           domain.DeliveryMethod `json:"method"`
	ServiceName      string                `json:"serviceName"`
	Cost             decimal.Decimal       `json:"cost"`
	EstimatedDaysMin int                   `json:"estimatedDaysMin"`
	EstimatedDaysMax int                   `json:"estimatedDaysMax"`
}
