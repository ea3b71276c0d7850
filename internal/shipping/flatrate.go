package shipping

import (
	"context"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
)

// FlatRateProvider returns predefined flat-rate delivery options.
type FlatRateProvider struct {
	rates []Rate
}

// DefaultRates is the storefront's delivery table: standard is free and
// express costs 100.
var DefaultRates = []Rate{
	{
		Method:           domain.DeliveryStandard,
		ServiceName:      "Standard Delivery",
		Cost:             decimal.Zero,
		EstimatedDaysMin: 5,
		EstimatedDaysMax: 7,
	},
	{
		Method:           domain.DeliveryExpress,
		ServiceName:      "Express Delivery",
		Cost:             decimal.NewFromInt(100),
		EstimatedDaysMin: 1,
		EstimatedDaysMax: 2,
	},
}

// NewFlatRateProvider creates a new flat-rate delivery provider.
func NewFlatRateProvider(rates []Rate) *FlatRateProvider {
	return &FlatRateProvider{rates: rates}
}

// Rates returns a copy of the configured table.
func (p *FlatRateProvider) Rates(ctx context.Context) ([]Rate, error) {
	result := make([]Rate, len(p.rates))
	copy(result, p.rates)
	return result, nil
}

func (p *FlatRateProvider) Quote(ctx context.Context, method domain.DeliveryMethod) (Rate, error) {
	for _, r := range p.rates {
		if r.Method == method {
			return r, nil
		}
	}
	return Rate{}, ErrUnknownMethod
}
