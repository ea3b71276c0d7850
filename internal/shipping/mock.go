package shipping

import (
	"context"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	RatesFunc func(ctx context.Context) ([]Rate, error)
	QuoteFunc func(ctx context.Context, method domain.DeliveryMethod) (Rate, error)
}

var _ Provider = (*MockProvider)(nil)

// Rates delegates to the configured function or returns DefaultRates.
func (m *MockProvider) Rates(ctx context.Context) ([]Rate, error) {
	if m.RatesFunc != nil {
		return m.RatesFunc(ctx)
	}
	return DefaultRates, nil
}

// Quote delegates to the configured function or prices from DefaultRates.
func (m *MockProvider) Quote(ctx context.Context, method domain.DeliveryMethod) (Rate, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, method)
	}
	return NewFlatRateProvider(DefaultRates).Quote(ctx, method)
}
