package shipping_test

import (
	"context"
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/shipping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatRateProvider_Quote_DefaultTable(t *testing.T) {
	provider := shipping.NewFlatRateProvider(shipping.DefaultRates)

	tests := []struct {
		name   string
		method domain.DeliveryMethod
		want   decimal.Decimal
	}{
		{"standard is free", domain.DeliveryStandard, decimal.Zero},
		{"express costs 100", domain.DeliveryExpress, decimal.NewFromInt(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := provider.Quote(context.Background(), tt.method)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rate.Cost), "got %s", rate.Cost)
			assert.Equal(t, tt.method, rate.Method)
		})
	}
}

func TestFlatRateProvider_Quote_UnknownMethod(t *testing.T) {
	provider := shipping.NewFlatRateProvider(shipping.DefaultRates)

	_, err := provider.Quote(context.Background(), domain.DeliveryMethod("drone"))

	assert.ErrorIs(t, err, shipping.ErrUnknownMethod)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestFlatRateProvider_Quote_EmptyTable(t *testing.T) {
	provider := shipping.NewFlatRateProvider(nil)

	_, err := provider.Quote(context.Background(), domain.DeliveryStandard)

	assert.ErrorIs(t, err, shipping.ErrUnknownMethod)
}

func TestFlatRateProvider_Rates_ReturnsCopy(t *testing.T) {
	provider := shipping.NewFlatRateProvider(shipping.DefaultRates)

	rates, err := provider.Rates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	rates[0].Cost = decimal.NewFromInt(999)

	again, err := provider.Rates(context.Background())
	require.NoError(t, err)
	assert.True(t, again[0].Cost.IsZero(), "mutating the result must not change the table")
}

func TestFlatRateProvider_EstimatedDays(t *testing.T) {
	provider := shipping.NewFlatRateProvider(shipping.DefaultRates)

	rates, err := provider.Rates(context.Background())
	require.NoError(t, err)

	for _, r := range rates {
		assert.LessOrEqual(t, r.EstimatedDaysMin, r.EstimatedDaysMax, r.ServiceName)
	}
}

func TestMockProvider_Defaults(t *testing.T) {
	m := &shipping.MockProvider{}

	rate, err := m.Quote(context.Background(), domain.DeliveryExpress)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(rate.Cost))
}
