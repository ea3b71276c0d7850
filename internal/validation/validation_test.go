package validation

import (
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Name     string           `json:"name" validate:"notblank"`
	Price    *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Quantity int              `json:"quantity" validate:"gte=1"`
}

type address struct {
	City string `json:"city" validate:"required"`
}

type input struct {
	Email   string  `json:"userEmail" validate:"required,email"`
	Method  string  `json:"paymentMethod" validate:"required,oneof=razorpay cod"`
	Items   []line  `json:"orderItems" validate:"min=1,dive"`
	Address address `json:"shippingInfo"`
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestStruct_Valid(t *testing.T) {
	in := input{
		Email:   "a@x.com",
		Method:  "cod",
		Items:   []line{{Name: "Pan", Price: price("800"), Quantity: 2}},
		Address: address{City: "Chennai"},
	}
	assert.NoError(t, Struct("order.create", in))
}

func TestStruct_NamesEveryField(t *testing.T) {
	in := input{
		Method: "paypal",
		Items:  []line{{Name: "  ", Price: price("-1"), Quantity: 0}},
	}

	err := Struct("order.create", in)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, "order.create", domain.ErrorOp(err))

	fields := domain.GetValidationFields(err)
	assert.Equal(t, "is required", fields["userEmail"])
	assert.Equal(t, "must be one of: razorpay, cod", fields["paymentMethod"])
	assert.Equal(t, "is required", fields["orderItems[0].name"])
	assert.Equal(t, "must be at least 0", fields["orderItems[0].price"])
	assert.Equal(t, "must be at least 1", fields["orderItems[0].quantity"])
	assert.Equal(t, "is required", fields["shippingInfo.city"])
}

func TestStruct_MissingDecimalAndEmptySlice(t *testing.T) {
	in := input{
		Email:   "a@x.com",
		Method:  "cod",
		Items:   []line{},
		Address: address{City: "Chennai"},
	}

	fields := domain.GetValidationFields(Struct("order.create", in))
	assert.Equal(t, "must not be empty", fields["orderItems"])

	in.Items = []line{{Name: "Pan", Quantity: 1}}
	fields = domain.GetValidationFields(Struct("order.create", in))
	assert.Equal(t, "is required", fields["orderItems[0].price"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("user.signup", "password", "longenough", "min=8"))

	err := Var("user.signup", "password", "short", "min=8")
	require.Error(t, err)
	assert.Equal(t, "must be at least 8 characters", domain.GetValidationFields(err)["password"])
}
