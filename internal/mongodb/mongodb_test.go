package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDecimalCodec_RoundTrip(t *testing.T) {
	reg := newRegistry()

	type priced struct {
		Price decimal.Decimal `bson:"price"`
	}

	for _, s := range []string{"0", "800", "849.15", "1600.00", "0.01"} {
		t.Run(s, func(t *testing.T) {
			in := priced{Price: decimal.RequireFromString(s)}
			data, err := bson.MarshalWithRegistry(reg, in)
			require.NoError(t, err)

			var raw bson.M
			require.NoError(t, bson.Unmarshal(data, &raw))
			assert.IsType(t, primitive.Decimal128{}, raw["price"])

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
			assert.True(t, in.Price.Equal(out.Price), "got %s want %s", out.Price, in.Price)
		})
	}
}

func TestDecimalCodec_DecodesLegacyNumbers(t *testing.T) {
	reg := newRegistry()

	type priced struct {
		Price decimal.Decimal `bson:"price"`
	}

	tests := []struct {
		name string
		doc  bson.M
		want string
	}{
		{"double", bson.M{"price": 849.5}, "849.5"},
		{"int32", bson.M{"price": int32(100)}, "100"},
		{"int64", bson.M{"price": int64(1600)}, "1600"},
		{"null", bson.M{"price": nil}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var out priced
			require.NoError(t, bson.UnmarshalWithRegistry(reg, data, &out))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(out.Price))
		})
	}
}

func TestTranslate(t *testing.T) {
	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"nil", nil, ""},
		{"no documents", mongo.ErrNoDocuments, domain.ENOTFOUND},
		{"duplicate key", dupErr, domain.ECONFLICT},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), domain.ETIMEOUT},
		{"other", errors.New("connection reset"), domain.EUNAVAILABLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err, "op", "order", "1")
			assert.Equal(t, tt.code, domain.ErrorCode(err))
		})
	}
}

func TestOrderMapping_RoundTrip(t *testing.T) {
	userID := primitive.NewObjectID().Hex()
	o := &domain.Order{
		UserID:    userID,
		UserEmail: "a@x.com",
		Items: []domain.OrderItem{
			{ProductID: "P1", Name: "Pan", MRP: decimal.NewFromInt(1000), DiscountedPrice: decimal.NewFromInt(800), Quantity: 2},
		},
		ShippingInfo:   domain.ShippingInfo{FullName: "A", AddressLine1: "1 St", City: "Chennai", PostalCode: "600001"},
		DeliveryMethod: domain.DeliveryStandard,
		PaymentMethod:  domain.PaymentMethodCOD,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentResult:  &domain.PaymentResult{ID: "pay_1", Status: "pending"},
		Subtotal:       decimal.NewFromInt(1600),
		TotalPrice:     decimal.NewFromInt(1600),
		OrderStatus:    domain.OrderStatusProcessing,
		OrderReference: "ORD-1",
		HistoryPending: true,
		CreatedAt:      time.Now().UTC(),
	}

	doc := mapOrderToDoc(o)
	require.NotNil(t, doc.User)
	assert.Equal(t, userID, doc.User.Hex())

	back := mapOrderToDomain(&doc)
	assert.Equal(t, userID, back.UserID)
	assert.Equal(t, o.Items, back.Items)
	assert.Equal(t, o.ShippingInfo, back.ShippingInfo)
	assert.Equal(t, *o.PaymentResult, *back.PaymentResult)
	assert.True(t, back.HistoryPending)
}

func TestOrderMapping_GuestHasNoUser(t *testing.T) {
	doc := mapOrderToDoc(&domain.Order{UserEmail: "guest@x.com"})
	assert.Nil(t, doc.User)

	back := mapOrderToDomain(&doc)
	assert.True(t, back.IsGuest())
}

func TestObjectIDs_SkipsMalformed(t *testing.T) {
	good := primitive.NewObjectID()
	got := objectIDs([]string{good.Hex(), "not-an-id"})
	assert.Equal(t, []primitive.ObjectID{good}, got)
}
