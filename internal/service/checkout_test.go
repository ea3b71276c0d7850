package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panOrderInput(email string, delivery domain.DeliveryMethod, total string) CreateOrderInput {
	return CreateOrderInput{
		UserEmail: email,
		OrderItems: []OrderItemInput{{
			ProductID:       "P1",
			Name:            "Pan",
			MRP:             dec("1000"),
			DiscountedPrice: dec("800"),
			Quantity:        2,
			Image:           "pan.jpg",
		}},
		ShippingInfo: &domain.ShippingInfo{
			FullName:     "Asha",
			AddressLine1: "12 MG Road",
			City:         "Chennai",
			PostalCode:   "600001",
		},
		DeliveryMethod: delivery,
		PaymentMethod:  domain.PaymentMethodCOD,
		Subtotal:       dec("1600"),
		TotalPrice:     dec(total),
	}
}

func TestCreateOrder_Totals(t *testing.T) {
	tests := []struct {
		name         string
		delivery     domain.DeliveryMethod
		total        string
		wantDelivery string
		wantTotal    string
	}{
		{"standard delivery is free", domain.DeliveryStandard, "1600", "0", "1600"},
		{"express delivery costs 100", domain.DeliveryExpress, "1700", "100", "1700"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedPan(t)

			res, err := f.checkout.CreateOrder(context.Background(), panOrderInput("a@x.com", tt.delivery, tt.total))
			require.NoError(t, err)
			require.True(t, res.Created)

			o := res.Order
			assert.Equal(t, "1600", o.Subtotal.String())
			assert.Equal(t, tt.wantDelivery, o.DeliveryPrice.String())
			assert.Equal(t, tt.wantTotal, o.TotalPrice.String())
			assert.True(t, o.TotalPrice.Equal(o.Subtotal.Add(o.DeliveryPrice)))
			assert.Equal(t, domain.OrderStatusProcessing, o.OrderStatus)
			assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
			assert.Equal(t, "Guest User", o.UserName)
			assert.Equal(t, res.OrderReference, o.OrderReference)
		})
	}
}

func TestCreateOrder_RejectsDisagreeingTotals(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	in := panOrderInput("a@x.com", domain.DeliveryExpress, "1600")
	_, err := f.checkout.CreateOrder(context.Background(), in)

	require.Error(t, err)
	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "totalPrice")
	assert.NotContains(t, fields, "subtotal")

	orders, _ := f.store.Orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestCreateOrder_ToleratesRounding(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600.01")
	res, err := f.checkout.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "1600", res.Order.TotalPrice.String())
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	tests := []struct {
		name      string
		mutate    func(*CreateOrderInput)
		wantField string
	}{
		{"missing email", func(in *CreateOrderInput) { in.UserEmail = "" }, "userEmail"},
		{"no items", func(in *CreateOrderInput) { in.OrderItems = nil }, "orderItems"},
		{"missing shipping", func(in *CreateOrderInput) { in.ShippingInfo = nil }, "shippingInfo"},
		{"missing city", func(in *CreateOrderInput) { in.ShippingInfo.City = "" }, "shippingInfo.city"},
		{"bad delivery", func(in *CreateOrderInput) { in.DeliveryMethod = "drone" }, "deliveryMethod"},
		{"missing payment method", func(in *CreateOrderInput) { in.PaymentMethod = "" }, "paymentMethod"},
		{"missing subtotal", func(in *CreateOrderInput) { in.Subtotal = nil }, "subtotal"},
		{"missing total", func(in *CreateOrderInput) { in.TotalPrice = nil }, "totalPrice"},
		{"zero quantity", func(in *CreateOrderInput) { in.OrderItems[0].Quantity = 0 }, "orderItems[0].quantity"},
		{"unknown product", func(in *CreateOrderInput) { in.OrderItems[0].ProductID = "P9" }, "orderItems[0].productId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
			tt.mutate(&in)

			_, err := f.checkout.CreateOrder(context.Background(), in)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Contains(t, domain.GetValidationFields(err), tt.wantField)
		})
	}

	orders, _ := f.store.Orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestCreateOrder_SnapshotsCatalogPrices(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
	in.OrderItems[0].DiscountedPrice = dec("1")
	in.OrderItems[0].Name = "Cheap Pan"

	res, err := f.checkout.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	item := res.Order.Items[0]
	assert.Equal(t, "Pan", item.Name)
	assert.Equal(t, "800", item.DiscountedPrice.String())
	assert.Equal(t, "1000", item.MRP.String())
}

func TestCreateOrder_PaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		method  domain.PaymentMethod
		receipt *domain.PaymentResult
		verify  func(context.Context, domain.PaymentResult) (bool, error)
		want    domain.PaymentStatus
	}{
		{"cod without receipt is pending", domain.PaymentMethodCOD, nil, nil, domain.PaymentStatusPending},
		{"razorpay without receipt is failed", domain.PaymentMethodRazorpay, nil, nil, domain.PaymentStatusFailed},
		{"razorpay verified success is completed", domain.PaymentMethodRazorpay,
			&domain.PaymentResult{ID: "pay_1", Status: "success", GatewayOrderID: "order_1", Signature: "sig"}, nil,
			domain.PaymentStatusCompleted},
		{"razorpay bad signature is failed", domain.PaymentMethodRazorpay,
			&domain.PaymentResult{ID: "pay_1", Status: "success"},
			func(context.Context, domain.PaymentResult) (bool, error) { return false, nil },
			domain.PaymentStatusFailed},
		{"failed receipt is failed", domain.PaymentMethodRazorpay,
			&domain.PaymentResult{ID: "pay_1", Status: "failed"}, nil, domain.PaymentStatusFailed},
		{"unknown receipt status stays pending", domain.PaymentMethodRazorpay,
			&domain.PaymentResult{ID: "pay_1", Status: "authorized"}, nil, domain.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedPan(t)
			f.verifier.VerifyPaymentFunc = tt.verify

			in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
			in.PaymentMethod = tt.method
			in.PaymentResult = tt.receipt

			res, err := f.checkout.CreateOrder(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Order.PaymentStatus)
		})
	}
}

func TestCreateOrder_ReceiptDefaults(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	in := panOrderInput("A@X.com", domain.DeliveryStandard, "1600")
	in.PaymentResult = &domain.PaymentResult{ID: "pay_1"}

	res, err := f.checkout.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	pr := res.Order.PaymentResult
	require.NotNil(t, pr)
	assert.Equal(t, domain.ReceiptStatusPending, pr.Status)
	assert.Equal(t, "a@x.com", pr.EmailAddress)
	assert.NotEmpty(t, pr.UpdateTime)
}

func TestCreateOrder_VerifierUnavailableWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	f.verifier.VerifyPaymentFunc = func(context.Context, domain.PaymentResult) (bool, error) {
		return false, context.DeadlineExceeded
	}

	in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
	in.PaymentMethod = domain.PaymentMethodRazorpay
	in.PaymentResult = &domain.PaymentResult{ID: "pay_1", Status: "success"}

	_, err := f.checkout.CreateOrder(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	assert.ErrorIs(t, err, ErrPaymentUnavailable)

	orders, _ := f.store.Orders.List(context.Background())
	assert.Empty(t, orders)
	assert.Empty(t, f.bus.Published())
}

func TestCreateOrder_IdempotentReference(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	ctx := context.Background()

	in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
	in.OrderReference = "client-ref-1"

	first, err := f.checkout.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := f.checkout.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	orders, _ := f.store.Orders.List(ctx)
	assert.Len(t, orders, 1)

	other := panOrderInput("b@x.com", domain.DeliveryStandard, "1600")
	other.OrderReference = "client-ref-1"
	_, err = f.checkout.CreateOrder(ctx, other)
	assert.ErrorIs(t, err, ErrOrderReferenceTaken)
}

func TestCreateOrder_GeneratedReference(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)

	res, err := f.checkout.CreateOrder(context.Background(), panOrderInput("a@x.com", domain.DeliveryStandard, "1600"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), res.OrderReference)
	assert.Contains(t, res.OrderReference, time.Now().UTC().Format("20060102"))
}

func TestCreateOrder_BindsOwnerAndPublishes(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	u := f.seedUser(t, "a@x.com")
	ctx := context.Background()

	_, err := f.carts.Add(ctx, "a@x.com", CartItemInput{
		ProductID: "P1", Name: "Pan", Image: "pan.jpg", MRP: dec("1000"), DiscountedPrice: dec("800"), Quantity: 2,
	})
	require.NoError(t, err)

	res, err := f.checkout.CreateOrder(ctx, panOrderInput("A@x.com", domain.DeliveryStandard, "1600"))
	require.NoError(t, err)

	assert.Equal(t, u.ID, res.Order.UserID)
	assert.Equal(t, "Registered User", res.Order.UserName)
	assert.True(t, res.Order.HistoryPending)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventOrderCreated, published[0].EventType)

	var payload events.OrderCreatedPayload
	require.NoError(t, published[0].Decode(&payload))
	assert.Equal(t, res.Order.ID, payload.OrderID)
	assert.Equal(t, u.ID, payload.UserID)

	cart, err := f.carts.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreateOrder_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	f.bus.PublishErr = errors.New("nats down")

	res, err := f.checkout.CreateOrder(context.Background(), panOrderInput("a@x.com", domain.DeliveryStandard, "1600"))
	require.NoError(t, err)

	stored, err := f.store.Orders.GetByID(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.OrderReference, stored.OrderReference)
}

func TestCreateOrder_CustomerCannotBindAnotherAccount(t *testing.T) {
	f := newFixture(t)
	f.seedPan(t)
	caller := f.seedUser(t, "a@x.com")
	other := f.seedUser(t, "b@x.com")

	in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
	in.UserID = other.ID

	res, err := f.checkout.CreateOrder(asUser(caller), in)
	require.NoError(t, err)
	assert.Equal(t, caller.ID, res.Order.UserID)

	res, err = f.checkout.CreateOrder(asAdmin(), in)
	require.NoError(t, err)
	assert.Equal(t, other.ID, res.Order.UserID)
}

func TestCreateOrder_CartClearing(t *testing.T) {
	line := CartItemInput{
		ProductID: "P1", Name: "Pan", Image: "pan.jpg", MRP: dec("1000"), DiscountedPrice: dec("800"), Quantity: 2,
	}

	tests := []struct {
		name      string
		cartKey   string
		method    domain.PaymentMethod
		wantEmpty bool
	}{
		{"cod order clears email cart", "a@x.com", domain.PaymentMethodCOD, true},
		{"guest key cart is cleared", "guest-42", domain.PaymentMethodCOD, true},
		{"failed payment keeps cart for retry", "a@x.com", domain.PaymentMethodRazorpay, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedPan(t)
			ctx := context.Background()

			_, err := f.carts.Add(ctx, tt.cartKey, line)
			require.NoError(t, err)

			in := panOrderInput("a@x.com", domain.DeliveryStandard, "1600")
			in.PaymentMethod = tt.method
			in.CartKey = tt.cartKey

			_, err = f.checkout.CreateOrder(ctx, in)
			require.NoError(t, err)

			cart, err := f.carts.Get(ctx, tt.cartKey)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmpty, len(cart.Items) == 0)
		})
	}
}
