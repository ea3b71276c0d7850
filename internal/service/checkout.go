package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/billing"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/events"
	"github.com/dukerupert/balaguruva/internal/shipping"
	"github.com/dukerupert/balaguruva/internal/telemetry"
	"github.com/dukerupert/balaguruva/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	guestUserName      = "Guest User"
	registeredUserName = "Registered User"
)

// CheckoutService turns a checkout submission into an order.
type CheckoutService interface {
	// CreateOrder validates the submission, recomputes its totals, derives the
	// payment status and persists the order.
	//
	// A client-supplied OrderReference is an idempotency key: resubmitting it
	// with the same email returns the stored order with Created=false.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	UserID         string                `json:"userId"`
	UserEmail      string                `json:"userEmail" validate:"required,email"`
	UserName       string                `json:"userName"`
	OrderItems     []OrderItemInput      `json:"orderItems" validate:"required,min=1,dive"`
	ShippingInfo   *domain.ShippingInfo  `json:"shippingInfo" validate:"required"`
	DeliveryMethod domain.DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=standard express"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod" validate:"required,oneof=razorpay cod"`
	PaymentResult  *domain.PaymentResult `json:"paymentResult"`
	Subtotal       *decimal.Decimal      `json:"subtotal" validate:"required,gte=0"`
	DeliveryPrice  *decimal.Decimal      `json:"deliveryPrice" validate:"omitempty,gte=0"`
	TotalPrice     *decimal.Decimal      `json:"totalPrice" validate:"required,gte=0"`
	OrderReference string                `json:"orderReference" validate:"omitempty,max=64"`
	Notes          string                `json:"notes" validate:"max=1000"`

	// CartKey is the key the checked-out cart is stored under when it is
	// not the order email, as for a guest key.
	CartKey string `json:"cartKey" validate:"max=128"`
}

// OrderItemInput is one line of the checkout payload.
type OrderItemInput struct {
	ProductID       string           `json:"productId"`
	Name            string           `json:"name" validate:"notblank"`
	MRP             *decimal.Decimal `json:"mrp" validate:"required,gte=0"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice" validate:"required,gte=0"`
	Quantity        int              `json:"quantity" validate:"required,gte=1"`
	Image           string           `json:"image"`
}

// CreateOrderResult is returned by CreateOrder. Created is false when an
// existing order was returned for a repeated reference.
type CreateOrderResult struct {
	Order          *domain.Order
	OrderReference string
	Created        bool
}

// CheckoutOptions tunes order creation.
type CheckoutOptions struct {
	// TotalTolerance is the largest accepted difference between client and
	// server totals.
	TotalTolerance decimal.Decimal

	// PaymentTimeout bounds a gateway verification call.
	PaymentTimeout time.Duration
}

type checkoutService struct {
	orders   domain.OrderStore
	carts    domain.CartStore
	catalog  catalog
	identity IdentityResolver
	rates    shipping.Provider
	verifier billing.Verifier
	bus      events.Bus
	opts     CheckoutOptions
	logger   *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(
	orders domain.OrderStore,
	carts domain.CartStore,
	catalog catalog,
	identity IdentityResolver,
	rates shipping.Provider,
	verifier billing.Verifier,
	bus events.Bus,
	opts CheckoutOptions,
	logger *slog.Logger,
) CheckoutService {
	if opts.TotalTolerance.IsZero() {
		opts.TotalTolerance = decimal.RequireFromString("0.01")
	}
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = 10 * time.Second
	}
	return &checkoutService{
		orders:   orders,
		carts:    carts,
		catalog:  catalog,
		identity: identity,
		rates:    rates,
		verifier: verifier,
		bus:      bus,
		opts:     opts,
		logger:   logger,
	}
}

func (s *checkoutService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	const op = "order.create"

	if err := validation.Struct(op, input); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.UserEmail)
	reference := strings.TrimSpace(input.OrderReference)

	if reference != "" {
		if res, err := s.replay(ctx, op, reference, email); res != nil || err != nil {
			return res, err
		}
	}

	// 1. Resolve owner
	// A signed-in customer always orders as themselves; only admins may
	// place an order on behalf of another account.
	userID := strings.TrimSpace(input.UserID)
	if p := domain.PrincipalFromContext(ctx); p != nil && (!p.Admin || userID == "") {
		userID = p.UserID
	}
	owner, err := s.identity.ResolveOwner(ctx, userID, email)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	// 2. Snapshot items against the catalog
	items, err := s.snapshot(ctx, op, input.OrderItems)
	if err != nil {
		return nil, err
	}

	// 3. Recompute totals
	rate, err := s.rates.Quote(ctx, input.DeliveryMethod)
	if err != nil {
		return nil, domain.NewValidationError(op, "deliveryMethod", "is not offered")
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	total := subtotal.Add(rate.Cost)

	if err := s.checkTotals(op, input, subtotal, rate.Cost, total); err != nil {
		return nil, err
	}

	// 4. Derive payment status
	now := time.Now().UTC()
	receipt := withReceiptDefaults(input.PaymentResult, email, now)
	paymentStatus, err := s.paymentStatus(ctx, op, input.PaymentMethod, receipt)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserEmail:      email,
		UserName:       strings.TrimSpace(input.UserName),
		Items:          items,
		ShippingInfo:   *input.ShippingInfo,
		DeliveryMethod: input.DeliveryMethod,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  paymentStatus,
		PaymentResult:  receipt,
		Subtotal:       subtotal,
		DeliveryPrice:  rate.Cost,
		TotalPrice:     total,
		OrderStatus:    domain.OrderStatusProcessing,
		OrderReference: reference,
		Notes:          strings.TrimSpace(input.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if owner != nil {
		order.UserID = owner.ID
		order.HistoryPending = true
	}
	if order.UserName == "" {
		order.UserName = guestUserName
		if owner != nil {
			order.UserName = registeredUserName
		}
	}

	// 5. Persist
	if res, err := s.persist(ctx, op, order, reference != ""); res != nil || err != nil {
		return res, err
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_reference", order.OrderReference,
		"user_id", order.UserID,
		"payment_method", order.PaymentMethod,
		"payment_status", order.PaymentStatus,
		"total", order.TotalPrice.String(),
	)

	telemetry.Breadcrumb(ctx, "order", "order created", map[string]interface{}{
		"order_id":        order.ID,
		"order_reference": order.OrderReference,
		"payment_status":  string(order.PaymentStatus),
	})
	if telemetry.Business != nil {
		method := string(order.PaymentMethod)
		telemetry.Business.OrdersCreated.WithLabelValues(method, string(order.PaymentStatus)).Inc()
		telemetry.Business.OrderValue.WithLabelValues(method).Observe(order.TotalPrice.InexactFloat64())
		telemetry.Business.OrderItemCount.WithLabelValues(method).Observe(float64(order.ItemCount()))
	}

	// 6. Side effects: outbox event and cart clear. Neither fails the order.
	s.publishCreated(ctx, order)
	if order.PaymentStatus != domain.PaymentStatusFailed {
		keys := []string{email, input.CartKey}
		if owner != nil {
			keys = append(keys, owner.Email)
		}
		s.clearCart(ctx, keys...)
	}

	return &CreateOrderResult{Order: order, OrderReference: order.OrderReference, Created: true}, nil
}

// replay returns the stored order for a repeated reference, nil when the
// reference is unused.
func (s *checkoutService) replay(ctx context.Context, op, reference, email string) (*CreateOrderResult, error) {
	existing, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, nil
		}
		return nil, domain.WithOp(err, op)
	}

	if domain.NormalizeEmail(existing.UserEmail) != email {
		return nil, domain.WithOp(ErrOrderReferenceTaken, op)
	}

	s.logger.InfoContext(ctx, "returning existing order for repeated reference",
		"order_id", existing.ID,
		"order_reference", reference,
	)
	if telemetry.Business != nil {
		telemetry.Business.OrderReplays.WithLabelValues().Inc()
	}
	return &CreateOrderResult{Order: existing, OrderReference: existing.OrderReference, Created: false}, nil
}

// persist inserts the order. A client reference that loses an insert race is
// replayed; a generated reference is regenerated once.
func (s *checkoutService) persist(ctx context.Context, op string, order *domain.Order, clientReference bool) (*CreateOrderResult, error) {
	attempts := 1
	if !clientReference {
		attempts = 2
	}

	for i := 0; i < attempts; i++ {
		if !clientReference {
			order.OrderReference = NewOrderReference(order.CreatedAt)
		}

		err := s.orders.Create(ctx, order)
		if err == nil {
			return nil, nil
		}
		if !domain.IsCode(err, domain.ECONFLICT) {
			return nil, domain.WithOp(err, op)
		}

		if clientReference {
			res, rerr := s.replay(ctx, op, order.OrderReference, order.UserEmail)
			if rerr != nil {
				return nil, rerr
			}
			if res != nil {
				return res, nil
			}
		}
		s.logger.WarnContext(ctx, "order reference collision",
			"order_reference", order.OrderReference,
			"attempt", i+1,
		)
	}
	return nil, domain.WithOp(ErrOrderReferenceTaken, op)
}

// snapshot freezes each line. Lines naming a catalog product take the
// catalog's name, prices and image.
func (s *checkoutService) snapshot(ctx context.Context, op string, lines []OrderItemInput) ([]domain.OrderItem, error) {
	var byID map[string]domain.Product
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) != "" {
			products, err := s.catalog.ListProducts(ctx)
			if err != nil {
				return nil, domain.WithOp(err, op)
			}
			byID = make(map[string]domain.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}
			break
		}
	}

	var verr error
	items := make([]domain.OrderItem, 0, len(lines))
	for i, l := range lines {
		item := domain.OrderItem{
			ProductID:       strings.TrimSpace(l.ProductID),
			Name:            strings.TrimSpace(l.Name),
			MRP:             *l.MRP,
			DiscountedPrice: *l.DiscountedPrice,
			Quantity:        l.Quantity,
			Image:           l.Image,
		}
		if item.ProductID != "" {
			p, ok := byID[item.ProductID]
			if !ok {
				verr = domain.AddFieldError(verr, orderItemField(i, "productId"), "is not in the catalog")
				continue
			}
			item.Name = p.Name
			item.MRP = p.MRP
			item.DiscountedPrice = p.DiscountedPrice
			if p.Image != "" {
				item.Image = p.Image
			}
		}
		items = append(items, item)
	}

	if verr != nil {
		return nil, withValidationOp(verr, op)
	}
	return items, nil
}

func (s *checkoutService) checkTotals(op string, input CreateOrderInput, subtotal, delivery, total decimal.Decimal) error {
	var verr error
	if !withinTolerance(*input.Subtotal, subtotal, s.opts.TotalTolerance) {
		verr = domain.AddFieldError(verr, "subtotal", "does not match "+subtotal.StringFixed(2))
	}
	if input.DeliveryPrice != nil && !withinTolerance(*input.DeliveryPrice, delivery, s.opts.TotalTolerance) {
		verr = domain.AddFieldError(verr, "deliveryPrice", "does not match "+delivery.StringFixed(2))
	}
	if !withinTolerance(*input.TotalPrice, total, s.opts.TotalTolerance) {
		verr = domain.AddFieldError(verr, "totalPrice", "does not match "+total.StringFixed(2))
	}
	if verr != nil {
		return withValidationOp(verr, op)
	}
	return nil
}

// paymentStatus derives the initial payment status. A gateway receipt
// claiming success must carry a valid signature; an invalid one fails the
// payment and an unreachable verifier fails the checkout.
func (s *checkoutService) paymentStatus(ctx context.Context, op string, method domain.PaymentMethod, receipt *domain.PaymentResult) (domain.PaymentStatus, error) {
	status := domain.InitialPaymentStatus(method, receipt)
	if method != domain.PaymentMethodRazorpay || status != domain.PaymentStatusCompleted {
		return status, nil
	}

	vctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()

	ok, err := s.verifier.VerifyPayment(vctx, *receipt)
	if err != nil {
		s.logger.ErrorContext(ctx, "payment verification unavailable",
			"payment_id", receipt.ID,
			"error", err,
		)
		recordVerification("error")
		return "", domain.PaymentFailed(err, op, domain.ErrorMessage(ErrPaymentUnavailable))
	}
	if !ok {
		s.logger.WarnContext(ctx, "payment signature rejected",
			"payment_id", receipt.ID,
			"gateway_order_id", receipt.GatewayOrderID,
		)
		recordVerification("invalid")
		return domain.PaymentStatusFailed, nil
	}

	recordVerification("valid")
	return domain.PaymentStatusCompleted, nil
}

func (s *checkoutService) publishCreated(ctx context.Context, order *domain.Order) {
	env, err := events.NewEnvelope(events.EventOrderCreated, domain.RequestIDFromContext(ctx), events.OrderCreatedPayload{
		OrderID:        order.ID,
		OrderReference: order.OrderReference,
		UserID:         order.UserID,
		UserEmail:      order.UserEmail,
		TotalPrice:     order.TotalPrice,
		PaymentMethod:  string(order.PaymentMethod),
	})
	if err == nil {
		err = s.bus.Publish(ctx, events.SubjectOrderCreated, env)
	}

	result := "ok"
	if err != nil {
		result = "error"
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			"order_id", order.ID,
			"error", err,
		)
	}
	if telemetry.Business != nil {
		telemetry.Business.EventsPublished.WithLabelValues(events.EventOrderCreated, result).Inc()
	}
}

// clearCart deletes the carts stored under keys. A signed-in customer's
// request never clears a cart that resolves to someone else.
func (s *checkoutService) clearCart(ctx context.Context, keys ...string) {
	p := domain.PrincipalFromContext(ctx)
	seen := make(map[string]bool, len(keys))

	for _, raw := range keys {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		key, err := s.identity.CartKey(ctx, raw)
		if err == nil && seen[key] {
			continue
		}
		if err == nil && p != nil && !p.Admin && !p.Owns(key, key) {
			continue
		}
		if err == nil {
			seen[key] = true
			err = s.carts.Delete(ctx, key)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "failed to clear cart after checkout",
				"user_key", raw,
				"error", err,
			)
			continue
		}
		if telemetry.Business != nil {
			telemetry.Business.CartCleared.WithLabelValues("checkout").Inc()
		}
	}
}

// NewOrderReference returns a display reference of the form
// ORD-YYYYMMDD-XXXXXXXX. The suffix comes from a random UUID; the store's
// unique index on the reference catches the rare collision.
func NewOrderReference(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + at.UTC().Format("20060102") + "-" + suffix
}

// withReceiptDefaults copies the receipt and fills the fields the client may omit.
func withReceiptDefaults(in *domain.PaymentResult, email string, now time.Time) *domain.PaymentResult {
	if in == nil {
		return nil
	}
	out := *in
	if out.Status == "" {
		out.Status = domain.ReceiptStatusPending
	}
	if out.UpdateTime == "" {
		out.UpdateTime = now.Format(time.RFC3339)
	}
	if out.EmailAddress == "" {
		out.EmailAddress = email
	}
	return &out
}

func withinTolerance(got, want, tolerance decimal.Decimal) bool {
	return got.Sub(want).Abs().LessThanOrEqual(tolerance)
}

func orderItemField(i int, field string) string {
	return "orderItems[" + strconv.Itoa(i) + "]." + field
}

func withValidationOp(err error, op string) error {
	if ve, ok := err.(*domain.ValidationError); ok {
		ve.Op = op
	}
	return err
}

func recordVerification(result string) {
	if telemetry.Business != nil {
		telemetry.Business.PaymentVerifications.WithLabelValues(result).Inc()
	}
}
