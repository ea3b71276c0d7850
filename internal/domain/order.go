package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER DOMAIN TYPES
// =============================================================================

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
)

// DeliveryMethod selects the delivery price tier.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
)

// Gateway receipt statuses as reported by the client or webhook.
const (
	ReceiptStatusSuccess = "success"
	ReceiptStatusFailed  = "failed"
	ReceiptStatusPending = "pending"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true},
	OrderStatusShipped:    {OrderStatusDelivered: true, OrderStatusCancelled: true},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending:   {PaymentStatusCompleted: true, PaymentStatusFailed: true},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodRazorpay || m == PaymentMethodCOD
}

// Valid reports whether m is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryStandard || m == DeliveryExpress
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return orderTransitions[from][to]
}

// CanTransitionPayment reports whether a payment may move from one status to another.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return paymentTransitions[from][to]
}

// PaymentStatusForReceipt maps a gateway receipt status onto a payment status.
// Anything other than success or failed stays pending.
func PaymentStatusForReceipt(status string) PaymentStatus {
	switch strings.ToLower(status) {
	case ReceiptStatusSuccess:
		return PaymentStatusCompleted
	case ReceiptStatusFailed:
		return PaymentStatusFailed
	default:
		return PaymentStatusPending
	}
}

// InitialPaymentStatus derives the payment status of a new order.
//
// With a receipt attached the receipt decides. Without one, cash on delivery
// starts pending and a gateway order is treated as failed: a gateway checkout
// that reaches order creation without a receipt never completed payment.
func InitialPaymentStatus(method PaymentMethod, receipt *PaymentResult) PaymentStatus {
	if receipt != nil {
		return PaymentStatusForReceipt(receipt.Status)
	}
	if method == PaymentMethodCOD {
		return PaymentStatusPending
	}
	return PaymentStatusFailed
}

// StatusChange is the outcome of applying an order status transition.
type StatusChange struct {
	OrderStatus   OrderStatus
	PaymentStatus PaymentStatus

	// RefundRequired is set when a paid order is cancelled. Refunds are not
	// modelled; the caller must surface it.
	RefundRequired bool
}

// ApplyStatus computes the coupled order/payment status for moving an order to next.
//
// Delivering a pending cash-on-delivery order collects its payment. Cancelling
// an order with a pending payment fails the payment. Cancelling a completed
// payment leaves it completed and flags a refund.
func ApplyStatus(method PaymentMethod, current OrderStatus, payment PaymentStatus, next OrderStatus) StatusChange {
	change := StatusChange{OrderStatus: next, PaymentStatus: payment}

	switch next {
	case OrderStatusDelivered:
		if method == PaymentMethodCOD && payment == PaymentStatusPending {
			change.PaymentStatus = PaymentStatusCompleted
		}
	case OrderStatusCancelled:
		switch payment {
		case PaymentStatusPending:
			change.PaymentStatus = PaymentStatusFailed
		case PaymentStatusCompleted:
			change.RefundRequired = current != OrderStatusCancelled
		}
	}

	return change
}

// ShippingInfo is the delivery address of an order.
type ShippingInfo struct {
	FullName     string `json:"fullName" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
}

// PaymentResult is the gateway receipt attached to an order.
type PaymentResult struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	UpdateTime     string `json:"update_time"`
	EmailAddress   string `json:"email_address"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	Signature      string `json:"signature,omitempty"`
}

// OrderItem is a frozen snapshot of a purchased line. It never references the
// live catalog entry, so later price changes do not affect the order.
type OrderItem struct {
	ProductID       string          `json:"productId,omitempty"`
	Name            string          `json:"name"`
	MRP             decimal.Decimal `json:"mrp"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	Quantity        int             `json:"quantity"`
	Image           string          `json:"image"`
}

// LineTotal returns discountedPrice × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.DiscountedPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a purchase. Only OrderStatus, PaymentStatus, PaymentResult and
// HistoryPending change after creation.
type Order struct {
	ID             string          `json:"_id"`
	UserID         string          `json:"user,omitempty"`
	UserEmail      string          `json:"userEmail"`
	UserName       string          `json:"userName"`
	Items          []OrderItem     `json:"orderItems"`
	ShippingInfo   ShippingInfo    `json:"shippingInfo"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	PaymentResult  *PaymentResult  `json:"paymentResult,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryPrice  decimal.Decimal `json:"deliveryPrice"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	OrderStatus    OrderStatus     `json:"orderStatus"`
	OrderReference string          `json:"orderReference"`
	Notes          string          `json:"notes,omitempty"`
	HistoryPending bool            `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsGuest reports whether the order is bound to no user account.
func (o *Order) IsGuest() bool {
	return o.UserID == ""
}

// ItemCount returns the total quantity across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, i := range o.Items {
		n += i.Quantity
	}
	return n
}

// StatusPair is the mutable state of an order, used for compare-and-set updates.
type StatusPair struct {
	OrderStatus   OrderStatus
	PaymentStatus PaymentStatus
}

// OrderStore persists orders.
type OrderStore interface {
	// Create inserts the order and assigns its ID.
	// Returns ECONFLICT if the order reference already exists.
	Create(ctx context.Context, o *Order) error

	// GetByID returns ENOTFOUND when absent (including malformed ids).
	GetByID(ctx context.Context, id string) (*Order, error)

	// GetByReference returns ENOTFOUND when absent.
	GetByReference(ctx context.Context, reference string) (*Order, error)

	// GetByIDs returns the orders that exist among ids, newest first.
	GetByIDs(ctx context.Context, ids []string) ([]Order, error)

	// ListForUser returns orders bound to userID or placed with email, newest first.
	ListForUser(ctx context.Context, userID, email string) ([]Order, error)

	// List returns every order, newest first.
	List(ctx context.Context) ([]Order, error)

	// UpdateStatus moves the order from expect to next. Returns ENOTFOUND if
	// the order is absent and ECONFLICT if its state no longer matches expect.
	UpdateStatus(ctx context.Context, id string, expect, next StatusPair, at time.Time) error

	// UpdatePayment moves the payment from expect to next and records the
	// receipt. Returns ENOTFOUND or ECONFLICT like UpdateStatus.
	UpdatePayment(ctx context.Context, id string, expect, next PaymentStatus, receipt *PaymentResult, at time.Time) error

	// MarkHistoryLinked clears HistoryPending.
	MarkHistoryLinked(ctx context.Context, id string) error

	// ListHistoryPending returns up to limit user-bound orders created before
	// the cutoff whose history link has not been recorded.
	ListHistoryPending(ctx context.Context, before time.Time, limit int) ([]Order, error)
}
