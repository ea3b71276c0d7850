package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/telemetry"
)

// OrderService provides business logic for reading orders after checkout
// and moving them through their status machines.
type OrderService interface {
	// GetOrder returns ErrOrderNotYours when the order is bound to another
	// user and the caller is not an admin.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// GetOrdersForUser returns orders bound to the user or placed with their
	// email, newest first, and links any the history is missing.
	GetOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error)

	// ListOrders returns every order, newest first.
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateOrderStatus moves the order to status, applying the payment
	// coupling rules. Non-admin callers may only cancel their own orders.
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*StatusUpdate, error)

	// ReconcilePayment applies an asynchronous gateway outcome to the order
	// with the given reference. Only a pending payment moves; repeating the
	// current outcome is a no-op.
	ReconcilePayment(ctx context.Context, reference string, receipt domain.PaymentResult) (*domain.Order, error)

	// LinkOrderHistory appends the order to its owner's history and clears
	// the pending marker. Safe to repeat.
	LinkOrderHistory(ctx context.Context, orderID string) error

	// RepairOrderHistory links up to limit orders that have been pending for
	// longer than olderThan and reports how many it linked.
	RepairOrderHistory(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// StatusUpdate is the outcome of UpdateOrderStatus.
type StatusUpdate struct {
	ID            string               `json:"_id"`
	OrderStatus   domain.OrderStatus   `json:"orderStatus"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type orderService struct {
	orders domain.OrderStore
	users  domain.UserStore
	logger *slog.Logger
}

// NewOrderService creates a new OrderService instance
func NewOrderService(orders domain.OrderStore, users domain.UserStore, logger *slog.Logger) OrderService {
	return &orderService{orders: orders, users: users, logger: logger}
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	const op = "order.get"

	order, err := s.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrOrderNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}

	p := domain.PrincipalFromContext(ctx)
	if order.UserID != "" && p != nil && !p.Admin && p.UserID != order.UserID {
		return nil, domain.WithOp(ErrOrderNotYours, op)
	}
	return order, nil
}

func (s *orderService) GetOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const op = "order.list_for_user"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrUserNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}

	// The live query is authoritative: it also finds guest orders placed
	// with this email after the history was first filled.
	orders, err := s.orders.ListForUser(ctx, user.ID, user.Email)
	if err != nil {
		return nil, domain.WithOp(err, op)
	}

	linked := make(map[string]bool, len(user.OrderHistory))
	for _, id := range user.OrderHistory {
		linked[id] = true
	}

	var missing []string
	for _, o := range orders {
		if linked[o.ID] {
			delete(linked, o.ID)
			continue
		}
		missing = append(missing, o.ID)
	}

	// History entries the query no longer matches (the account email
	// changed) are still the user's orders.
	if len(linked) > 0 {
		rest := make([]string, 0, len(linked))
		for id := range linked {
			rest = append(rest, id)
		}
		extra, err := s.orders.GetByIDs(ctx, rest)
		if err != nil {
			return nil, domain.WithOp(err, op)
		}
		orders = append(orders, extra...)
		slices.SortStableFunc(orders, func(a, b domain.Order) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}

	if len(missing) > 0 {
		if err := s.users.AppendOrderHistory(ctx, user.ID, missing...); err != nil {
			s.logger.WarnContext(ctx, "failed to backfill order history",
				"user_id", user.ID,
				"orders", len(missing),
				"error", err,
			)
		} else if telemetry.Business != nil {
			telemetry.Business.HistoryLinked.WithLabelValues("backfill").Add(float64(len(missing)))
		}
	}

	if orders == nil {
		return []domain.Order{}, nil
	}
	return orders, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, domain.WithOp(err, "order.list")
	}
	return orders, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*StatusUpdate, error) {
	const op = "order.update_status"

	next := domain.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, domain.NewValidationError(op, "orderStatus", "must be one of: processing, shipped, delivered, cancelled")
	}

	order, err := s.orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrOrderNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}

	if p := domain.PrincipalFromContext(ctx); p != nil && !p.Admin {
		if !p.Owns(order.UserID, order.UserEmail) {
			return nil, domain.WithOp(ErrOrderNotYours, op)
		}
		if next != domain.OrderStatusCancelled {
			return nil, domain.WithOp(ErrOnlyCancelAllowed, op)
		}
	}

	if next == order.OrderStatus {
		return statusUpdateFor(order), nil
	}
	if !domain.CanTransition(order.OrderStatus, next) {
		return nil, domain.WithOp(ErrInvalidTransition, op)
	}

	change := domain.ApplyStatus(order.PaymentMethod, order.OrderStatus, order.PaymentStatus, next)
	if change.RefundRequired {
		s.logger.WarnContext(ctx, "paid order cancelled, refund required",
			"order_id", order.ID,
			"order_reference", order.OrderReference,
			"total", order.TotalPrice.String(),
		)
		if telemetry.Business != nil {
			telemetry.Business.RefundGaps.WithLabelValues(string(order.PaymentMethod)).Inc()
		}
	}

	now := time.Now().UTC()
	expect := domain.StatusPair{OrderStatus: order.OrderStatus, PaymentStatus: order.PaymentStatus}
	target := domain.StatusPair{OrderStatus: change.OrderStatus, PaymentStatus: change.PaymentStatus}
	if err := s.orders.UpdateStatus(ctx, order.ID, expect, target, now); err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			return nil, domain.WithOp(ErrConcurrentModification, op)
		}
		return nil, domain.WithOp(err, op)
	}

	s.logger.InfoContext(ctx, "order status updated",
		"order_id", order.ID,
		"from", order.OrderStatus,
		"to", change.OrderStatus,
		"payment_status", change.PaymentStatus,
	)
	telemetry.Breadcrumb(ctx, "order", "order status updated", map[string]interface{}{
		"order_id": order.ID,
		"from":     string(order.OrderStatus),
		"to":       string(change.OrderStatus),
	})
	if telemetry.Business != nil {
		telemetry.Business.OrderStatusTransitions.WithLabelValues(string(order.OrderStatus), string(change.OrderStatus)).Inc()
	}

	return &StatusUpdate{
		ID:            order.ID,
		OrderStatus:   change.OrderStatus,
		PaymentStatus: change.PaymentStatus,
		UpdatedAt:     now,
	}, nil
}

func statusUpdateFor(o *domain.Order) *StatusUpdate {
	return &StatusUpdate{
		ID:            o.ID,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (s *orderService) ReconcilePayment(ctx context.Context, reference string, receipt domain.PaymentResult) (*domain.Order, error) {
	const op = "order.reconcile_payment"

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.NewValidationError(op, "orderReference", "is required")
	}

	order, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrOrderNotFound, op)
		}
		return nil, domain.WithOp(err, op)
	}

	target := domain.PaymentStatusForReceipt(receipt.Status)
	if target == order.PaymentStatus || target == domain.PaymentStatusPending {
		recordReconciliation("noop")
		return order, nil
	}
	if !domain.CanTransitionPayment(order.PaymentStatus, target) {
		s.logger.WarnContext(ctx, "gateway outcome contradicts settled payment",
			"order_id", order.ID,
			"payment_status", order.PaymentStatus,
			"gateway_status", receipt.Status,
		)
		recordReconciliation("conflict")
		return nil, domain.WithOp(ErrPaymentAlreadySettled, op)
	}

	now := time.Now().UTC()
	if receipt.UpdateTime == "" {
		receipt.UpdateTime = now.Format(time.RFC3339)
	}
	if receipt.EmailAddress == "" {
		receipt.EmailAddress = order.UserEmail
	}
	if err := s.orders.UpdatePayment(ctx, order.ID, order.PaymentStatus, target, &receipt, now); err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			recordReconciliation("conflict")
			return nil, domain.WithOp(ErrConcurrentModification, op)
		}
		return nil, domain.WithOp(err, op)
	}

	s.logger.InfoContext(ctx, "payment reconciled",
		"order_id", order.ID,
		"order_reference", reference,
		"from", order.PaymentStatus,
		"to", target,
	)
	telemetry.Breadcrumb(ctx, "payment", "payment reconciled", map[string]interface{}{
		"order_reference": reference,
		"from":            string(order.PaymentStatus),
		"to":              string(target),
	})
	recordReconciliation("updated")

	order.PaymentStatus = target
	order.PaymentResult = &receipt
	order.UpdatedAt = now
	return order, nil
}

func recordReconciliation(result string) {
	if telemetry.Business != nil {
		telemetry.Business.PaymentReconciliations.WithLabelValues(result).Inc()
	}
}

func (s *orderService) LinkOrderHistory(ctx context.Context, orderID string) error {
	const op = "order.link_history"

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return domain.WithOp(ErrOrderNotFound, op)
		}
		return domain.WithOp(err, op)
	}
	return domain.WithOp(s.link(ctx, order, "event"), op)
}

func (s *orderService) link(ctx context.Context, order *domain.Order, path string) error {
	if order.UserID != "" {
		err := s.users.AppendOrderHistory(ctx, order.UserID, order.ID)
		switch {
		case err == nil:
			if telemetry.Business != nil {
				telemetry.Business.HistoryLinked.WithLabelValues(path).Inc()
			}
		case domain.IsCode(err, domain.ENOTFOUND):
			// Owner deleted since checkout; nothing left to link.
			s.logger.InfoContext(ctx, "order owner no longer exists",
				"order_id", order.ID,
				"user_id", order.UserID,
			)
		default:
			return err
		}
	}
	return s.orders.MarkHistoryLinked(ctx, order.ID)
}

func (s *orderService) RepairOrderHistory(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	const op = "order.repair_history"

	pending, err := s.orders.ListHistoryPending(ctx, time.Now().UTC().Add(-olderThan), limit)
	if err != nil {
		return 0, domain.WithOp(err, op)
	}

	var errs []error
	linked := 0
	for i := range pending {
		if err := s.link(ctx, &pending[i], "repair"); err != nil {
			s.logger.ErrorContext(ctx, "failed to repair order history",
				"order_id", pending[i].ID,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		linked++
	}

	if linked > 0 {
		s.logger.InfoContext(ctx, "repaired order history", "linked", linked)
	}
	if err := errors.Join(errs...); err != nil {
		return linked, domain.WithOp(err, op)
	}
	return linked, nil
}
