package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for storefront observability.
type BusinessMetrics struct {
	// Cart
	CartItemsAdded      *prometheus.CounterVec
	CartItemsRemoved    *prometheus.CounterVec
	CartQuantityUpdates *prometheus.CounterVec
	CartSyncs           *prometheus.CounterVec
	CartCleared         *prometheus.CounterVec
	CartOrphansDropped  *prometheus.CounterVec

	// Orders
	OrdersCreated          *prometheus.CounterVec
	OrderValue             *prometheus.HistogramVec
	OrderItemCount         *prometheus.HistogramVec
	OrderReplays           *prometheus.CounterVec
	OrderStatusTransitions *prometheus.CounterVec
	RefundGaps             *prometheus.CounterVec

	// Payments
	PaymentVerifications   *prometheus.CounterVec
	PaymentReconciliations *prometheus.CounterVec
	WebhookReceived        *prometheus.CounterVec
	WebhookFailed          *prometheus.CounterVec

	// Accounts
	Signups         *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	LoginFailed     *prometheus.CounterVec
	AccountsDeleted *prometheus.CounterVec
	WishlistChanges *prometheus.CounterVec

	// Order history outbox
	HistoryLinked   *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	EventsDuplicate *prometheus.CounterVec

	// Email delivery
	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates business metrics and registers them with reg.
func NewBusinessMetrics(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "balaguruva"
	}

	subsystem := "business"
	f := promauto.With(reg)

	m := &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add-to-cart operations",
			},
			[]string{"source"}, // source: add, merge
		),
		CartItemsRemoved: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_removed_total",
				Help:      "Total cart line removals",
			},
			nil,
		),
		CartQuantityUpdates: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_quantity_updates_total",
				Help:      "Total cart quantity overwrites",
			},
			nil,
		),
		CartSyncs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_syncs_total",
				Help:      "Total bulk cart replacements from the client",
			},
			nil,
		),
		CartCleared: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared",
			},
			[]string{"reason"}, // reason: user, checkout, account_deleted
		),
		CartOrphansDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_orphan_lines_dropped_total",
				Help:      "Cart lines dropped because their product no longer exists",
			},
			[]string{"operation"}, // operation: load, sync
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"payment_method", "payment_status"},
		),
		OrderValue: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total price in rupees",
				Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Total item quantity per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"payment_method"},
		),
		OrderReplays: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_replays_total",
				Help:      "Order creations answered with an existing order for the same reference",
			},
			nil,
		),
		OrderStatusTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_transitions_total",
				Help:      "Total order status transitions",
			},
			[]string{"from", "to"},
		),
		RefundGaps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refund_gaps_total",
				Help:      "Paid orders cancelled without a refund being issued",
			},
			[]string{"payment_method"},
		),

		// =======================================================================
		// Payments
		// =======================================================================
		PaymentVerifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_verifications_total",
				Help:      "Gateway receipt verifications",
			},
			[]string{"result"}, // result: valid, invalid, error
		),
		PaymentReconciliations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_reconciliations_total",
				Help:      "Payment status reconciliations from the gateway",
			},
			[]string{"result"}, // result: updated, noop, conflict
		),
		WebhookReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_received_total",
				Help:      "Total payment webhooks received",
			},
			[]string{"event"},
		),
		WebhookFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhooks_failed_total",
				Help:      "Total payment webhook processing failures",
			},
			[]string{"event", "reason"},
		),

		// =======================================================================
		// Accounts
		// =======================================================================
		Signups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "signups_total",
				Help:      "Total account signups",
			},
			[]string{"method"}, // method: password, google
		),
		Logins: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "logins_total",
				Help:      "Total successful logins",
			},
			[]string{"method"},
		),
		LoginFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "login_failed_total",
				Help:      "Total failed login attempts",
			},
			[]string{"reason"},
		),
		AccountsDeleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "accounts_deleted_total",
				Help:      "Total accounts deleted",
			},
			nil,
		),
		WishlistChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "wishlist_changes_total",
				Help:      "Total wishlist mutations",
			},
			[]string{"action"}, // action: add, remove, clear
		),

		// =======================================================================
		// Order history outbox
		// =======================================================================
		HistoryLinked: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_history_linked_total",
				Help:      "Orders appended to their owner's history",
			},
			[]string{"path"}, // path: event, repair, backfill
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_published_total",
				Help:      "Domain events published",
			},
			[]string{"event_type", "result"},
		),
		EventsDuplicate: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_duplicate_total",
				Help:      "Domain events skipped because they were already handled",
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Email Delivery
		// =======================================================================
		EmailSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total emails sent by type",
			},
			[]string{"email_type"},
		),
		EmailFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total email delivery failures",
			},
			[]string{"email_type"},
		),
	}

	return m
}

// Business is the process-wide instance. It stays nil until
// InitBusinessMetrics runs, and every recording site checks for that so
// tests run without metrics.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
// against the default registry.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(prometheus.DefaultRegisterer, namespace)
	return Business
}
