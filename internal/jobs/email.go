package jobs

import (
	"context"
	"log/slog"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/email"
	"github.com/dukerupert/balaguruva/internal/telemetry"
)

// Email types, used as metric labels.
const (
	EmailTypeOrderConfirmation = "order_confirmation"
)

// SendOrderConfirmation loads the order and emails its confirmation to the
// address it was placed with.
func SendOrderConfirmation(ctx context.Context, orders domain.OrderStore, svc *email.Service, orderID string, logger *slog.Logger) error {
	order, err := orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.WithOp(err, "jobs.order_confirmation")
	}

	messageID, err := svc.SendOrderConfirmation(ctx, email.NewOrderConfirmation(order))
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues(EmailTypeOrderConfirmation).Inc()
		}
		return err
	}

	logger.InfoContext(ctx, "order confirmation sent",
		"order_id", order.ID,
		"order_reference", order.OrderReference,
		"message_id", messageID,
	)
	if telemetry.Business != nil {
		telemetry.Business.EmailSent.WithLabelValues(EmailTypeOrderConfirmation).Inc()
	}
	return nil
}
