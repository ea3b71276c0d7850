package billing

import (
	"context"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// NoopVerifier accepts every receipt and rejects every webhook. It is used
// when no gateway secret is configured, so local checkouts work without a
// gateway account while unauthenticated webhooks still cannot move payments.
type NoopVerifier struct{}

var _ Verifier = NoopVerifier{}

func (NoopVerifier) VerifyPayment(ctx context.Context, receipt domain.PaymentResult) (bool, error) {
	return true, nil
}

func (NoopVerifier) VerifyWebhookSignature(payload []byte, signature string) error {
	return ErrWebhookNotConfigured
}
