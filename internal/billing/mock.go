package billing

import (
	"context"
	"fmt"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// MockVerifier is a Verifier for tests. Without Func fields set it accepts
// receipts and webhooks.
type MockVerifier struct {
	// VerifyPaymentFunc allows customizing receipt verification behavior
	VerifyPaymentFunc func(ctx context.Context, receipt domain.PaymentResult) (bool, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string) error

	// CallLog tracks method calls for test assertions
	CallLog []string
}

var _ Verifier = (*MockVerifier)(nil)

func (m *MockVerifier) VerifyPayment(ctx context.Context, receipt domain.PaymentResult) (bool, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("VerifyPayment(%s)", receipt.ID))
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, receipt)
	}
	return true, nil
}

func (m *MockVerifier) VerifyWebhookSignature(payload []byte, signature string) error {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")
	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature)
	}
	return nil
}
