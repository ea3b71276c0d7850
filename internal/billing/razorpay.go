package billing

import (
	"context"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/razorpay/razorpay-go/utils"
)

// RazorpayVerifier checks Razorpay signatures with the gateway SDK.
//
// A checkout receipt is signed over "order_id|payment_id" with the key
// secret; a webhook over the raw body with the webhook secret.
type RazorpayVerifier struct {
	keySecret     string
	webhookSecret string
}

var _ Verifier = (*RazorpayVerifier)(nil)

func NewRazorpayVerifier(keySecret, webhookSecret string) *RazorpayVerifier {
	return &RazorpayVerifier{keySecret: keySecret, webhookSecret: webhookSecret}
}

func (v *RazorpayVerifier) VerifyPayment(ctx context.Context, receipt domain.PaymentResult) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if receipt.GatewayOrderID == "" || receipt.ID == "" || receipt.Signature == "" {
		return false, nil
	}

	params := map[string]interface{}{
		"razorpay_order_id":   receipt.GatewayOrderID,
		"razorpay_payment_id": receipt.ID,
	}
	return utils.VerifyPaymentSignature(params, receipt.Signature, v.keySecret), nil
}

func (v *RazorpayVerifier) VerifyWebhookSignature(payload []byte, signature string) error {
	if v.webhookSecret == "" {
		return ErrWebhookNotConfigured
	}
	if signature == "" || !utils.VerifyWebhookSignature(string(payload), signature, v.webhookSecret) {
		return ErrInvalidWebhookSignature
	}
	return nil
}
