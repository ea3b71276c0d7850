package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayVerifier_VerifyPayment(t *testing.T) {
	v := NewRazorpayVerifier("key_secret", "hook_secret")
	valid := sign([]byte("key_secret"), []byte("order_1|pay_1"))

	tests := []struct {
		name    string
		receipt domain.PaymentResult
		want    bool
	}{
		{"valid", domain.PaymentResult{ID: "pay_1", GatewayOrderID: "order_1", Signature: valid}, true},
		{"tampered payment id", domain.PaymentResult{ID: "pay_2", GatewayOrderID: "order_1", Signature: valid}, false},
		{"not hex", domain.PaymentResult{ID: "pay_1", GatewayOrderID: "order_1", Signature: "zz"}, false},
		{"missing signature", domain.PaymentResult{ID: "pay_1", GatewayOrderID: "order_1"}, false},
		{"missing gateway order", domain.PaymentResult{ID: "pay_1", Signature: valid}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.VerifyPayment(context.Background(), tt.receipt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRazorpayVerifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRazorpayVerifier("k", "").VerifyPayment(ctx, domain.PaymentResult{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRazorpayVerifier_Webhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	v := NewRazorpayVerifier("k", "hook_secret")

	assert.NoError(t, v.VerifyWebhookSignature(body, sign([]byte("hook_secret"), body)))
	assert.ErrorIs(t, v.VerifyWebhookSignature(body, sign([]byte("other"), body)), ErrInvalidWebhookSignature)
	assert.ErrorIs(t, NewRazorpayVerifier("k", "").VerifyWebhookSignature(body, "x"), ErrWebhookNotConfigured)
}

func TestNoopVerifier(t *testing.T) {
	ok, err := NoopVerifier{}.VerifyPayment(context.Background(), domain.PaymentResult{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, NoopVerifier{}.VerifyWebhookSignature(nil, ""), ErrWebhookNotConfigured)
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_1", "order_id": "order_1", "email": "a@x.com",
			"notes": {"orderReference": "ORD-20250101-ABCD1234"}
		}}}
	}`)

	evt, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", evt.PaymentID)
	assert.Equal(t, "order_1", evt.GatewayOrderID)
	assert.Equal(t, "ORD-20250101-ABCD1234", evt.OrderReference)
	assert.Equal(t, domain.ReceiptStatusSuccess, evt.ReceiptStatus())

	evt.Event = EventPaymentFailed
	assert.Equal(t, domain.ReceiptStatusFailed, evt.ReceiptStatus())
	evt.Event = "refund.created"
	assert.Equal(t, "", evt.ReceiptStatus())

	_, err = ParseWebhook([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedWebhook)
	_, err = ParseWebhook([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformedWebhook)
}

// sign produces a gateway-format signature: hex HMAC-SHA256 of message.
func sign(secret, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
