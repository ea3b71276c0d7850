package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Error ErrorBody `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error
}

func expiredToken(t *testing.T, secret string) string {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	claims := auth.Claims{
		UserID: "u1",
		Email:  "asha@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestErrorResponse_ServiceErrors(t *testing.T) {
	tokens := auth.NewTokens("storefront-secret", time.Hour)

	_, expiredErr := tokens.Verify(expiredToken(t, "storefront-secret"))
	require.Error(t, expiredErr)

	forged, err := auth.NewTokens("someone-else", time.Hour).Issue("u1", "asha@example.com")
	require.NoError(t, err)
	_, forgedErr := tokens.Verify(forged)
	require.Error(t, forgedErr)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "gateway declined the payment",
			err:         domain.WithOp(service.ErrPaymentUnavailable, "checkout.create_order"),
			wantStatus:  http.StatusPaymentRequired,
			wantCode:    domain.EPAYMENT,
			wantMessage: "Payment could not be verified",
		},
		{
			name:        "expired session",
			err:         expiredErr,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    domain.ETOKENEXPIRED,
			wantMessage: "Token expired",
		},
		{
			name:        "token signed with another key",
			err:         forgedErr,
			wantStatus:  http.StatusForbidden,
			wantCode:    domain.ETOKENINVALID,
			wantMessage: "Invalid token",
		},
		{
			name:        "order reference already used",
			err:         domain.WithOp(service.ErrOrderReferenceTaken, "checkout.create_order"),
			wantStatus:  http.StatusConflict,
			wantCode:    domain.ECONFLICT,
			wantMessage: "Order reference already in use",
		},
		{
			name:        "cart owned by another customer",
			err:         service.ErrCartNotYours,
			wantStatus:  http.StatusForbidden,
			wantCode:    domain.EFORBIDDEN,
			wantMessage: "Cart belongs to another user",
		},
		{
			name:        "store unreachable",
			err:         domain.Unavailable(errors.New("server selection timeout"), "order.list", "Order store unavailable"),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    domain.EUNAVAILABLE,
			wantMessage: "Order store unavailable",
		},
		{
			name:        "plain error is internal",
			err:         errors.New("mongo: dial tcp 10.0.0.4:27017: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    domain.EINTERNAL,
			wantMessage: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Empty(t, body.Fields)
		})
	}
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	err := domain.NewValidationError("checkout.create_order", "shippingAddress.postalCode", "is required")
	err = domain.AddFieldError(err, "orderItems", "must not be empty")

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	rec := httptest.NewRecorder()
	ValidationErrorResponse(rec, req, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, domain.EINVALID, body.Code)
	assert.Equal(t, map[string]string{
		"shippingAddress.postalCode": "is required",
		"orderItems":                 "must not be empty",
	}, body.Fields)
}

func TestErrorResponse_BrowserGetsPlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, domain.NotFound("storage.get", "upload", "missing.png"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, rec.Body.String())
}

func TestGenericResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantCode   string
	}{
		{"not found", NotFoundResponse, http.StatusNotFound, domain.ENOTFOUND},
		{"unauthorized", UnauthorizedResponse, http.StatusUnauthorized, domain.EUNAUTHORIZED},
		{"forbidden", ForbiddenResponse, http.StatusForbidden, domain.EFORBIDDEN},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			InternalErrorResponse(w, r, errors.New("nil pointer in cart merge"))
		}, http.StatusInternalServerError, domain.EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, rec).Code)
		})
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		domain.EINVALID:      http.StatusBadRequest,
		domain.EUNAUTHORIZED: http.StatusUnauthorized,
		domain.ETOKENEXPIRED: http.StatusUnauthorized,
		domain.EPAYMENT:      http.StatusPaymentRequired,
		domain.EFORBIDDEN:    http.StatusForbidden,
		domain.ETOKENINVALID: http.StatusForbidden,
		domain.ENOTFOUND:     http.StatusNotFound,
		domain.ECONFLICT:     http.StatusConflict,
		domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
		domain.ERATELIMIT:    http.StatusTooManyRequests,
		domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
		domain.ETIMEOUT:      http.StatusGatewayTimeout,
		"":                   http.StatusInternalServerError,
	}

	for code, want := range tests {
		assert.Equal(t, want, ErrorCodeToHTTPStatus(code), "code %q", code)
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		accept      string
		contentType string
		want        bool
	}{
		{name: "api path without headers", path: "/api/orders", want: true},
		{name: "api path asking for html", path: "/api/orders", accept: "text/html"},
		{name: "json accept off the api", path: "/uploads/a.png", accept: "application/json; charset=utf-8", want: true},
		{name: "json body off the api", path: "/webhooks/razorpay", contentType: "application/json", want: true},
		{name: "json extension", path: "/catalog.json", want: true},
		{name: "plain upload fetch", path: "/uploads/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, acceptsJSON(req))
		})
	}
}
