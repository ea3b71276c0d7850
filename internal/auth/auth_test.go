package auth

import (
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, h.Verify("correct horse", hash))
	assert.ErrorIs(t, h.Verify("wrong horse!", hash), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Verify("correct horse", ""), ErrPasswordMismatch)
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).cost)
	assert.Equal(t, DefaultCost, NewHasher(99).cost)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	signed, err := tokens.Issue("u1", "a@x.com")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestTokens_VerifyErrors(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	issued := time.Now()
	tokens.now = func() time.Time { return issued }
	valid, err := tokens.Issue("u1", "a@x.com")
	require.NoError(t, err)

	other, err := NewTokens("other-secret", time.Hour).Issue("u1", "a@x.com")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
		code  string
	}{
		{"missing", "", issued, domain.EUNAUTHORIZED},
		{"expired", valid, issued.Add(2 * time.Hour), domain.ETOKENEXPIRED},
		{"wrong secret", other, issued, domain.ETOKENINVALID},
		{"garbage", "not.a.token", issued, domain.ETOKENINVALID},
		{"none algorithm", noneAlg, issued, domain.ETOKENINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens.now = func() time.Time { return tt.at }
			_, err := tokens.Verify(tt.token)
			assert.Equal(t, tt.code, domain.ErrorCode(err))
		})
	}
}
