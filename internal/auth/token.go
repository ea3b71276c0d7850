package auth

import (
	"errors"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = time.Hour

// Claims is the payload of a bearer token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (t *Tokens) Issue(userID, email string) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", domain.Internal(err, "auth.issue_token", "failed to sign token")
	}
	return signed, nil
}

// Verify parses and validates a token.
//
// An expired token returns ETOKENEXPIRED so clients can prompt a re-login;
// any other failure returns ETOKENINVALID.
func (t *Tokens) Verify(token string) (*Claims, error) {
	const op = "auth.verify_token"

	if token == "" {
		return nil, domain.Unauthorized(op, "Authentication required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, &domain.Error{Code: domain.ETOKENEXPIRED, Op: op, Message: "Token expired", Err: err}
	default:
		return nil, &domain.Error{Code: domain.ETOKENINVALID, Op: op, Message: "Invalid token", Err: err}
	}

	if claims.UserID == "" {
		return nil, &domain.Error{Code: domain.ETOKENINVALID, Op: op, Message: "Invalid token"}
	}
	return claims, nil
}
