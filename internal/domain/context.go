// Package domain provides the storefront's core business types, the error
// taxonomy, the store contracts and request-scoped context helpers.
package domain

import (
	"context"
	"strings"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// principalContextKey stores the authenticated caller.
	principalContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// Principal is the authenticated caller derived from a bearer token.
// It is a minimal struct for context storage; the full user record is
// fetched from the store when needed.
type Principal struct {
	UserID string
	Email  string
	Admin  bool
}

// Owns reports whether the principal is the user identified by userID or email.
func (p *Principal) Owns(userID, email string) bool {
	if p == nil {
		return false
	}
	if userID != "" && p.UserID == userID {
		return true
	}
	return email != "" && strings.EqualFold(p.Email, email)
}

// NewContextWithPrincipal returns a new context carrying the principal.
func NewContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the authenticated caller, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// NewContextWithRequestID returns a new context carrying the request ID.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID, or "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// IsAuthenticated reports whether the context carries a principal.
func IsAuthenticated(ctx context.Context) bool {
	return PrincipalFromContext(ctx) != nil
}

// IsAdmin reports whether the caller is an administrator.
func IsAdmin(ctx context.Context) bool {
	p := PrincipalFromContext(ctx)
	return p != nil && p.Admin
}
