package domain

import (
	"context"
	"testing"
)

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()

	if PrincipalFromContext(ctx) != nil {
		t.Error("empty context should carry no principal")
	}
	if IsAuthenticated(ctx) || IsAdmin(ctx) {
		t.Error("empty context should be anonymous")
	}

	p := &Principal{UserID: "u1", Email: "a@x.com", Admin: true}
	ctx = NewContextWithPrincipal(ctx, p)

	if got := PrincipalFromContext(ctx); got != p {
		t.Errorf("PrincipalFromContext() = %v, want %v", got, p)
	}
	if !IsAuthenticated(ctx) || !IsAdmin(ctx) {
		t.Error("context should be an authenticated admin")
	}
}

func TestPrincipal_Owns(t *testing.T) {
	p := &Principal{UserID: "u1", Email: "a@x.com"}

	tests := []struct {
		name   string
		userID string
		email  string
		want   bool
	}{
		{"same id", "u1", "", true},
		{"same email different case", "", "A@X.com", true},
		{"different user", "u2", "b@x.com", false},
		{"nothing to compare", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Owns(tt.userID, tt.email); got != tt.want {
				t.Errorf("Owns(%q, %q) = %v, want %v", tt.userID, tt.email, got, tt.want)
			}
		})
	}

	var nilPrincipal *Principal
	if nilPrincipal.Owns("u1", "a@x.com") {
		t.Error("nil principal owns nothing")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" {
		t.Error("empty context should have no request ID")
	}

	ctx = NewContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
}
