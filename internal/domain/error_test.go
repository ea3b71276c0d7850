package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "invalid input"},
			expected: "invalid input",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "order.create", Message: "invalid input"},
			expected: "order.create: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EUNAVAILABLE,
				Op:      "order.create",
				Message: "failed to save order",
				Err:     errors.New("connection refused"),
			},
			expected: "order.create: failed to save order: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_IsMatchesSentinelAfterWithOp(t *testing.T) {
	err := WithOp(ErrCartNotFound, "cart.remove")

	if !errors.Is(err, ErrCartNotFound) {
		t.Error("errors.Is should match the sentinel after WithOp")
	}
	if errors.Is(err, ErrCartItemNotFound) {
		t.Error("errors.Is should not match a different sentinel with the same code")
	}
	if ErrorOp(err) != "cart.remove" {
		t.Errorf("ErrorOp() = %q, want %q", ErrorOp(err), "cart.remove")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: &Error{Code: EINVALID, Message: "test"}, expected: EINVALID},
		{name: "wrapped domain error", err: fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND}), expected: ENOTFOUND},
		{name: "validation error", err: NewValidationError("op", "field", "required"), expected: EINVALID},
		{name: "non-domain error", err: errors.New("some error"), expected: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: Conflict("user.signup", "User already exists"), expected: "User already exists"},
		{name: "internal error hidden", err: Internal(errors.New("secret"), "op", "db at 10.0.0.1 down"), expected: internalMessage},
		{name: "unknown error hidden", err: errors.New("boom"), expected: internalMessage},
		{name: "single field validation", err: NewValidationError("op", "userEmail", "is required"), expected: "userEmail: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUnavailable_DistinguishesTimeout(t *testing.T) {
	err := Unavailable(context.DeadlineExceeded, "order.create", "store did not respond")
	if ErrorCode(err) != ETIMEOUT {
		t.Errorf("deadline code = %q, want %q", ErrorCode(err), ETIMEOUT)
	}

	err = Unavailable(errors.New("connection reset"), "order.create", "failed to save order")
	if ErrorCode(err) != EUNAVAILABLE {
		t.Errorf("store failure code = %q, want %q", ErrorCode(err), EUNAVAILABLE)
	}
	if !IsRetryable(err) {
		t.Error("store failures should be retryable")
	}

	if IsRetryable(PaymentFailed(errors.New("gateway down"), "order.create", "payment failed")) {
		t.Error("gateway failures must not be retryable")
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single field error", func(t *testing.T) {
		err := NewValidationError("order.create", "userEmail", "is required")

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatal("NewValidationError should return *ValidationError")
		}

		expected := "order.create: userEmail: is required"
		if ve.Error() != expected {
			t.Errorf("Error() = %q, want %q", ve.Error(), expected)
		}
	})

	t.Run("multiple field errors", func(t *testing.T) {
		err := NewValidationError("order.create", "userEmail", "is required")
		err = AddFieldError(err, "orderItems", "must not be empty")

		fields := GetValidationFields(err)
		if len(fields) != 2 {
			t.Errorf("Fields count = %d, want 2", len(fields))
		}
		if ErrorOp(err) != "order.create" {
			t.Errorf("ErrorOp() = %q, want %q", ErrorOp(err), "order.create")
		}
	})

	t.Run("add field to nil", func(t *testing.T) {
		err := AddFieldError(nil, "name", "is required")
		if !IsValidationError(err) {
			t.Fatal("AddFieldError(nil) should return *ValidationError")
		}
	})

	t.Run("non-validation error has no fields", func(t *testing.T) {
		if GetValidationFields(NotFound("order.get", "order", "1")) != nil {
			t.Error("GetValidationFields should return nil for non-validation error")
		}
	})
}

func TestConvenienceFunctions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"NotFound", NotFound("order.get", "order", "abc"), ENOTFOUND},
		{"Unauthorized", Unauthorized("auth", "missing token"), EUNAUTHORIZED},
		{"Forbidden", Forbidden("order.get", "not your order"), EFORBIDDEN},
		{"Invalid", Invalid("order.status", "unknown status"), EINVALID},
		{"Conflict", Conflict("wishlist.add", "already present"), ECONFLICT},
		{"Internal", Internal(errors.New("x"), "op", "msg"), EINTERNAL},
		{"PaymentFailed", PaymentFailed(errors.New("x"), "op", "msg"), EPAYMENT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}
