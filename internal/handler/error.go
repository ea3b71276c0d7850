// Package handler holds the HTTP response helpers shared by the API and
// webhook handlers. Domain errors are rendered as
// {"error":{"code","message","fields?"}}.
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/middleware"
	"github.com/dukerupert/balaguruva/internal/telemetry"
)

// ErrorBody is the error envelope returned to JSON clients.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse writes err using its domain code. Internal errors are
// logged with full detail and reported to Sentry; the client only sees the
// generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	body := ErrorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	}

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		slog.String("code", code),
		slog.String("op", domain.ErrorOp(err)),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"code":       code,
			"request_id": middleware.GetRequestID(r.Context()),
		})
	} else {
		logger.Debug("request rejected", attrs...)
	}

	if !acceptsJSON(r) {
		http.Error(w, body.Message, status)
		return
	}
	WriteJSON(w, status, map[string]ErrorBody{"error": body})
}

// ValidationErrorResponse writes a 400 naming every offending field.
// Any other error falls back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, err)
}

// NotFoundResponse writes a generic 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// UnauthorizedResponse writes a generic 401.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Unauthorized("", "Authentication required"))
}

// ForbiddenResponse writes a generic 403.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Forbidden("", "You don't have permission to access this resource"))
}

// InternalErrorResponse logs err and writes a generic 500.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED, domain.ETOKENEXPIRED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN, domain.ETOKENINVALID:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EGONE:
		return http.StatusGone
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	case domain.ETIMEOUT:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// acceptsJSON reports whether the client should get the JSON envelope.
// Requests under /api/ default to JSON unless they explicitly ask for HTML.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/json"),
		strings.Contains(r.Header.Get("Content-Type"), "application/json"),
		strings.HasSuffix(r.URL.Path, ".json"):
		return true
	case strings.Contains(accept, "text/html"):
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
