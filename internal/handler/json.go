package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a single JSON value from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	const op = "handler.decode_json"

	if r.Body == nil {
		return domain.Invalid(op, "Request body is required")
	}

	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &maxErr):
		return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
	case errors.Is(err, io.EOF):
		return domain.Invalid(op, "Request body is required")
	default:
		return domain.WrapError(err, domain.EINVALID, op, "Invalid JSON body")
	}
}
