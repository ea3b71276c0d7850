package shipping

import "github.com/dukerupert/balaguruva/internal/domain"

var (
	// ErrUnknownMethod is returned when a delivery method has no rate.
	ErrUnknownMethod = &domain.Error{Code: domain.EINVALID, Message: "Unknown delivery method"}
)
