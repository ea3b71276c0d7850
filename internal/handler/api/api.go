// Package api holds the JSON handlers behind /api, /login and /signup.
// Handlers decode the request, call one service operation and render the
// result; every rule lives in the service layer.
package api

import (
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
)

// callerID returns the authenticated user's id. Routes that call it are
// wrapped in middleware.RequireAuth, so the principal is always present.
func callerID(r *http.Request) string {
	if p := domain.PrincipalFromContext(r.Context()); p != nil {
		return p.UserID
	}
	return ""
}

// messageResponse is the {"message": ...} acknowledgement body.
type messageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}
