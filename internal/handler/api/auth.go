package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// AuthHandler handles signup, login and token status.
type AuthHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users service.UserService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{users: users, logger: logger}
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.users.Signup(r.Context(), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.users.Login(r.Context(), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, result)
}

type statusUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authStatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          statusUser `json:"user"`
	LastVerified  time.Time  `json:"lastVerified"`
}

// Status handles GET /api/auth/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	p := domain.PrincipalFromContext(r.Context())
	if p == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	handler.WriteJSON(w, http.StatusOK, authStatusResponse{
		Authenticated: true,
		User:          statusUser{ID: p.UserID, Email: p.Email},
		LastVerified:  time.Now().UTC(),
	})
}
