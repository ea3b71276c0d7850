package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// UserHandler handles the authenticated account routes under /api/user.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// GetProfile handles GET /api/user/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetProfile(r.Context(), callerID(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, user)
}

type profileResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// UpdateProfile handles PUT /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), callerID(r), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, profileResponse{Message: "Profile updated successfully", User: user})
}

// ChangePassword handles PUT /api/user/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input service.ChangePasswordInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), callerID(r), input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

// DeleteAccount handles DELETE /api/user/account
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAccount(r.Context(), callerID(r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}

// Export handles GET /api/user/export. The body is served as a download.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.users.ExportData(r.Context(), callerID(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	filename := fmt.Sprintf("user_data_%s.json", export.ExportDate.UTC().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	handler.WriteJSON(w, http.StatusOK, export)
}
