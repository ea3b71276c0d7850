package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// ContactHandler handles the contact form and its admin listing.
type ContactHandler struct {
	contacts service.ContactService
	logger   *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contacts service.ContactService, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{contacts: contacts, logger: logger}
}

type contactCreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.Contact
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	saved, err := h.contacts.Submit(r.Context(), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, contactCreatedResponse{Message: "Contact saved successfully", ID: saved.ID})
}

// List handles GET /api/contacts (admin)
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, nonNil(contacts))
}
