package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// WishlistHandler handles /api/user/wishlist.
type WishlistHandler struct {
	wishlist service.WishlistService
	logger   *slog.Logger
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlist service.WishlistService, logger *slog.Logger) *WishlistHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WishlistHandler{wishlist: wishlist, logger: logger}
}

type wishlistResponse struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	Wishlist []domain.WishlistItem `json:"wishlist"`
}

// Get handles GET /api/user/wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlist.Get(r.Context(), callerID(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, wishlistResponse{Success: true, Wishlist: nonNil(items)})
}

// Add handles POST /api/user/wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input service.WishlistItemInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	items, err := h.wishlist.Add(r.Context(), callerID(r), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, wishlistResponse{
		Success:  true,
		Message:  "Item added to wishlist",
		Wishlist: nonNil(items),
	})
}

// Remove handles DELETE /api/user/wishlist/{productId}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlist.Remove(r.Context(), callerID(r), r.PathValue("productId"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, wishlistResponse{
		Success:  true,
		Message:  "Item removed from wishlist",
		Wishlist: nonNil(items),
	})
}

// Clear handles DELETE /api/user/wishlist
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.Clear(r.Context(), callerID(r)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Wishlist cleared successfully"})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
