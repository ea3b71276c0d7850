package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// CartHandler handles /api/cart. Carts are addressed by a user key (an
// email, a user id or a guest key) carried in the path or the body.
type CartHandler struct {
	carts  service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts service.CartService, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{carts: carts, logger: logger}
}

type cartResponse struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

type addRequest struct {
	UserID  string                 `json:"userId"`
	Product *service.CartItemInput `json:"product"`
}

type syncRequest struct {
	UserID string             `json:"userId"`
	Items  []service.SyncLine `json:"items"`
}

type mergeRequest struct {
	UserID string                  `json:"userId"`
	Items  []service.CartItemInput `json:"items"`
}

type lineRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Get handles GET /api/cart/{userKey}
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), r.PathValue("userKey"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// Load handles GET /api/cart/{userKey}/enriched
func (h *CartHandler) Load(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Load(r.Context(), r.PathValue("userKey"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// Add handles POST /api/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Product == nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("cart.add", "product", "product is required"))
		return
	}

	cart, err := h.carts.Add(r.Context(), req.UserID, *req.Product)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cartResponse{Message: "Product added to cart", Cart: cart})
}

// Sync handles POST /api/cart
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.Sync(r.Context(), req.UserID, req.Items)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cartResponse{Message: "Cart saved", Cart: cart})
}

// Merge handles POST /api/cart/merge
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.Merge(r.Context(), req.UserID, req.Items)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cart)
}

// UpdateQuantity handles PUT /api/cart/quantity
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cartResponse{Message: "Quantity updated", Cart: cart})
}

// Remove handles POST /api/cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cart, err := h.carts.Remove(r.Context(), req.UserID, req.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, cartResponse{Message: "Item removed from cart", Cart: cart})
}

// Clear handles DELETE /api/cart/{userKey}
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), r.PathValue("userKey")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared"})
}
