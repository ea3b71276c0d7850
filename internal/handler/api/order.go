package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/handler"
	"github.com/dukerupert/balaguruva/internal/service"
)

// OrderHandler handles checkout and the order routes.
type OrderHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
	logger   *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(checkout service.CheckoutService, orders service.OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{checkout: checkout, orders: orders, logger: logger}
}

type createOrderResponse struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Order          *domain.Order `json:"order"`
	OrderReference string        `json:"orderReference"`
}

// Create handles POST /api/orders. A new order answers 201; a repeated
// orderReference answers 200 with the stored order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateOrderInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.checkout.CreateOrder(r.Context(), input)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	status, message := http.StatusCreated, "Order created successfully"
	if !result.Created {
		status, message = http.StatusOK, "Order already exists"
	}
	handler.WriteJSON(w, status, createOrderResponse{
		Success:        true,
		Message:        message,
		Order:          result.Order,
		OrderReference: result.OrderReference,
	})
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, order)
}

type myOrdersResponse struct {
	Success bool           `json:"success"`
	Orders  []domain.Order `json:"orders"`
	Message string         `json:"message"`
}

// Mine handles GET /api/my-orders
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetOrdersForUser(r.Context(), callerID(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	message := "Orders retrieved"
	if len(orders) == 0 {
		message = "No orders found for this user"
	}
	handler.WriteJSON(w, http.StatusOK, myOrdersResponse{Success: true, Orders: nonNil(orders), Message: message})
}

// List handles GET /api/orders (admin)
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, nonNil(orders))
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Order   *service.StatusUpdate `json:"order"`
}

// UpdateStatus handles PUT /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	update, err := h.orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Order status updated to %s", update.OrderStatus),
		Order:   update,
	})
}
