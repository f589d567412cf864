// Package handler exposes the JSON API: checkout, order lookup, status
// transitions, and the session cart endpoints backing the cart provider.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xenking/bistro-orders/internal/domain/cart"
	"github.com/xenking/bistro-orders/internal/domain/order"
)

// sessionHeader identifies the anonymous shopping session a cart belongs to.
const sessionHeader = "X-Session-ID"

// idempotencyHeader carries the caller-supplied key for safe checkout retries.
const idempotencyHeader = "Idempotency-Key"

// CartStore extends the checkout-facing cart provider with the mutation used
// by the cart endpoints.
type CartStore interface {
	cart.Provider
	AddItem(ctx context.Context, sessionID string, item cart.Item) (*cart.Cart, error)
}

// Handler wires the order service and cart store to HTTP routes.
type Handler struct {
	orders *order.Service
	carts  CartStore
}

// New constructs a Handler.
func New(orders *order.Service, carts CartStore) *Handler {
	return &Handler{orders: orders, carts: carts}
}

// Router returns the API routes mounted under /api.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods(http.MethodPatch)

	api.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart/items", h.AddCartItem).Methods(http.MethodPost)
	api.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)

	return r
}

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}
