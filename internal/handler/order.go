package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
	"github.com/xenking/bistro-orders/internal/domain/order"
)

type createOrderRequest struct {
	DeliveryMode         string          `json:"deliveryMode"`
	DeliveryAddress      string          `json:"deliveryAddress"`
	DeliveryZip          string          `json:"deliveryZip"`
	DeliveryInstructions string          `json:"deliveryInstructions"`
	PaymentMode          string          `json:"paymentMode"`
	ClientFirstName      string          `json:"clientFirstName"`
	ClientLastName       string          `json:"clientLastName"`
	ClientPhone          string          `json:"clientPhone"`
	ClientEmail          string          `json:"clientEmail"`
	CouponID             string          `json:"couponId,omitempty"`
	CouponCode           string          `json:"couponCode,omitempty"`
	DiscountAmount       decimal.Decimal `json:"discountAmount,omitempty"`
}

type orderItemResponse struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	GrossTotal decimal.Decimal `json:"grossTotal"`
}

type orderResponse struct {
	ID                   string              `json:"id"`
	Number               string              `json:"orderNumber"`
	Status               string              `json:"status"`
	DeliveryMode         string              `json:"deliveryMode"`
	DeliveryAddress      string              `json:"deliveryAddress,omitempty"`
	DeliveryZip          string              `json:"deliveryZip,omitempty"`
	DeliveryInstructions string              `json:"deliveryInstructions,omitempty"`
	DeliveryFee          decimal.Decimal     `json:"deliveryFee"`
	PaymentMode          string              `json:"paymentMode"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	Tax                  decimal.Decimal     `json:"tax"`
	Discount             decimal.Decimal     `json:"discount"`
	Total                decimal.Decimal     `json:"total"`
	CouponID             string              `json:"couponId,omitempty"`
	ClientFirstName      string              `json:"clientFirstName"`
	ClientLastName       string              `json:"clientLastName"`
	ClientPhone          string              `json:"clientPhone"`
	ClientEmail          string              `json:"clientEmail,omitempty"`
	Items                []orderItemResponse `json:"items"`
	CreatedAt            time.Time           `json:"createdAt"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// CreateOrder handles POST /api/orders: it converts the JSON request into a
// checkout request for the session's cart and maps domain failures to
// status-coded error responses.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := order.ParseDeliveryMode(req.DeliveryMode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payment, err := order.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		SessionID:      sessionID,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
		Mode:           mode,
		Address:        req.DeliveryAddress,
		Zip:            req.DeliveryZip,
		Instructions:   req.DeliveryInstructions,
		Payment:        payment,
		FirstName:      req.ClientFirstName,
		LastName:       req.ClientLastName,
		Phone:          req.ClientPhone,
		Email:          req.ClientEmail,
		CouponID:       req.CouponID,
		CouponCode:     req.CouponCode,
		ManualDiscount: req.DiscountAmount,
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrder handles GET /api/orders/{id}. A missing order is 404; that is a
// normal outcome, not a server error.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}
	if o == nil {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrderStatus handles PATCH /api/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

// respondOrderError maps domain errors to HTTP responses. Unexpected errors
// are logged and collapsed into a generic 500.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingAddress):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, order.ErrInvalidPhone),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrMinimumNotMet),
		errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, order.ErrRequestInFlight):
		respondError(w, http.StatusConflict, err.Error())

	default:
		var addrErr *order.InvalidAddressError
		if errors.As(err, &addrErr) {
			respondJSON(w, http.StatusUnprocessableEntity, struct {
				errorResponse
				Distance float64 `json:"distance,omitempty"`
			}{
				errorResponse: errorResponse{
					Code:    http.StatusUnprocessableEntity,
					Message: addrErr.Error(),
				},
				Distance: addrErr.Distance,
			})
			return
		}
		zctx.From(r.Context()).Error("order operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID:  item.ProductID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			GrossTotal: item.GrossTotal(),
		}
	}

	return orderResponse{
		ID:                   o.ID,
		Number:               o.Number,
		Status:               string(o.Status),
		DeliveryMode:         string(o.Mode),
		DeliveryAddress:      o.Address,
		DeliveryZip:          o.Zip,
		DeliveryInstructions: o.Instructions,
		DeliveryFee:          o.DeliveryFee,
		PaymentMode:          string(o.Payment),
		Subtotal:             o.Subtotal,
		Tax:                  o.Tax,
		Discount:             o.Discount,
		Total:                o.Total,
		CouponID:             o.CouponID,
		ClientFirstName:      o.FirstName,
		ClientLastName:       o.LastName,
		ClientPhone:          o.Phone,
		ClientEmail:          o.Email,
		Items:                items,
		CreatedAt:            o.CreatedAt,
	}
}
