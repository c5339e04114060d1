package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/service"
	"github.com/utafrali/CardShopGo/pkg/httputil"
	"github.com/utafrali/CardShopGo/pkg/validator"
)

// CartHandler handles HTTP requests for cart operations. All endpoints key
// the cart off the X-Cart-Key header.
type CartHandler struct {
	carts        *service.CartService
	availability *service.AvailabilityService
	logger       *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *service.CartService, availability *service.AvailabilityService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:        carts,
		availability: availability,
		logger:       logger,
	}
}

// AddItemRequest is the JSON request body for adding a card to the cart.
type AddItemRequest struct {
	CardID string `json:"card_id" validate:"required"`
}

// SetQuantityRequest is the JSON request body for updating an item quantity.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// ReconciledCart is the response shape for the reconcile endpoint.
type ReconciledCart struct {
	Cart    *domain.Cart `json:"cart"`
	Removed []string     `json:"removed"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), key, req.CardID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveItem handles DELETE /api/v1/cart/items/{cardId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), key, chi.URLParam(r, "cardId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// SetQuantity handles PUT /api/v1/cart/items/{cardId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.carts.SetQuantity(r.Context(), key, chi.URLParam(r, "cardId"), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(r.Context(), key); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// Reconcile handles POST /api/v1/cart/reconcile
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r)
	if !ok {
		return
	}

	cart, removed, err := h.availability.ReconcileCart(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if removed == nil {
		removed = []string{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ReconciledCart{Cart: cart, Removed: removed}})
}
