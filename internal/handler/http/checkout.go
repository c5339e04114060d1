package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/CardShopGo/internal/service"
	"github.com/utafrali/CardShopGo/pkg/httputil"
	"github.com/utafrali/CardShopGo/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout session creation.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateSessionItem is one shopper-priced line item: the card, the name it
// was listed under, and the price it was rendered at in minor units.
type CreateSessionItem struct {
	CardID string `json:"card_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Price  int64  `json:"price" validate:"required,gt=0"`
}

// CreateSessionRequest is the JSON request body for initiating checkout.
type CreateSessionRequest struct {
	Provider string              `json:"provider" validate:"required,oneof=stripe paypal"`
	Items    []CreateSessionItem `json:"items" validate:"required,min=1,dive"`
}

// CreateSession handles POST /api/v1/checkout/sessions
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateSessionRequest
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

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItem{
			CardID: item.CardID,
			Name:   item.Name,
			Price:  item.Price,
		})
	}

	session, err := h.service.CreateSession(r.Context(), &service.CreateSessionInput{
		Provider: req.Provider,
		Items:    items,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: session})
}
