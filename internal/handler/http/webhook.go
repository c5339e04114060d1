package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/CardShopGo/internal/provider"
	"github.com/utafrali/CardShopGo/internal/service"
	"github.com/utafrali/CardShopGo/pkg/httputil"
)

// maxWebhookBody bounds webhook payload size. Provider events for this shop
// are a few KB; anything near the limit is hostile.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment provider webhook deliveries.
type WebhookHandler struct {
	service *service.FulfillmentService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(svc *service.FulfillmentService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		logger:  logger,
	}
}

// Receive handles POST /api/v1/webhooks/{provider}.
//
// The body is captured raw before any decoding: both providers authenticate
// the exact bytes they sent, so the payload must reach verification
// untouched.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unable to read webhook body"},
		})
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), providerName, &provider.Delivery{
		Body:   body,
		Header: r.Header,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
