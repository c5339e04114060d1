package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CardShopGo/internal/provider"
	"github.com/utafrali/CardShopGo/internal/service"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

func newCheckoutServer(cards *mockCardRepository, prov *stubProvider) http.Handler {
	checkout := service.NewCheckoutService(
		cards,
		map[string]provider.Provider{prov.name: prov},
		nil,
		newTestLogger(),
		service.CheckoutConfig{
			Currency:   "GBP",
			SuccessURL: "https://shop.example.com/success",
			CancelURL:  "https://shop.example.com/cancel",
			MinCharge:  30,
		},
	)

	r := chi.NewRouter()
	handler := NewCheckoutHandler(checkout, newTestLogger())
	r.Post("/api/v1/checkout/sessions", handler.CreateSession)
	return r
}

func postCheckout(t *testing.T, server http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func checkoutItem(cardID string, price int64) CreateSessionItem {
	return CreateSessionItem{CardID: cardID, Name: "Card " + cardID, Price: price}
}

func TestCheckoutHandler_CreateSession_Success(t *testing.T) {
	cards := new(mockCardRepository)
	prov := &stubProvider{
		name:    "stripe",
		session: &provider.Session{ID: "cs_1", RedirectURL: "https://pay.example.com/cs_1"},
	}
	server := newCheckoutServer(cards, prov)

	cards.On("GetAvailability", mock.Anything, []string{"c1"}).
		Return(map[string]bool{"c1": true}, nil)

	rec := postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{checkoutItem("c1", 249900)},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data service.CheckoutSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_1", resp.Data.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_1", resp.Data.RedirectURL)
	assert.Equal(t, int64(249900), resp.Data.Amount)
	assert.Equal(t, "GBP", resp.Data.Currency)
}

func TestCheckoutHandler_CreateSession_ValidationErrors(t *testing.T) {
	server := newCheckoutServer(new(mockCardRepository), &stubProvider{name: "stripe"})

	// Unknown provider value fails validation before any store lookup.
	rec := postCheckout(t, server, CreateSessionRequest{
		Provider: "applepay",
		Items:    []CreateSessionItem{checkoutItem("c1", 1000)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing line items.
	rec = postCheckout(t, server, CreateSessionRequest{Provider: "stripe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero and negative prices are rejected at the boundary.
	rec = postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{checkoutItem("c1", 0)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{checkoutItem("c1", -500)},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Line item without a card id.
	rec = postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{{Name: "Card", Price: 1000}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_CreateSession_MalformedBody(t *testing.T) {
	server := newCheckoutServer(new(mockCardRepository), &stubProvider{name: "stripe"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", bytes.NewReader([]byte("{{")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_CreateSession_SoldCard(t *testing.T) {
	cards := new(mockCardRepository)
	server := newCheckoutServer(cards, &stubProvider{name: "stripe"})

	cards.On("GetAvailability", mock.Anything, []string{"c1"}).
		Return(map[string]bool{"c1": false}, nil)

	rec := postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{checkoutItem("c1", 1000)},
	})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestCheckoutHandler_CreateSession_ProviderDown(t *testing.T) {
	cards := new(mockCardRepository)
	prov := &stubProvider{
		name:       "stripe",
		sessionErr: apperrors.Dependency("stripe", assert.AnError),
	}
	server := newCheckoutServer(cards, prov)

	cards.On("GetAvailability", mock.Anything, []string{"c1"}).
		Return(map[string]bool{"c1": true}, nil)

	rec := postCheckout(t, server, CreateSessionRequest{
		Provider: "stripe",
		Items:    []CreateSessionItem{checkoutItem("c1", 1000)},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEPENDENCY_FAILURE")
}
