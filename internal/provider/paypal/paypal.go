package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/CardShopGo/internal/provider"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

const (
	// DefaultBaseURL is the live PayPal API endpoint; sandbox deployments
	// point BaseURL at api-m.sandbox.paypal.com.
	DefaultBaseURL = "https://api-m.paypal.com"

	completionEvent = "PAYMENT.CAPTURE.COMPLETED"

	// tokenExpirySlack renews the cached access token early so an almost
	// expired token is never used on an outgoing call.
	tokenExpirySlack = 60 * time.Second
)

// requiredHeaders are the PayPal transmission headers that must accompany a
// webhook delivery for delegated verification.
var requiredHeaders = []string{
	"Paypal-Auth-Algo",
	"Paypal-Cert-Url",
	"Paypal-Transmission-Id",
	"Paypal-Transmission-Sig",
	"Paypal-Transmission-Time",
}

// Provider implements provider.Provider against the PayPal Orders API.
// Webhook authenticity is delegated to PayPal's verify-webhook-signature
// endpoint, which checks the transmission signature against the registered
// webhook id.
type Provider struct {
	client    provider.HTTPDoer
	baseURL   string
	clientID  string
	secret    string
	webhookID string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// Config holds the PayPal credentials and endpoint settings.
type Config struct {
	BaseURL   string
	ClientID  string
	Secret    string
	WebhookID string
}

// NewProvider creates a PayPal provider.
func NewProvider(client provider.HTTPDoer, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		clientID:  cfg.ClientID,
		secret:    cfg.Secret,
		webhookID: cfg.WebhookID,
		now:       time.Now,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "paypal"
}

// IsCompletionEvent reports whether the event type finalizes a payment.
func (p *Provider) IsCompletionEvent(eventType string) bool {
	return eventType == completionEvent
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a cached OAuth2 access token, fetching a fresh one via the
// client-credentials grant when the cache is empty or near expiry.
func (p *Provider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.clientID, p.secret)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch access token: status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	p.accessToken = token.AccessToken
	p.tokenExpiry = p.now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)

	return p.accessToken, nil
}

type orderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []purchaseUnit      `json:"purchase_units"`
	ApplicationContext *applicationContext `json:"application_context,omitempty"`
}

type purchaseUnit struct {
	CustomID string      `json:"custom_id,omitempty"`
	Amount   orderAmount `json:"amount"`
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type orderResponse struct {
	ID    string `json:"id"`
	Links []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateSession creates a PayPal order with the card ids in custom_id and
// returns the approval link the shopper is redirected to.
func (p *Provider) CreateSession(ctx context.Context, input *provider.CheckoutInput) (*provider.Session, error) {
	accessToken, err := p.token(ctx)
	if err != nil {
		return nil, apperrors.Dependency("paypal", err)
	}

	var total int64
	for _, item := range input.LineItems {
		total += item.Amount * int64(item.Quantity)
	}

	order := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			CustomID: provider.JoinCardIDs(input.CardIDs),
			Amount: orderAmount{
				CurrencyCode: strings.ToUpper(input.Currency),
				Value:        formatAmount(total),
			},
		}},
		ApplicationContext: &applicationContext{
			ReturnURL: input.SuccessURL,
			CancelURL: input.CancelURL,
		},
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v2/checkout/orders", strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Dependency("paypal", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Dependency("paypal", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperrors.Dependency("paypal",
			fmt.Errorf("create order: status %d", resp.StatusCode))
	}

	var created orderResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("decode order response: %w", err))
	}

	approveURL := ""
	for _, link := range created.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if created.ID == "" || approveURL == "" {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("order response missing id or approve link"))
	}

	return &provider.Session{ID: created.ID, RedirectURL: approveURL}, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyResponse struct {
	VerificationStatus string `json:"verification_status"`
}

type webhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID            string `json:"id"`
		CustomID      string `json:"custom_id"`
		PurchaseUnits []struct {
			CustomID string `json:"custom_id"`
		} `json:"purchase_units"`
	} `json:"resource"`
}

// VerifyWebhook delegates authenticity to PayPal's verify-webhook-signature
// endpoint. A missing transmission header or a non-SUCCESS verdict is a
// signature rejection; trouble reaching PayPal (token grant, transport,
// verifier errors) is a dependency failure instead, so the delivery is
// answered with a 5xx and redelivered rather than dropped. Neither path
// ever accepts an unverified event.
func (p *Provider) VerifyWebhook(ctx context.Context, delivery *provider.Delivery) (*provider.Event, error) {
	for _, h := range requiredHeaders {
		if delivery.Header.Get(h) == "" {
			return nil, apperrors.SignatureInvalid("missing " + h + " header")
		}
	}

	accessToken, err := p.token(ctx)
	if err != nil {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("webhook verification token: %w", err))
	}

	// The raw event bytes are embedded verbatim: re-serializing a decoded
	// copy could change key order and fail verification on PayPal's side.
	verify := verifyRequest{
		AuthAlgo:         delivery.Header.Get("Paypal-Auth-Algo"),
		CertURL:          delivery.Header.Get("Paypal-Cert-Url"),
		TransmissionID:   delivery.Header.Get("Paypal-Transmission-Id"),
		TransmissionSig:  delivery.Header.Get("Paypal-Transmission-Sig"),
		TransmissionTime: delivery.Header.Get("Paypal-Transmission-Time"),
		WebhookID:        p.webhookID,
		WebhookEvent:     json.RawMessage(delivery.Body),
	}

	payload, err := json.Marshal(verify)
	if err != nil {
		return nil, apperrors.SignatureInvalid("malformed webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/notifications/verify-webhook-signature", strings.NewReader(string(payload)))
	if err != nil {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("create verify request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("call webhook verifier: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("read verify response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependency("paypal", fmt.Errorf("webhook verifier: status %d", resp.StatusCode))
	}

	var verdict verifyResponse
	if err := json.Unmarshal(body, &verdict); err != nil || verdict.VerificationStatus != "SUCCESS" {
		return nil, apperrors.SignatureInvalid("webhook signature rejected")
	}

	var event webhookEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		return nil, apperrors.InvalidInput("malformed webhook payload")
	}
	if event.ID == "" || event.EventType == "" {
		return nil, apperrors.InvalidInput("webhook payload missing id or event_type")
	}

	customID := event.Resource.CustomID
	if customID == "" && len(event.Resource.PurchaseUnits) > 0 {
		customID = event.Resource.PurchaseUnits[0].CustomID
	}

	return &provider.Event{
		ID:        event.ID,
		Type:      event.EventType,
		SessionID: event.Resource.ID,
		CardIDs:   provider.SplitCardIDs(customID),
	}, nil
}

// formatAmount renders minor units as the decimal string PayPal expects.
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
