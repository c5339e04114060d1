package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/CardShopGo/internal/provider"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

const (
	// DefaultBaseURL is the live Stripe API endpoint.
	DefaultBaseURL = "https://api.stripe.com"

	// DefaultTolerance bounds how stale a signed webhook timestamp may be
	// before the delivery is treated as a possible replay.
	DefaultTolerance = 5 * time.Minute

	signatureHeader = "Stripe-Signature"
	completionEvent = "checkout.session.completed"
	metadataKey     = "card_ids"
)

// Provider implements provider.Provider against the Stripe Checkout API.
type Provider struct {
	client        provider.HTTPDoer
	baseURL       string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

// Config holds the Stripe credentials and endpoint settings.
type Config struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Tolerance     time.Duration
}

// NewProvider creates a Stripe provider.
func NewProvider(client provider.HTTPDoer, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Provider{
		client:        client,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     tolerance,
		now:           time.Now,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stripe"
}

// IsCompletionEvent reports whether the event type finalizes a checkout.
func (p *Provider) IsCompletionEvent(eventType string) bool {
	return eventType == completionEvent
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession creates a hosted Checkout session. The card ids ride in
// session metadata so the completion webhook can hand them back.
func (p *Provider) CreateSession(ctx context.Context, input *provider.CheckoutInput) (*provider.Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("metadata["+metadataKey+"]", provider.JoinCardIDs(input.CardIDs))

	for i, item := range input.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", strings.ToLower(input.Currency))
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.Amount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.ImageURL != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.ImageURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Dependency("stripe", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Dependency("stripe", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Dependency("stripe",
			fmt.Errorf("create session: status %d: %s", resp.StatusCode, truncate(body, 256)))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperrors.Dependency("stripe", fmt.Errorf("decode session response: %w", err))
	}
	if session.ID == "" || session.URL == "" {
		return nil, apperrors.Dependency("stripe", fmt.Errorf("session response missing id or url"))
	}

	return &provider.Session{ID: session.ID, RedirectURL: session.URL}, nil
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header against an HMAC-SHA256 of
// the raw body and parses the event. The signed payload is
// "<timestamp>.<raw body>", so any mutation of the body bytes before this
// point breaks verification.
func (p *Provider) VerifyWebhook(_ context.Context, delivery *provider.Delivery) (*provider.Event, error) {
	header := delivery.Header.Get(signatureHeader)
	if header == "" {
		return nil, apperrors.SignatureInvalid("missing Stripe-Signature header")
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, apperrors.SignatureInvalid(err.Error())
	}

	if age := p.now().Sub(time.Unix(timestamp, 0)); age > p.tolerance || age < -p.tolerance {
		return nil, apperrors.SignatureInvalid("webhook timestamp outside tolerance")
	}

	expected := computeSignature(timestamp, delivery.Body, p.webhookSecret)
	if !anySignatureMatches(signatures, expected) {
		return nil, apperrors.SignatureInvalid("webhook signature mismatch")
	}

	var event webhookEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		return nil, apperrors.InvalidInput("malformed webhook payload")
	}
	if event.ID == "" || event.Type == "" {
		return nil, apperrors.InvalidInput("webhook payload missing id or type")
	}

	return &provider.Event{
		ID:        event.ID,
		Type:      event.Type,
		SessionID: event.Data.Object.ID,
		CardIDs:   provider.SplitCardIDs(event.Data.Object.Metadata[metadataKey]),
	}, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]". Elements
// with unknown schemes are ignored; multiple v1 entries occur during secret
// rotation.
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
		hasTS      bool
	)

	for _, pair := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed signature timestamp")
			}
			timestamp = ts
			hasTS = true
		case "v1":
			signatures = append(signatures, v)
		}
	}

	if !hasTS || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("signature header missing timestamp or v1 signature")
	}

	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

func anySignatureMatches(candidates []string, expected []byte) bool {
	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
