package provider

import (
	"context"
	"net/http"
	"strings"
)

// LineItem is one display line of a checkout session. Amount is in minor
// currency units.
type LineItem struct {
	Name     string
	Amount   int64
	Quantity int
	ImageURL string
}

// CheckoutInput holds the parameters for creating a hosted checkout session.
// CardIDs travels with the session as provider metadata and comes back
// verbatim on the completion webhook; it is the only channel tying a payment
// to inventory.
type CheckoutInput struct {
	CardIDs    []string
	LineItems  []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Session is a created hosted checkout session.
type Session struct {
	ID          string
	RedirectURL string
}

// Delivery is one raw webhook delivery: the exact bytes the provider signed
// plus the request headers. The body must be the unmodified wire payload or
// signature verification will fail.
type Delivery struct {
	Body   []byte
	Header http.Header
}

// Event is a verified, parsed webhook event.
type Event struct {
	ID        string
	Type      string
	SessionID string
	CardIDs   []string
}

// HTTPDoer is the interface for executing HTTP requests against a provider
// API. Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Provider defines the interface for hosted-checkout payment providers.
type Provider interface {
	// Name returns the provider name (e.g., "stripe", "paypal").
	Name() string

	// CreateSession creates a hosted checkout session with the provider.
	CreateSession(ctx context.Context, input *CheckoutInput) (*Session, error)

	// VerifyWebhook authenticates the delivery and parses it into an Event.
	// Returns pkg/errors.ErrSignatureInvalid when the delivery itself fails
	// authentication, and pkg/errors.ErrDependency when delegated
	// verification cannot be completed (so the provider redelivers instead
	// of the event being dropped). Unverified events are never accepted.
	VerifyWebhook(ctx context.Context, delivery *Delivery) (*Event, error)

	// IsCompletionEvent reports whether the event type signals a finalized
	// payment that should trigger fulfillment.
	IsCompletionEvent(eventType string) bool
}

// JoinCardIDs packs card ids into the comma-separated form carried in
// provider metadata.
func JoinCardIDs(ids []string) string {
	return strings.Join(ids, ",")
}

// SplitCardIDs unpacks the comma-separated metadata form, dropping empty
// segments and surrounding whitespace.
func SplitCardIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
