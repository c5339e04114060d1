package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/event"
	"github.com/utafrali/CardShopGo/internal/provider"
	"github.com/utafrali/CardShopGo/internal/repository"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// CheckoutConfig holds the shop-level checkout settings.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string

	// MinCharge is the smallest order total, in minor units, the payment
	// providers will accept.
	MinCharge int64
}

// CheckoutService validates an intended purchase and opens a hosted checkout
// session with the selected payment provider.
type CheckoutService struct {
	cards     repository.CardRepository
	providers map[string]provider.Provider
	producer  *event.Producer
	logger    *slog.Logger
	cfg       CheckoutConfig
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	cards repository.CardRepository,
	providers map[string]provider.Provider,
	producer *event.Producer,
	logger *slog.Logger,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		cards:     cards,
		providers: providers,
		producer:  producer,
		logger:    logger,
		cfg:       cfg,
	}
}

// CheckoutItem is one line of the shopper's intended purchase: the card and
// the price it was rendered at, in minor currency units.
type CheckoutItem struct {
	CardID string `json:"card_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Price  int64  `json:"price" validate:"required,gt=0"`
}

// CreateSessionInput holds the parameters for initiating checkout.
type CreateSessionInput struct {
	Provider string         `json:"provider" validate:"required,oneof=stripe paypal"`
	Items    []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

// CheckoutSession is the client-facing result of session creation.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	Provider    string `json:"provider"`
	RedirectURL string `json:"redirect_url"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// CreateSession creates a provider checkout session from the shopper's line
// items, carrying the card ids as metadata. The submitted prices are charged
// as-is: the catalog was server-fetched at render time, so the price the
// shopper saw is the price charged, never recomputed here. An advisory bulk
// availability read screens out cards that already sold; it takes no
// reservation, the authoritative check being the conditional update at
// fulfillment time.
func (s *CheckoutService) CreateSession(ctx context.Context, input *CreateSessionInput) (*CheckoutSession, error) {
	prov, ok := s.providers[input.Provider]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment provider %q", input.Provider))
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("at least one line item is required")
	}

	var (
		ids       []string
		lineItems []provider.LineItem
		total     int64
	)
	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.CardID == "" {
			return nil, apperrors.InvalidInput("line item is missing a card id")
		}
		if item.Price <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("card %q has a non-positive price", item.CardID))
		}
		if _, dup := seen[item.CardID]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("card %q appears more than once", item.CardID))
		}
		seen[item.CardID] = struct{}{}

		ids = append(ids, item.CardID)
		lineItems = append(lineItems, provider.LineItem{
			Name:     item.Name,
			Amount:   item.Price,
			Quantity: 1,
		})
		total += item.Price
	}

	if total < s.cfg.MinCharge {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"order total %d is below the provider minimum of %d", total, s.cfg.MinCharge))
	}

	availability, err := s.cards.GetAvailability(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("screen availability for checkout: %w", err)
	}
	for _, id := range ids {
		if !availability[id] {
			return nil, apperrors.Gone(fmt.Sprintf("card %q is no longer available", id))
		}
	}

	session, err := prov.CreateSession(ctx, &provider.CheckoutInput{
		CardIDs:    ids,
		LineItems:  lineItems,
		Currency:   s.cfg.Currency,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s session: %w", input.Provider, err)
	}

	if s.producer != nil {
		if pubErr := s.producer.PublishCheckoutInitiated(ctx, session.ID, prov.Name(), ids, total, s.cfg.Currency); pubErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish checkout.initiated event",
				slog.String("session_id", session.ID),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", session.ID),
		slog.String("provider", prov.Name()),
		slog.Int("card_count", len(ids)),
		slog.Int64("amount", total),
	)

	return &CheckoutSession{
		SessionID:   session.ID,
		Provider:    prov.Name(),
		RedirectURL: session.RedirectURL,
		Amount:      total,
		Currency:    s.cfg.Currency,
	}, nil
}

// cartItemFromCard builds the cart entry snapshot for a card.
func cartItemFromCard(card *domain.Card) domain.CartItem {
	return domain.CartItem{
		CardID:   card.ID,
		Name:     card.Name,
		Price:    card.Price,
		ImageURL: card.PrimaryImageURL(),
		Quantity: 1,
	}
}
