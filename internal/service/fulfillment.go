package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/CardShopGo/internal/event"
	"github.com/utafrali/CardShopGo/internal/provider"
	"github.com/utafrali/CardShopGo/internal/repository"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
	"github.com/utafrali/CardShopGo/pkg/idempotency"
)

// FulfillmentService turns verified payment webhooks into inventory updates.
// The pipeline is: authenticate the delivery, suppress replays, filter to
// completion events, then retire each purchased card independently.
type FulfillmentService struct {
	cards     repository.CardRepository
	providers map[string]provider.Provider
	dedup     idempotency.Store
	producer  *event.Producer
	logger    *slog.Logger
}

// NewFulfillmentService creates a new fulfillment service.
func NewFulfillmentService(
	cards repository.CardRepository,
	providers map[string]provider.Provider,
	dedup idempotency.Store,
	producer *event.Producer,
	logger *slog.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		cards:     cards,
		providers: providers,
		dedup:     dedup,
		producer:  producer,
		logger:    logger,
	}
}

// FulfillmentResult summarizes one webhook delivery. A delivery that was
// verified but intentionally not acted on (wrong event type, replay, missing
// metadata) is still a success from the provider's point of view.
type FulfillmentResult struct {
	EventID   string   `json:"event_id"`
	EventType string   `json:"event_type"`
	SessionID string   `json:"session_id,omitempty"`
	Fulfilled []string `json:"fulfilled,omitempty"`
	Skipped   []string `json:"skipped,omitempty"`
	Failed    []string `json:"failed,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Ignored   bool     `json:"ignored,omitempty"`
}

// HandleWebhook processes one raw webhook delivery from the named provider.
// An error return means the delivery must NOT be acknowledged; per-card
// failures inside an authenticated completion event are not errors, since
// rejecting the whole delivery would force the provider to replay work that
// already succeeded.
func (s *FulfillmentService) HandleWebhook(ctx context.Context, providerName string, delivery *provider.Delivery) (*FulfillmentResult, error) {
	prov, ok := s.providers[providerName]
	if !ok {
		return nil, apperrors.NotFound("webhook provider", providerName)
	}

	evt, err := prov.VerifyWebhook(ctx, delivery)
	if err != nil {
		return nil, fmt.Errorf("verify %s webhook: %w", providerName, err)
	}

	result := &FulfillmentResult{
		EventID:   evt.ID,
		EventType: evt.Type,
		SessionID: evt.SessionID,
	}

	if !prov.IsCompletionEvent(evt.Type) {
		s.logger.DebugContext(ctx, "ignoring non-completion webhook event",
			slog.String("provider", providerName),
			slog.String("event_id", evt.ID),
			slog.String("event_type", evt.Type),
		)
		result.Ignored = true
		return result, nil
	}

	// Event ids are only unique within one provider, so the dedup record
	// carries the provider name too.
	dedupID := providerName + ":" + evt.ID

	// Replay suppression is best effort: a dedup store outage degrades to
	// redundant conditional updates, which are harmless.
	seen, err := s.dedup.Contains(ctx, dedupID)
	if err != nil {
		s.logger.WarnContext(ctx, "dedup lookup failed, processing anyway",
			slog.String("event_id", evt.ID),
			slog.String("error", err.Error()),
		)
	}
	if seen {
		s.logger.InfoContext(ctx, "suppressing replayed webhook event",
			slog.String("provider", providerName),
			slog.String("event_id", evt.ID),
		)
		result.Duplicate = true
		return result, nil
	}

	if len(evt.CardIDs) == 0 {
		// A completion event with no card metadata cannot be fulfilled, and
		// replaying it will not grow metadata. Log loudly and acknowledge.
		s.logger.ErrorContext(ctx, "completion event carries no card ids",
			slog.String("provider", providerName),
			slog.String("event_id", evt.ID),
			slog.String("session_id", evt.SessionID),
		)
		result.Ignored = true
		return result, nil
	}

	for _, cardID := range evt.CardIDs {
		switch s.fulfillCard(ctx, prov, evt, cardID) {
		case cardFulfilled:
			result.Fulfilled = append(result.Fulfilled, cardID)
		case cardSkipped:
			result.Skipped = append(result.Skipped, cardID)
		case cardFailed:
			result.Failed = append(result.Failed, cardID)
		}
	}

	// Only a fully processed event is recorded: leaving a partly failed
	// event unrecorded lets the provider's retry take another pass at the
	// failed cards, while the conditional update keeps the done ones safe.
	if len(result.Failed) == 0 {
		if err := s.dedup.Add(ctx, dedupID); err != nil {
			s.logger.WarnContext(ctx, "failed to record processed event",
				slog.String("event_id", evt.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "webhook fulfillment finished",
		slog.String("provider", providerName),
		slog.String("event_id", evt.ID),
		slog.String("session_id", evt.SessionID),
		slog.Int("fulfilled", len(result.Fulfilled)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)),
	)

	return result, nil
}

type cardOutcome int

const (
	cardFulfilled cardOutcome = iota
	cardSkipped
	cardFailed
)

func (s *FulfillmentService) fulfillCard(ctx context.Context, prov provider.Provider, evt *provider.Event, cardID string) cardOutcome {
	err := s.cards.MarkSold(ctx, cardID)
	switch {
	case err == nil:
		if s.producer != nil {
			if pubErr := s.producer.PublishCardSold(ctx, cardID, evt.SessionID, prov.Name(), evt.ID); pubErr != nil {
				s.logger.ErrorContext(ctx, "failed to publish card.sold event",
					slog.String("card_id", cardID),
					slog.String("error", pubErr.Error()),
				)
			}
		}
		return cardFulfilled

	case errors.Is(err, repository.ErrAlreadySold):
		s.logger.InfoContext(ctx, "card already retired",
			slog.String("card_id", cardID),
			slog.String("event_id", evt.ID),
		)
		return cardSkipped

	case errors.Is(err, apperrors.ErrNotFound):
		s.logger.WarnContext(ctx, "sold card not found in inventory",
			slog.String("card_id", cardID),
			slog.String("event_id", evt.ID),
		)
		return cardSkipped

	default:
		s.logger.ErrorContext(ctx, "failed to retire card",
			slog.String("card_id", cardID),
			slog.String("event_id", evt.ID),
			slog.String("error", err.Error()),
		)
		return cardFailed
	}
}
