package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/CardShopGo/internal/domain"
	pkgkafka "github.com/utafrali/CardShopGo/pkg/kafka"
)

// Kafka topic constants for shop domain events.
const (
	TopicCheckoutInitiated = "cardshop.checkout.initiated"
	TopicCardSold          = "cardshop.card.sold"
	TopicCardCreated       = "cardshop.card.created"
)

// Aggregate type constants.
const (
	AggregateTypeCheckout = "checkout"
	AggregateTypeCard     = "card"
)

// Source identifier for events originating from this service.
const SourceCardShop = "cardshop-api"

// CheckoutInitiatedData is the payload for a checkout.initiated event.
type CheckoutInitiatedData struct {
	SessionID string   `json:"session_id"`
	Provider  string   `json:"provider"`
	CardIDs   []string `json:"card_ids"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
}

// CardSoldData is the payload for a card.sold event.
type CardSoldData struct {
	CardID    string `json:"card_id"`
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	EventID   string `json:"event_id"`
}

// CardCreatedData is the payload for a card.created event.
type CardCreatedData struct {
	CardID string `json:"card_id"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
}

// Producer publishes shop domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCheckoutInitiated publishes a checkout.initiated event.
func (p *Producer) PublishCheckoutInitiated(ctx context.Context, sessionID, providerName string, cardIDs []string, amount int64, currency string) error {
	data := CheckoutInitiatedData{
		SessionID: sessionID,
		Provider:  providerName,
		CardIDs:   cardIDs,
		Amount:    amount,
		Currency:  currency,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutInitiated, sessionID, AggregateTypeCheckout, SourceCardShop, data)
	if err != nil {
		return fmt.Errorf("create checkout.initiated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutInitiated, event); err != nil {
		return fmt.Errorf("publish checkout.initiated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.initiated event",
		slog.String("session_id", sessionID),
		slog.String("provider", providerName),
	)

	return nil
}

// PublishCardSold publishes a card.sold event.
func (p *Producer) PublishCardSold(ctx context.Context, cardID, sessionID, providerName, eventID string) error {
	data := CardSoldData{
		CardID:    cardID,
		SessionID: sessionID,
		Provider:  providerName,
		EventID:   eventID,
	}

	event, err := pkgkafka.NewEvent(TopicCardSold, cardID, AggregateTypeCard, SourceCardShop, data)
	if err != nil {
		return fmt.Errorf("create card.sold event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCardSold, event); err != nil {
		return fmt.Errorf("publish card.sold event: %w", err)
	}

	p.logger.DebugContext(ctx, "published card.sold event",
		slog.String("card_id", cardID),
		slog.String("session_id", sessionID),
	)

	return nil
}

// PublishCardCreated publishes a card.created event.
func (p *Producer) PublishCardCreated(ctx context.Context, card *domain.Card) error {
	data := CardCreatedData{
		CardID: card.ID,
		Name:   card.Name,
		Price:  card.Price,
	}

	event, err := pkgkafka.NewEvent(TopicCardCreated, card.ID, AggregateTypeCard, SourceCardShop, data)
	if err != nil {
		return fmt.Errorf("create card.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCardCreated, event); err != nil {
		return fmt.Errorf("publish card.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published card.created event",
		slog.String("card_id", card.ID),
	)

	return nil
}
