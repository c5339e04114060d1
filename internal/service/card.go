package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/event"
	"github.com/utafrali/CardShopGo/internal/media"
	"github.com/utafrali/CardShopGo/internal/repository"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// CardService implements catalog reads and the admin card intake flow.
type CardService struct {
	cards    repository.CardRepository
	uploader media.Uploader
	producer *event.Producer
	logger   *slog.Logger
}

// NewCardService creates a new card service.
func NewCardService(
	cards repository.CardRepository,
	uploader media.Uploader,
	producer *event.Producer,
	logger *slog.Logger,
) *CardService {
	return &CardService{
		cards:    cards,
		uploader: uploader,
		producer: producer,
		logger:   logger,
	}
}

// GetCard returns a single card by id.
func (s *CardService) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return card, nil
}

// ListAvailable returns the purchasable catalog.
func (s *CardService) ListAvailable(ctx context.Context) ([]domain.Card, error) {
	cards, err := s.cards.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available cards: %w", err)
	}
	return cards, nil
}

// ImagePayload is one raw image submitted with a new card.
type ImagePayload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateCardInput holds the admin intake parameters. Price is in minor
// currency units.
type CreateCardInput struct {
	Name   string `json:"name" validate:"required,min=2,max=200"`
	Price  int64  `json:"price" validate:"required,gt=0"`
	Images []ImagePayload
}

// CreateCard uploads the card's images and inserts it into inventory as
// available. Image uploads happen before the insert so a half-created card
// never appears in the catalog.
func (s *CardService) CreateCard(ctx context.Context, input *CreateCardInput) (*domain.Card, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be greater than zero")
	}

	var images []domain.CardImage
	for i, img := range input.Images {
		if !media.ContentTypeAllowed(img.ContentType) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported image content type %q", img.ContentType))
		}
		asset, err := s.uploader.Upload(ctx, img.Filename, img.Data)
		if err != nil {
			return nil, fmt.Errorf("upload card image: %w", err)
		}
		images = append(images, domain.CardImage{
			URL:      asset.URL,
			PublicID: asset.PublicID,
			Position: i,
		})
	}

	card := &domain.Card{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Price:     input.Price,
		Available: true,
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	if s.producer != nil {
		if pubErr := s.producer.PublishCardCreated(ctx, card); pubErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish card.created event",
				slog.String("card_id", card.ID),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "card created",
		slog.String("card_id", card.ID),
		slog.String("name", card.Name),
		slog.Int64("price", card.Price),
	)

	return card, nil
}

// UploadImage stores a single image with the image host and returns the
// hosted asset. Used by the admin UI to stage images before card intake.
func (s *CardService) UploadImage(ctx context.Context, img *ImagePayload) (*media.Asset, error) {
	if len(img.Data) == 0 {
		return nil, apperrors.InvalidInput("image data is required")
	}
	if !media.ContentTypeAllowed(img.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported image content type %q", img.ContentType))
	}

	asset, err := s.uploader.Upload(ctx, img.Filename, img.Data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("filename", img.Filename),
		slog.String("public_id", asset.PublicID),
	)

	return asset, nil
}
