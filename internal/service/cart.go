package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/repository"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// CartService manages shopper carts. Carts hold price and image snapshots of
// cards so the storefront can render them without refetching; the snapshots
// are advisory and reconciled against live inventory separately.
type CartService struct {
	carts  repository.CartRepository
	cards  repository.CardRepository
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, cards repository.CardRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:  carts,
		cards:  cards,
		logger: logger,
	}
}

// GetCart returns the cart for the key. A key with no stored cart yields an
// empty cart rather than an error, so fresh shoppers need no setup call.
func (s *CartService) GetCart(ctx context.Context, key string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Cart{Key: key, Items: []domain.CartItem{}}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// AddItem puts a card into the cart. The card must exist and still be
// available; re-adding a card already in the cart is a no-op.
func (s *CartService) AddItem(ctx context.Context, key, cardID string) (*domain.Cart, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("load card for cart: %w", err)
	}
	if !card.Available {
		return nil, apperrors.Gone(fmt.Sprintf("card %q is no longer available", cardID))
	}

	cart, err := s.GetCart(ctx, key)
	if err != nil {
		return nil, err
	}

	if cart.AddItem(cartItemFromCard(card)) {
		s.touch(cart)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.logger.DebugContext(ctx, "cart item added",
			slog.String("cart_key", key),
			slog.String("card_id", cardID),
		)
	}

	return cart, nil
}

// RemoveItem takes a card out of the cart. Removing an absent card is a
// no-op.
func (s *CartService) RemoveItem(ctx context.Context, key, cardID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, key)
	if err != nil {
		return nil, err
	}

	if cart.RemoveItem(cardID) {
		s.touch(cart)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
	}

	return cart, nil
}

// SetQuantity adjusts an item's quantity. Unique inventory clamps the value
// to {0,1}: zero removes the item and anything positive pins it to one.
func (s *CartService) SetQuantity(ctx context.Context, key, cardID string, quantity int) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, key)
	if err != nil {
		return nil, err
	}

	if !cart.SetQuantity(cardID, quantity) {
		return nil, apperrors.NotFound("cart item", cardID)
	}

	s.touch(cart)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return cart, nil
}

// ClearCart removes the stored cart entirely.
func (s *CartService) ClearCart(ctx context.Context, key string) error {
	if err := s.carts.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) touch(cart *domain.Cart) {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
}
