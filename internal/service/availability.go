package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/repository"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

// AvailabilityService reconciles stored carts against live inventory. Cart
// entries can go stale whenever another shopper wins the race for a card;
// reconciliation quietly drops entries whose card is gone or already sold.
type AvailabilityService struct {
	carts  repository.CartRepository
	cards  repository.CardRepository
	logger *slog.Logger
}

// NewAvailabilityService creates a new availability service.
func NewAvailabilityService(carts repository.CartRepository, cards repository.CardRepository, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		carts:  carts,
		cards:  cards,
		logger: logger,
	}
}

// Check returns availability for exactly the requested ids. Ids with no
// matching card row come back false rather than being omitted, so clients can
// range over their own list.
func (s *AvailabilityService) Check(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("card_ids must not be empty")
	}

	availability, err := s.cards.GetAvailability(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}

	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = availability[id]
	}
	return result, nil
}

// ReconcileCart checks every cart entry against the inventory store and
// removes the ones no longer purchasable. Returns the pruned cart and the
// ids that were dropped.
func (s *AvailabilityService) ReconcileCart(ctx context.Context, key string) (*domain.Cart, []string, error) {
	cart, err := s.carts.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Cart{Key: key, Items: []domain.CartItem{}}, nil, nil
		}
		return nil, nil, fmt.Errorf("get cart for reconcile: %w", err)
	}

	ids := cart.CardIDs()
	if len(ids) == 0 {
		if cart.Items == nil {
			cart.Items = []domain.CartItem{}
		}
		return cart, nil, nil
	}

	availability, err := s.cards.GetAvailability(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("check cart availability: %w", err)
	}

	var removed []string
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		// Absent from the map means the card row is gone entirely.
		if availability[item.CardID] {
			kept = append(kept, item)
			continue
		}
		removed = append(removed, item.CardID)
	}
	cart.Items = kept

	if len(removed) > 0 {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, nil, fmt.Errorf("save reconciled cart: %w", err)
		}
		s.logger.InfoContext(ctx, "pruned unavailable cards from cart",
			slog.String("cart_key", key),
			slog.Int("removed", len(removed)),
		)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	return cart, removed, nil
}
