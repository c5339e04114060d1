package repository

import (
	"context"
	"errors"

	"github.com/utafrali/CardShopGo/internal/domain"
)

// ErrAlreadySold is returned by MarkSold when the card exists but its
// availability flag is already false. Losing the compare-and-swap this way is
// benign: a duplicate webhook delivery or a concurrent fulfillment for the
// same card got there first.
var ErrAlreadySold = errors.New("card is no longer available")

// CardRepository defines the persistence operations the pipeline needs from
// the inventory store. The store must provide single-row atomicity; nothing
// here performs a read-then-write pair.
type CardRepository interface {
	// GetByID retrieves a card with its images.
	GetByID(ctx context.Context, id string) (*domain.Card, error)

	// GetAvailability returns the availability flag for each of the given
	// ids that exists. Ids with no matching row are absent from the result.
	GetAvailability(ctx context.Context, ids []string) (map[string]bool, error)

	// MarkSold atomically flips availability to false only if it is
	// currently true. Returns ErrAlreadySold if the flag was already false
	// and pkg/errors.ErrNotFound if no such card exists.
	MarkSold(ctx context.Context, id string) error

	// Create inserts a card and its images in a single transaction.
	Create(ctx context.Context, card *domain.Card) error

	// ListAvailable returns all cards still for sale, newest first.
	ListAvailable(ctx context.Context) ([]domain.Card, error)
}

// CartRepository persists shopper carts keyed by a client-held cart key.
type CartRepository interface {
	// Get retrieves the cart for the key. Returns pkg/errors.ErrNotFound if
	// no cart is stored under the key.
	Get(ctx context.Context, key string) (*domain.Cart, error)

	// Save persists the cart under its key.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the cart for the key.
	Delete(ctx context.Context, key string) error
}
