package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CardShopGo/internal/domain"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

func newCartService(carts *mockCartRepository, cards *mockCardRepository) *CartService {
	return NewCartService(carts, cards, newTestLogger())
}

func storedCart(key string, ids ...string) *domain.Cart {
	cart := &domain.Cart{Key: key}
	for _, id := range ids {
		cart.AddItem(domain.CartItem{CardID: id, Name: "Card " + id, Price: 1000})
	}
	return cart
}

func TestCartService_GetCart_EmptyForNewKey(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "fresh").Return(nil, apperrors.NotFound("cart", "fresh"))

	cart, err := svc.GetCart(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", cart.Key)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
}

func TestCartService_AddItem_Success(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newCartService(carts, cards)

	cards.On("GetByID", mock.Anything, "c1").Return(availableCard("c1", 249900), nil)
	carts.On("Get", mock.Anything, "k1").Return(nil, apperrors.NotFound("cart", "k1"))
	carts.On("Save", mock.Anything, mock.MatchedBy(func(cart *domain.Cart) bool {
		return cart.Key == "k1" &&
			len(cart.Items) == 1 &&
			cart.Items[0].CardID == "c1" &&
			cart.Items[0].Price == 249900 &&
			cart.Items[0].Quantity == 1 &&
			!cart.UpdatedAt.IsZero()
	})).Return(nil)

	cart, err := svc.AddItem(context.Background(), "k1", "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "https://img.example.com/c1.jpg", cart.Items[0].ImageURL)

	carts.AssertExpectations(t)
}

func TestCartService_AddItem_DuplicateIsNoOp(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newCartService(carts, cards)

	cards.On("GetByID", mock.Anything, "c1").Return(availableCard("c1", 1000), nil)
	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)

	cart, err := svc.AddItem(context.Background(), "k1", "c1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	// No write happens for a no-op add.
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_AddItem_UnavailableCard(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newCartService(carts, cards)

	sold := availableCard("c1", 1000)
	sold.Available = false
	cards.On("GetByID", mock.Anything, "c1").Return(sold, nil)

	_, err := svc.AddItem(context.Background(), "k1", "c1")
	assert.ErrorIs(t, err, apperrors.ErrGone)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_AddItem_UnknownCard(t *testing.T) {
	cards := new(mockCardRepository)
	svc := newCartService(new(mockCartRepository), cards)

	cards.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NotFound("card", "ghost"))

	_, err := svc.AddItem(context.Background(), "k1", "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1", "c2"), nil)
	carts.On("Save", mock.Anything, mock.MatchedBy(func(cart *domain.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].CardID == "c2"
	})).Return(nil)

	cart, err := svc.RemoveItem(context.Background(), "k1", "c1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	carts.AssertExpectations(t)
}

func TestCartService_RemoveItem_AbsentIsNoOp(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)

	cart, err := svc.RemoveItem(context.Background(), "k1", "ghost")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_SetQuantity_ClampsToOne(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)
	carts.On("Save", mock.Anything, mock.MatchedBy(func(cart *domain.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].Quantity == 1
	})).Return(nil)

	cart, err := svc.SetQuantity(context.Background(), "k1", "c1", 9)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestCartService_SetQuantity_ZeroRemoves(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)
	carts.On("Save", mock.Anything, mock.MatchedBy(func(cart *domain.Cart) bool {
		return len(cart.Items) == 0
	})).Return(nil)

	cart, err := svc.SetQuantity(context.Background(), "k1", "c1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_SetQuantity_UnknownItem(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)

	_, err := svc.SetQuantity(context.Background(), "k1", "ghost", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartService_ClearCart(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newCartService(carts, new(mockCardRepository))

	carts.On("Delete", mock.Anything, "k1").Return(nil)

	err := svc.ClearCart(context.Background(), "k1")
	require.NoError(t, err)
	carts.AssertExpectations(t)
}
