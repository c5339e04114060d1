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

func newAvailabilityService(carts *mockCartRepository, cards *mockCardRepository) *AvailabilityService {
	return NewAvailabilityService(carts, cards, newTestLogger())
}

func TestAvailabilityService_ReconcileCart_AllAvailable(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newAvailabilityService(carts, cards)

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1", "c2"), nil)
	cards.On("GetAvailability", mock.Anything, []string{"c1", "c2"}).
		Return(map[string]bool{"c1": true, "c2": true}, nil)

	cart, removed, err := svc.ReconcileCart(context.Background(), "k1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, removed)

	// An unchanged cart is not rewritten.
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAvailabilityService_ReconcileCart_RemovesSoldAndMissing(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newAvailabilityService(carts, cards)

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1", "c2", "c3"), nil)
	// c2 was sold; c3's row is gone entirely.
	cards.On("GetAvailability", mock.Anything, []string{"c1", "c2", "c3"}).
		Return(map[string]bool{"c1": true, "c2": false}, nil)
	carts.On("Save", mock.Anything, mock.MatchedBy(func(cart *domain.Cart) bool {
		return len(cart.Items) == 1 && cart.Items[0].CardID == "c1"
	})).Return(nil)

	cart, removed, err := svc.ReconcileCart(context.Background(), "k1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "c1", cart.Items[0].CardID)
	assert.Equal(t, []string{"c2", "c3"}, removed)

	carts.AssertExpectations(t)
}

func TestAvailabilityService_ReconcileCart_EmptyCart(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newAvailabilityService(carts, cards)

	carts.On("Get", mock.Anything, "k1").Return(&domain.Cart{Key: "k1"}, nil)

	cart, removed, err := svc.ReconcileCart(context.Background(), "k1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Empty(t, removed)
	cards.AssertNotCalled(t, "GetAvailability", mock.Anything, mock.Anything)
}

func TestAvailabilityService_ReconcileCart_NoStoredCart(t *testing.T) {
	carts := new(mockCartRepository)
	svc := newAvailabilityService(carts, new(mockCardRepository))

	carts.On("Get", mock.Anything, "fresh").Return(nil, apperrors.NotFound("cart", "fresh"))

	cart, removed, err := svc.ReconcileCart(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", cart.Key)
	assert.Empty(t, cart.Items)
	assert.Empty(t, removed)
}

func TestAvailabilityService_ReconcileCart_StoreError(t *testing.T) {
	carts := new(mockCartRepository)
	cards := new(mockCardRepository)
	svc := newAvailabilityService(carts, cards)

	carts.On("Get", mock.Anything, "k1").Return(storedCart("k1", "c1"), nil)
	cards.On("GetAvailability", mock.Anything, []string{"c1"}).Return(nil, assert.AnError)

	_, _, err := svc.ReconcileCart(context.Background(), "k1")
	assert.Error(t, err)
}

func TestAvailabilityService_Check(t *testing.T) {
	cards := new(mockCardRepository)
	svc := newAvailabilityService(new(mockCartRepository), cards)

	// c3 has no row at all; it must still appear in the result as false.
	cards.On("GetAvailability", mock.Anything, []string{"c1", "c2", "c3"}).
		Return(map[string]bool{"c1": true, "c2": false}, nil)

	result, err := svc.Check(context.Background(), []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c1": true, "c2": false, "c3": false}, result)
}

func TestAvailabilityService_Check_EmptyIDs(t *testing.T) {
	svc := newAvailabilityService(new(mockCartRepository), new(mockCardRepository))

	_, err := svc.Check(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAvailabilityService_Check_StoreError(t *testing.T) {
	cards := new(mockCardRepository)
	svc := newAvailabilityService(new(mockCartRepository), cards)

	cards.On("GetAvailability", mock.Anything, []string{"c1"}).Return(nil, assert.AnError)

	_, err := svc.Check(context.Background(), []string{"c1"})
	assert.Error(t, err)
}
