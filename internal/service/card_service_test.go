package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/media"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

func newCardService(cards *mockCardRepository, uploader *mockUploader) *CardService {
	return NewCardService(cards, uploader, nil, newTestLogger())
}

func TestCardService_GetCard(t *testing.T) {
	cards := new(mockCardRepository)
	svc := newCardService(cards, new(mockUploader))

	cards.On("GetByID", mock.Anything, "c1").Return(availableCard("c1", 5000), nil)

	card, err := svc.GetCard(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", card.ID)
}

func TestCardService_ListAvailable(t *testing.T) {
	cards := new(mockCardRepository)
	svc := newCardService(cards, new(mockUploader))

	cards.On("ListAvailable", mock.Anything).
		Return([]domain.Card{*availableCard("c1", 5000)}, nil)

	list, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}

func TestCardService_CreateCard_Success(t *testing.T) {
	cards := new(mockCardRepository)
	uploader := new(mockUploader)
	svc := newCardService(cards, uploader)

	uploader.On("Upload", mock.Anything, "front.jpg", []byte("img-bytes")).
		Return(&media.Asset{URL: "https://img.example.com/front.jpg", PublicID: "front-1"}, nil)
	cards.On("Create", mock.Anything, mock.MatchedBy(func(card *domain.Card) bool {
		return card.ID != "" &&
			card.Name == "Charizard Holo" &&
			card.Price == 249900 &&
			card.Available &&
			len(card.Images) == 1 &&
			card.Images[0].URL == "https://img.example.com/front.jpg" &&
			card.Images[0].Position == 0
	})).Return(nil)

	card, err := svc.CreateCard(context.Background(), &CreateCardInput{
		Name:  "Charizard Holo",
		Price: 249900,
		Images: []ImagePayload{
			{Filename: "front.jpg", ContentType: "image/jpeg", Data: []byte("img-bytes")},
		},
	})
	require.NoError(t, err)
	assert.True(t, card.Available)

	cards.AssertExpectations(t)
	uploader.AssertExpectations(t)
}

func TestCardService_CreateCard_InvalidInput(t *testing.T) {
	svc := newCardService(new(mockCardRepository), new(mockUploader))

	_, err := svc.CreateCard(context.Background(), &CreateCardInput{Name: "", Price: 100})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateCard(context.Background(), &CreateCardInput{Name: "Card", Price: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCardService_CreateCard_UnsupportedImageType(t *testing.T) {
	uploader := new(mockUploader)
	svc := newCardService(new(mockCardRepository), uploader)

	_, err := svc.CreateCard(context.Background(), &CreateCardInput{
		Name:  "Card",
		Price: 100,
		Images: []ImagePayload{
			{Filename: "card.gif", ContentType: "image/gif", Data: []byte("x")},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestCardService_CreateCard_UploadFailure(t *testing.T) {
	cards := new(mockCardRepository)
	uploader := new(mockUploader)
	svc := newCardService(cards, uploader)

	uploader.On("Upload", mock.Anything, "front.jpg", mock.Anything).
		Return(nil, apperrors.Dependency("media", assert.AnError))

	_, err := svc.CreateCard(context.Background(), &CreateCardInput{
		Name:  "Card",
		Price: 100,
		Images: []ImagePayload{
			{Filename: "front.jpg", ContentType: "image/jpeg", Data: []byte("x")},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrDependency)
	cards.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCardService_UploadImage(t *testing.T) {
	uploader := new(mockUploader)
	svc := newCardService(new(mockCardRepository), uploader)

	uploader.On("Upload", mock.Anything, "front.jpg", []byte("img")).
		Return(&media.Asset{URL: "https://img.example.com/u.jpg", PublicID: "u1"}, nil)

	asset, err := svc.UploadImage(context.Background(), &ImagePayload{
		Filename:    "front.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("img"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/u.jpg", asset.URL)
	uploader.AssertExpectations(t)
}

func TestCardService_UploadImage_Rejected(t *testing.T) {
	uploader := new(mockUploader)
	svc := newCardService(new(mockCardRepository), uploader)

	_, err := svc.UploadImage(context.Background(), &ImagePayload{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Data:        []byte("x"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UploadImage(context.Background(), &ImagePayload{
		Filename:    "empty.jpg",
		ContentType: "image/jpeg",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}
