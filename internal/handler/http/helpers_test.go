package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/CardShopGo/internal/domain"
	"github.com/utafrali/CardShopGo/internal/provider"
)

// --- Mock Card Repository ---

type mockCardRepository struct {
	mock.Mock
}

func (m *mockCardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *mockCardRepository) GetAvailability(ctx context.Context, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockCardRepository) MarkSold(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCardRepository) Create(ctx context.Context, card *domain.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *mockCardRepository) ListAvailable(ctx context.Context) ([]domain.Card, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

// --- Mock Cart Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, key string) (*domain.Cart, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Stub Provider ---

// stubProvider implements provider.Provider with pluggable behavior.
type stubProvider struct {
	name       string
	session    *provider.Session
	sessionErr error
	event      *provider.Event
	verifyErr  error
	completion string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) CreateSession(_ context.Context, _ *provider.CheckoutInput) (*provider.Session, error) {
	return p.session, p.sessionErr
}

func (p *stubProvider) VerifyWebhook(_ context.Context, _ *provider.Delivery) (*provider.Event, error) {
	return p.event, p.verifyErr
}

func (p *stubProvider) IsCompletionEvent(eventType string) bool {
	return eventType == p.completion
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func availableCard(id string, price int64) *domain.Card {
	return &domain.Card{
		ID:        id,
		Name:      "Card " + id,
		Price:     price,
		Available: true,
	}
}

func withCartKey(req *http.Request, key string) *http.Request {
	req.Header.Set(CartKeyHeader, key)
	return req
}
