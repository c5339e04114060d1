package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/CardShopGo/internal/service"
	"github.com/utafrali/CardShopGo/pkg/health"
	"github.com/utafrali/CardShopGo/pkg/middleware"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	Checkout     *service.CheckoutService
	Fulfillment  *service.FulfillmentService
	Carts        *service.CartService
	Availability *service.AvailabilityService
	Cards        *service.CardService
	Health       *health.Handler
	Logger       *slog.Logger
}

// NewRouter creates a chi router with all shop routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("cardshop"))
	r.Use(middleware.Tracing("cardshop"))
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.Fulfillment, deps.Logger)
	cartHandler := NewCartHandler(deps.Carts, deps.Availability, deps.Logger)
	cardHandler := NewCardHandler(deps.Cards, deps.Availability, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Webhooks stay outside the JSON content-type gate: providers set
		// their own content types and sign the raw body.
		r.Post("/webhooks/{provider}", webhookHandler.Receive)

		r.Get("/cards", cardHandler.ListAvailable)
		r.Get("/cards/{id}", cardHandler.GetCard)

		// Admin intake is multipart, not JSON.
		r.Post("/admin/cards", cardHandler.CreateCard)
		r.Post("/admin/cards/images", cardHandler.UploadImage)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/cards/availability", cardHandler.CheckAvailability)
			r.Post("/checkout/sessions", checkoutHandler.CreateSession)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{cardId}", cartHandler.SetQuantity)
				r.Delete("/items/{cardId}", cartHandler.RemoveItem)
				r.Post("/reconcile", cartHandler.Reconcile)
			})
		})
	})

	return r
}
