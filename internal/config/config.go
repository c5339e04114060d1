package config

import (
	"fmt"

	pkgconfig "github.com/utafrali/CardShopGo/pkg/config"
)

// Config holds all configuration for the card shop API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CARDSHOP_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"cardshop"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"cardshop_secret"`
	PostgresDB   string `env:"CARDSHOP_DB_NAME" envDefault:"cardshop_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool tuning
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (carts + webhook dedup)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	CartTTLDays   int `env:"CART_TTL_DAYS" envDefault:"30"`
	DedupTTLHours int `env:"WEBHOOK_DEDUP_TTL_HOURS" envDefault:"48"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Stripe
	StripeBaseURL       string `env:"STRIPE_BASE_URL" envDefault:""`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY" envDefault:""`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" envDefault:""`

	// PayPal
	PayPalBaseURL   string `env:"PAYPAL_BASE_URL" envDefault:""`
	PayPalClientID  string `env:"PAYPAL_CLIENT_ID" envDefault:""`
	PayPalSecret    string `env:"PAYPAL_SECRET" envDefault:""`
	PayPalWebhookID string `env:"PAYPAL_WEBHOOK_ID" envDefault:""`

	// Checkout
	SuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/checkout/success"`
	CancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/checkout/cancel"`
	Currency   string `env:"CHECKOUT_CURRENCY" envDefault:"GBP"`
	MinCharge  int64  `env:"CHECKOUT_MIN_CHARGE" envDefault:"30"`

	// Media uploads (card images)
	MediaUploadURL    string `env:"MEDIA_UPLOAD_URL" envDefault:""`
	MediaUploadPreset string `env:"MEDIA_UPLOAD_PRESET" envDefault:""`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Observability
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cardshop config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that env parsing cannot express.
func (c *Config) Validate() error {
	if c.MinCharge < 0 {
		return fmt.Errorf("CHECKOUT_MIN_CHARGE must not be negative, got %d", c.MinCharge)
	}
	if c.CartTTLDays <= 0 {
		return fmt.Errorf("CART_TTL_DAYS must be positive, got %d", c.CartTTLDays)
	}
	if c.DedupTTLHours <= 0 {
		return fmt.Errorf("WEBHOOK_DEDUP_TTL_HOURS must be positive, got %d", c.DedupTTLHours)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
