package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server configuration
	Port        string `envconfig:"PORT" default:"8090"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	PublicURL   string `envconfig:"PUBLIC_URL" default:"http://localhost:8090"`

	// Remote backend
	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:8080/api"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	SandboxBackend bool          `envconfig:"SANDBOX_BACKEND" default:"false"`

	// Redis configuration
	RedisURL string `envconfig:"REDIS_URL" default:""`

	// PubNub configuration
	PubNubPublishKey   string `envconfig:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `envconfig:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `envconfig:"PUBNUB_SECRET_KEY"`
	PubNubUserID       string `envconfig:"PUBNUB_USER_ID" default:"ticket-portal"`

	// Query cache
	QueryStaleTime time.Duration `envconfig:"QUERY_STALE_TIME" default:"2m"`

	// Checkout workflow
	CheckoutIdleTTL     time.Duration `envconfig:"CHECKOUT_IDLE_TTL" default:"30m"`
	PaymentPollInterval time.Duration `envconfig:"PAYMENT_POLL_INTERVAL" default:"2s"`
	PaymentPollMax      time.Duration `envconfig:"PAYMENT_POLL_MAX_INTERVAL" default:"30s"`
	PaymentPollAttempts int           `envconfig:"PAYMENT_POLL_ATTEMPTS" default:"6"`
	PaymentPollTimeout  time.Duration `envconfig:"PAYMENT_POLL_TIMEOUT" default:"3m"`

	// Compatibility with events that predate the status field
	LegacyIsPublicFallback bool `envconfig:"LEGACY_IS_PUBLIC_FALLBACK" default:"true"`

	// Cleanup configuration
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1m"`

	// Sessions
	SessionStore  string `envconfig:"SESSION_STORE" default:"db"` // db, redis, memory
	SessionSecret string `envconfig:"SESSION_SECRET"`

	// Media hosting
	MediaUploadURL    string `envconfig:"MEDIA_UPLOAD_URL"`
	MediaUploadPreset string `envconfig:"MEDIA_UPLOAD_PRESET"`
	MediaMaxDimension int    `envconfig:"MEDIA_MAX_DIMENSION" default:"2048"`

	// Contact form
	ContactRecipient string `envconfig:"CONTACT_RECIPIENT" default:"info@localhost"`

	// Rate limiting
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`

	// Monitoring
	EnableMetrics bool   `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   string `envconfig:"METRICS_PORT" default:"9090"`
	OTLPEndpoint  string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
