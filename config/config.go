package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Paystack configuration
	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string

	// Geocoding configuration
	GeocodeBaseURL   string
	GeocodeUserAgent string
	GeocodeCountry   string
	GeocodeCacheTTL  time.Duration

	// Booking lifecycle timeouts
	BookingRequestTTL time.Duration
	PaymentTTL        time.Duration
	ReaperInterval    time.Duration

	// Rate limiting
	ValidateKeyLimit  int64
	ValidateKeyWindow time.Duration
	WebhookLimit      int64
	WebhookWindow     time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Paystack
		PaystackSecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackCallbackURL: getEnv("PAYSTACK_CALLBACK_URL", ""),

		// Geocoding
		GeocodeBaseURL:   getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: getEnv("GEOCODE_USER_AGENT", "residence-booking/1.0"),
		GeocodeCountry:   getEnv("GEOCODE_COUNTRY", "ng"),
		GeocodeCacheTTL:  getEnvAsDuration("GEOCODE_CACHE_TTL", "24h"),

		// Booking lifecycle
		BookingRequestTTL: getEnvAsDuration("BOOKING_REQUEST_TTL", "72h"),
		PaymentTTL:        getEnvAsDuration("PAYMENT_TTL", "24h"),
		ReaperInterval:    getEnvAsDuration("REAPER_INTERVAL", "10m"),

		// Rate limiting
		ValidateKeyLimit:  int64(getEnvAsInt("VALIDATE_KEY_LIMIT", 10)),
		ValidateKeyWindow: getEnvAsDuration("VALIDATE_KEY_WINDOW", "1m"),
		WebhookLimit:      int64(getEnvAsInt("WEBHOOK_LIMIT", 120)),
		WebhookWindow:     getEnvAsDuration("WEBHOOK_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
