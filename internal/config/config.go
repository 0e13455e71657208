package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is everything the binaries read from the environment.
type Config struct {
	Port     string
	Env      string
	RunLocal bool

	DBDriver    string
	DatabaseURL string

	JWTSecret string

	IdempotencyTable string
	IdempotencyTTL   time.Duration

	EventsQueueURL string

	CloudWatchEnabled   bool
	CloudWatchNamespace string

	RazorpayKeySecret   string
	StripeWebhookSecret string

	PaymentEnforceAmount bool

	AWSRegion           string
	AWSEndpointOverride string
}

// Load reads .env files (missing ones are ignored) and then the process
// environment, which wins.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("APP_ENV", "development"),
		DBDriver:            getEnv("DB_DRIVER", DriverPostgres),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		IdempotencyTable:    os.Getenv("IDEMPOTENCY_TABLE"),
		EventsQueueURL:      os.Getenv("EVENTS_QUEUE_URL"),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Checkout"),
		RazorpayKeySecret:   os.Getenv("RAZORPAY_KEY_SECRET"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointOverride: os.Getenv("AWS_ENDPOINT_OVERRIDE"),
	}

	var err error
	if cfg.RunLocal, err = getBool("RUN_LOCAL", false); err != nil {
		return nil, err
	}
	if cfg.CloudWatchEnabled, err = getBool("CLOUDWATCH_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.PaymentEnforceAmount, err = getBool("PAYMENT_ENFORCE_AMOUNT", true); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "48h")); err != nil {
		return nil, fmt.Errorf("IDEMPOTENCY_TTL: %w", err)
	}

	switch cfg.DBDriver {
	case DriverMemory:
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			if cfg.DatabaseURL, err = dsnFromParts(); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	return cfg, nil
}

func dsnFromParts() (string, error) {
	user := os.Getenv("POSTGRES_USER")
	name := os.Getenv("POSTGRES_DB")
	if user == "" || name == "" {
		return "", errors.New("postgres: set DATABASE_URL or POSTGRES_USER and POSTGRES_DB")
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		getEnv("POSTGRES_HOST", "localhost"),
		user,
		os.Getenv("POSTGRES_PASSWORD"),
		name,
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_SSLMODE", "disable"),
		getEnv("POSTGRES_TIMEZONE", "UTC"),
	), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
