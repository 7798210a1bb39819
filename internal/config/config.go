package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	// Auth
	AuthJWTSecret string

	// Supabase
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseStorageBucket  string

	// fal.ai
	FalKey     string
	FalBaseURL string
	FalModel   string
	FalTimeout time.Duration

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	AppURL              string

	// Credits
	StartingCredits   int
	CreditsPerPackage int
	PackagePriceCents int64
	ProcessingLease   time.Duration
	AllowCreditTopUp  bool

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "images"),

		FalKey:     getEnv("FAL_KEY", ""),
		FalBaseURL: getEnv("FAL_BASE_URL", "https://queue.fal.run"),
		FalModel:   getEnv("FAL_MODEL", "fal-ai/bria/background/remove"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:       getEnv("STRIPE_PRICE_ID", ""),
		AppURL:              getEnv("APP_URL", "http://localhost:3000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	var errs error
	var err error
	if cfg.FalTimeout, err = getDuration("FAL_TIMEOUT", 90*time.Second); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.ProcessingLease, err = getDuration("PROCESSING_LEASE", 2*time.Minute); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.StartingCredits, err = getInt("STARTING_CREDITS", 10); err != nil {
		errs = multierr.Append(errs, err)
	}
	if cfg.CreditsPerPackage, err = getInt("CREDITS_PER_PACKAGE", 400); err != nil {
		errs = multierr.Append(errs, err)
	}
	price, err := getInt("PACKAGE_PRICE_CENTS", 800)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	cfg.PackagePriceCents = int64(price)
	if cfg.AllowCreditTopUp, err = getBool("ALLOW_CREDIT_TOPUP", cfg.Environment != "production"); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid configuration: %w", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs error
	if c.AuthJWTSecret == "" {
		errs = multierr.Append(errs, fmt.Errorf("AUTH_JWT_SECRET is required"))
	}
	if c.DatabaseURL == "" {
		errs = multierr.Append(errs, fmt.Errorf("DATABASE_URL is required"))
	}
	if c.SupabaseURL == "" {
		errs = multierr.Append(errs, fmt.Errorf("SUPABASE_URL is required"))
	}
	if c.SupabaseServiceRoleKey == "" {
		errs = multierr.Append(errs, fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required"))
	}
	if c.FalKey == "" {
		errs = multierr.Append(errs, fmt.Errorf("FAL_KEY is required"))
	}
	if c.StripeSecretKey == "" {
		errs = multierr.Append(errs, fmt.Errorf("STRIPE_SECRET_KEY is required"))
	}
	if c.StripeWebhookSecret == "" {
		errs = multierr.Append(errs, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.StripePriceID == "" {
		errs = multierr.Append(errs, fmt.Errorf("STRIPE_PRICE_ID is required"))
	}
	if c.StartingCredits < 0 {
		errs = multierr.Append(errs, fmt.Errorf("STARTING_CREDITS must not be negative"))
	}
	if c.CreditsPerPackage <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("CREDITS_PER_PACKAGE must be positive"))
	}
	if c.ProcessingLease <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("PROCESSING_LEASE must be positive"))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
