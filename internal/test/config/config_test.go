package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"layertext-backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/layertext")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")
	t.Setenv("FAL_KEY", "fal-key")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("STRIPE_PRICE_ID", "price_123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "images", cfg.SupabaseStorageBucket)
	assert.Equal(t, 10, cfg.StartingCredits)
	assert.Equal(t, 400, cfg.CreditsPerPackage)
	assert.Equal(t, int64(800), cfg.PackagePriceCents)
	assert.Equal(t, 90*time.Second, cfg.FalTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ProcessingLease)
	assert.True(t, cfg.AllowCreditTopUp)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STARTING_CREDITS", "3")
	t.Setenv("CREDITS_PER_PACKAGE", "100")
	t.Setenv("FAL_TIMEOUT", "45s")
	t.Setenv("PROCESSING_LEASE", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.StartingCredits)
	assert.Equal(t, 100, cfg.CreditsPerPackage)
	assert.Equal(t, 45*time.Second, cfg.FalTimeout)
	assert.Equal(t, 30*time.Second, cfg.ProcessingLease)
	assert.False(t, cfg.AllowCreditTopUp, "top-up is off in production unless enabled")
}

func TestLoad_ReportsEveryBadValue(t *testing.T) {
	setRequired(t)
	t.Setenv("STARTING_CREDITS", "ten")
	t.Setenv("FAL_TIMEOUT", "soon")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTING_CREDITS")
	assert.Contains(t, err.Error(), "FAL_TIMEOUT")
}

func TestValidate_MissingSecrets(t *testing.T) {
	cfg := &config.Config{CreditsPerPackage: 400, ProcessingLease: time.Minute}

	err := cfg.Validate()

	require.Error(t, err)
	for _, key := range []string{"AUTH_JWT_SECRET", "DATABASE_URL", "FAL_KEY", "STRIPE_WEBHOOK_SECRET"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidate_Ranges(t *testing.T) {
	cfg := &config.Config{
		AuthJWTSecret:          "secret",
		DatabaseURL:            "postgres://localhost/layertext",
		SupabaseURL:            "https://project.supabase.co",
		SupabaseServiceRoleKey: "service-role",
		FalKey:                 "fal-key",
		StripeSecretKey:        "sk_test",
		StripeWebhookSecret:    "whsec_test",
		StripePriceID:          "price_123",
		StartingCredits:        -1,
		CreditsPerPackage:      0,
		ProcessingLease:        time.Minute,
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTING_CREDITS")
	assert.Contains(t, err.Error(), "CREDITS_PER_PACKAGE")
}
