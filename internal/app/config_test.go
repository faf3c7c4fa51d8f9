package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.InDelta(t, 0.8, cfg.FuzzyThreshold, 1e-9)
	assert.InDelta(t, 1, cfg.MinCalories, 1e-9)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Empty(t, cfg.Origins())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecretKey)
}

func TestLoadConfigOverridesAndValidation(t *testing.T) {
	t.Setenv("LLM_PROVIDER", " Bedrock ")
	t.Setenv("INGEST_RATE_LIMIT", "5")
	t.Setenv("INGEST_RATE_WINDOW", "10s")
	t.Setenv("INGEST_TIMEZONE", "Asia/Kolkata")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, LLMProviderBedrock, cfg.LLMProvider)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.RateWindow)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())

	t.Setenv("LLM_PROVIDER", "mystery")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("INGEST_FUZZY_THRESHOLD", "1.5")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")

	t.Setenv("JWT_SECRET_KEY", "s3cr3t-for-prod")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}
