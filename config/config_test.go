package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2*time.Minute, cfg.QueryStaleTime)
	assert.Equal(t, 6, cfg.PaymentPollAttempts)
	assert.True(t, cfg.LegacyIsPublicFallback)
	assert.Equal(t, "db", cfg.SessionStore)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.ug")
	t.Setenv("PAYMENT_POLL_TIMEOUT", "90s")
	t.Setenv("LEGACY_IS_PUBLIC_FALLBACK", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.ug", cfg.BackendURL)
	assert.Equal(t, 90*time.Second, cfg.PaymentPollTimeout)
	assert.False(t, cfg.LegacyIsPublicFallback)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("QUERY_STALE_TIME", "soon")

	_, err := Load()
	assert.Error(t, err)
}
