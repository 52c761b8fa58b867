package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/coursemart/coursemart/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "auth_token", cfg.AuthCookieName)
	assert.False(t, cfg.TokenRevocation)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("TOKEN_REVOCATION", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.TokenRevocation)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "short")
	t.Setenv("APP_ENV", "production")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("APP_ENV", "development")
	t.Setenv("TOKEN_TTL", "-1h")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestTestModeFromGuard(t *testing.T) {
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "false")
	assert.False(t, InTestMode())

	t.Setenv(TestModeEnv, "nonsense")
	assert.False(t, InTestMode())
}
