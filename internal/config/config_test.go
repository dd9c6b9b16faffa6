package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_COUNTRY_CODE", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("OTP_SEND_LIMIT", "")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "+91", cfg.DefaultCountryCode)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 5, cfg.OTPSendLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RATE_LIMIT_RPS", "1.5")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.InDelta(t, 1.5, cfg.RateLimitRPS, 0.0001)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("SMS_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 10*time.Second, cfg.SMSTimeout)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DefaultCountryCode: "91"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DEFAULT_COUNTRY_CODE")

	cfg = &Config{DatabaseURL: "postgres://x", MongoURI: "mongodb://x", JWTSecret: "s", DefaultCountryCode: "+91"}
	assert.NoError(t, cfg.Validate())
}
