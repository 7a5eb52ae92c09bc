package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ZARINPAL_MERCHANT", "")
	t.Setenv("ZARINPAL_TIMEOUT", "")
	t.Setenv("IDEMPOTENCY_TTL", "")
	t.Setenv("ZARINPAL_UNVERIFIED_SCHEDULE", "")
	t.Setenv("ZARINPAL_RETRIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Zero(t, cfg.ZarinPal.Retries)

	require.Equal(t, 30*time.Second, cfg.ZarinPal.Timeout)
	require.Equal(t, 10*time.Minute, cfg.Idempotency.TTL)
	require.Equal(t, "0 */10 * * * *", cfg.ZarinPal.UnverifiedSchedule)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ZARINPAL_MERCHANT", "00000000-0000-0000-0000-000000000000")
	t.Setenv("ZARINPAL_SANDBOX", "true")
	t.Setenv("ZARINPAL_TIMEOUT", "5s")
	t.Setenv("ZARINPAL_UNVERIFIED_SCHEDULE", "off")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("ZARINPAL_RETRIES", "3")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Server.IsDevelopment())
	require.Equal(t, "00000000-0000-0000-0000-000000000000", cfg.ZarinPal.Merchant)
	require.True(t, cfg.ZarinPal.Sandbox)
	require.Equal(t, 5*time.Second, cfg.ZarinPal.Timeout)
	require.Empty(t, cfg.ZarinPal.UnverifiedSchedule)
	require.Equal(t, time.Hour, cfg.Idempotency.TTL)
	require.Equal(t, 3, cfg.ZarinPal.Retries)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("ZARINPAL_TIMEOUT", "nope")
	t.Setenv("IDEMPOTENCY_TTL", "-1m")
	t.Setenv("ZARINPAL_RETRIES", "-2")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.ZarinPal.Timeout)
	require.Equal(t, 10*time.Minute, cfg.Idempotency.TTL)
	require.Zero(t, cfg.ZarinPal.Retries)
}
