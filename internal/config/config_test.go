package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "SERVER_ADDR", "GATE_FAIL_OPEN", "GATE_CHECK_TIMEOUT", "MEALPLAN_BURST", "DATABASE_URL")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.True(t, cfg.GateFailOpen)
	assert.Equal(t, 3*time.Second, cfg.GateCheckTimeout)
	assert.Equal(t, 3, cfg.MealPlanBurst)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("GATE_FAIL_OPEN", "false")
	t.Setenv("GATE_CHECK_TIMEOUT", "500ms")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.False(t, cfg.GateFailOpen)
	assert.Equal(t, 500*time.Millisecond, cfg.GateCheckTimeout)
	assert.Equal(t, "whsec_test", cfg.StripeWebhookSecret)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("GATE_CHECK_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresWebhookSecret(t *testing.T) {
	unsetEnv(t, "STRIPE_WEBHOOK_SECRET")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")

	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
}

func TestLoadDatabase_IgnoresServerSettings(t *testing.T) {
	unsetEnv(t, "STRIPE_WEBHOOK_SECRET")
	t.Setenv("DATABASE_URL", "postgres://migrate@db:5432/nextmeal")

	cfg, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "postgres://migrate@db:5432/nextmeal", cfg.DatabaseURL)
}

func TestPriceIDs_SkipsUnset(t *testing.T) {
	cfg := &Config{StripePriceWeek: "price_w", StripePriceYear: "price_y"}

	assert.Equal(t, map[string]string{"week": "price_w", "year": "price_y"}, cfg.PriceIDs())
}
