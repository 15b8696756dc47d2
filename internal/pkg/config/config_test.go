package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "test-secret-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit.AILimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.AIWindow)
	assert.Equal(t, 5, cfg.RateLimit.AuthLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "Kore", cfg.Gemini.Voice)
	assert.Equal(t, "8091", cfg.ServerPort)
}

func TestLoad_EnvOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_AI_REQUESTS", "3")
	t.Setenv("RATE_LIMIT_AI_WINDOW", "30s")
	t.Setenv("LEDGER_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RateLimit.AILimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.AIWindow)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_AUTH_ATTEMPTS", "-1")
	t.Setenv("RATE_LIMIT_AUTH_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.AuthLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.AuthWindow)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("JWT_SECRET_KEY", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownLedgerDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("LEDGER_DRIVER", "etcd")

	_, err := Load()
	assert.ErrorContains(t, err, "LEDGER_DRIVER")
}
