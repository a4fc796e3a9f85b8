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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, uint(5), cfg.LedgerMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.LedgerRetryBaseDelay)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "8")
	t.Setenv("LEDGER_RETRY_BASE_DELAY", "5ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, uint(8), cfg.LedgerMaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.LedgerRetryBaseDelay)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero attempts", "LEDGER_MAX_ATTEMPTS", "0"},
		{"non numeric attempts", "LEDGER_MAX_ATTEMPTS", "many"},
		{"bad delay", "LEDGER_RETRY_BASE_DELAY", "soon"},
		{"bad rps", "RATE_LIMIT_RPS", "fast"},
		{"bad burst", "RATE_LIMIT_BURST", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
