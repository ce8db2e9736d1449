package config_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/retail-bank-ledger/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "RetailBank", cfg.BankName)
	assert.Equal(t, 5, cfg.CreditRatingThreshold)
	assert.Equal(t, 10*time.Minute, cfg.CreditRatingValidity)
	assert.Equal(t, time.Second, cfg.SchedulerInterval)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BANK_NAME", "TestBank")
	t.Setenv("CREDIT_RATING_THRESHOLD", "7")
	t.Setenv("SCHEDULER_INTERVAL", "5s")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "TestBank", cfg.BankName)
	assert.Equal(t, 7, cfg.CreditRatingThreshold)
	assert.Equal(t, 5*time.Second, cfg.SchedulerInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"CREDIT_RATING_THRESHOLD", "0"},
		{"CREDIT_RATING_VALIDITY", "-1m"},
		{"LOAN_REPAYMENT_PERIOD", "0s"},
		{"SCHEDULER_INTERVAL", "-1s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.name, tc.value)

			_, err := config.Load()
			var cfgErr *config.Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.name, cfgErr.Name)
		})
	}
}

func TestLoadValidatesOracleKey(t *testing.T) {
	t.Setenv("ORACLE_KEY", "not-hex")

	_, err := config.Load()
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ORACLE_KEY", cfgErr.Name)
}

func TestOraclePublicKeyRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	t.Setenv("ORACLE_KEY", hex.EncodeToString(pub))

	cfg, err := config.Load()
	require.NoError(t, err)

	decoded, err := cfg.OraclePublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, decoded)
}
