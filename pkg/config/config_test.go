package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpbot/gostandx/standx/types"
)

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("STANDX_WALLET_ADDRESS", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	t.Setenv("STANDX_PRIVATE_KEY", "0000000000000000000000000000000000000000000000000000000000000001")
	t.Setenv("STANDX_CHAIN", "")

	creds, err := CredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", creds.WalletAddress)
	assert.Equal(t, types.ChainBSC, creds.Chain, "chain defaults to bsc")

	t.Setenv("STANDX_CHAIN", "arbitrum")
	creds, err = CredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, types.ChainArbitrum, creds.Chain)
}

func TestCredentialsFromEnvErrors(t *testing.T) {
	t.Run("missing address", func(t *testing.T) {
		t.Setenv("STANDX_WALLET_ADDRESS", "")
		t.Setenv("STANDX_PRIVATE_KEY", "ab")
		_, err := CredentialsFromEnv()
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("STANDX_WALLET_ADDRESS", "0xabc")
		t.Setenv("STANDX_PRIVATE_KEY", "")
		_, err := CredentialsFromEnv()
		assert.Error(t, err)
	})

	t.Run("unknown chain", func(t *testing.T) {
		t.Setenv("STANDX_WALLET_ADDRESS", "0xabc")
		t.Setenv("STANDX_PRIVATE_KEY", "ab")
		t.Setenv("STANDX_CHAIN", "solana")
		_, err := CredentialsFromEnv()
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
ticker: BTC
api:
  timeout: 15s
stream:
  reconnectDelay: 2s
  maxFailures: 10
retry:
  maxAttempts: 5
  backoff: 500ms
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "BTC", s.Ticker)
	assert.Equal(t, 15*time.Second, s.API.Timeout.Std())
	assert.Equal(t, 2*time.Second, s.Stream.ReconnectDelay.Std())
	assert.Equal(t, 10, s.Stream.MaxFailures)
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, s.Retry.Backoff.Std())
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "a missing settings file is not an error")
	assert.Empty(t, s.Ticker)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ticker: [broken"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
