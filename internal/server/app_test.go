package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.ZeroBrixAPIURL = "http://zerobrix.invalid/api"
	cfg.ZeroBrixAPIKey = "key"
	cfg.ContractID = "contract"
	cfg.DBPath = filepath.Join(t.TempDir(), "users.json")
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestNewApp_InitialisesStore(t *testing.T) {
	cfg := testConfig(t)

	app, err := newApp(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	_, err = os.Stat(cfg.DBPath)
	require.NoError(t, err, "store file should exist after startup")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
}

func TestNewApp_Errors(t *testing.T) {
	t.Run("missing upstream settings", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.ZeroBrixAPIKey = ""
		_, err := newApp(context.Background(), cfg, logging.Nop())
		require.ErrorIs(t, err, common.ErrorMissingConfig)
	})

	t.Run("unknown store type", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoreType = "redis"
		_, err := newApp(context.Background(), cfg, logging.Nop())
		require.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("encryption key required", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoreType = "encrypted-json"
		cfg.RequireEncryptionKey = true
		_, err := newApp(context.Background(), cfg, logging.Nop())
		require.ErrorIs(t, err, common.ErrorMissingConfig)
	})

	t.Run("unreadable store", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.DBPath, []byte("garbage"), 0o600))
		_, err := newApp(context.Background(), cfg, logging.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store init error")
	})
}
