// Package server wires the wallet-auth HTTP server: configuration, the user
// store, the ZeroBrix client, the service and the router. It handles signals
// and closes the store on shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
	"github.com/dmitrijs2005/walletauth/internal/server/httpapi"
	"github.com/dmitrijs2005/walletauth/internal/server/store"
	"github.com/dmitrijs2005/walletauth/internal/server/walletauth"
	"github.com/dmitrijs2005/walletauth/internal/server/zerobrix"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  store.Store
	server *httpapi.Server
}

// NewApp builds the application from cfg. opts are passed to the wallet-auth
// service, e.g. walletauth.WithCustomValidation. The store is initialised
// here so that a broken database fails startup rather than the first login.
func NewApp(ctx context.Context, cfg *config.Config, opts ...walletauth.Option) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	return newApp(ctx, cfg, logger, opts...)
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...walletauth.Option) (*App, error) {
	zb, err := zerobrix.New(cfg.ZeroBrixAPIURL, cfg.ZeroBrixAPIKey, cfg.ContractID,
		zerobrix.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}))
	if err != nil {
		return nil, err
	}

	storeType, err := store.ParseType(cfg.StoreType)
	if err != nil {
		return nil, err
	}
	st, err := store.New(store.Options{
		Type:                 storeType,
		Path:                 cfg.DBPath,
		DSN:                  cfg.DatabaseDSN,
		EncryptionKey:        cfg.EncryptionKey,
		RequireEncryptionKey: cfg.RequireEncryptionKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	if err := st.Initialize(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("store init error: %w", err)
	}

	svc := walletauth.NewService(zb, st, logger.With("module", "walletauth"), opts...)
	router := httpapi.NewRouter(httpapi.NewHandler(svc, logger), logger, cfg.TrustedOrigins)

	return &App{
		config: cfg,
		logger: logger,
		store:  st,
		server: httpapi.NewServer(cfg.HTTPAddr, router, logger, cfg.ShutdownTimeout),
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then closes
// the store.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreType)

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server failed", "error", runErr)
	}

	if err := app.store.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "error closing store", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
