package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/client/api"
	"github.com/dmitrijs2005/walletauth/internal/client/config"
	"github.com/dmitrijs2005/walletauth/internal/client/flow"
	"github.com/dmitrijs2005/walletauth/internal/client/localdb"
	"github.com/dmitrijs2005/walletauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/walletauth/internal/client/session"
	"github.com/dmitrijs2005/walletauth/internal/logging"
)

const requestTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *localdb.DB
	api     api.Client
	session *session.Session
	flow    *flow.Controller

	out io.Writer
	// ttyFd is checked with isTerminal before drawing QR art.
	ttyFd  int
	reader *bufio.Reader
}

// NewApp opens the local database and connects the client to cfg.ServerURL.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	db, err := localdb.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", cfg.LocalDBPath, "error", err)
		return nil, err
	}

	a := newApp(cfg, api.New(cfg.ServerURL, requestTimeout), db.Metadata, logger, os.Stdin, os.Stdout)
	a.db = db
	a.ttyFd = int(os.Stdout.Fd())
	return a, nil
}

func newApp(cfg *config.Config, client api.Client, meta metadata.Repository, logger logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config: cfg,
		logger: logger,
		api:    client,
		out:    out,
		ttyFd:  -1,
		reader: bufio.NewReader(in),
	}
	a.session = session.New(client, meta, logger)
	a.flow = flow.NewController(client, flow.Options{
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.AuthTimeout,
		QR: flow.QRConfig{
			RecipientAddress: cfg.ServerWalletAddress,
			ContractID:       cfg.ContractID,
			TokenID:          cfg.TokenID,
		},
		Rules:           cfg.Onboarding,
		OnAuthenticated: a.onAuthenticated,
		Logger:          logger,
	})
	return a
}

// Run restores the previous session and serves the REPL until exit or
// SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	a.restore(ctx)

	printlnFn("Welcome to the wallet-auth client (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) Close() {
	a.flow.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing local database", "error", err)
		}
		a.db = nil
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	if u := a.session.User(); u != nil {
		return "(" + shortAddress(u.WalletAddress) + ")"
	}
	if a.session.AuthVisible() {
		return "(" + string(a.flow.State().Stage) + ")"
	}
	return ""
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
