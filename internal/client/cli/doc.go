// Package cli is the interactive wallet-auth terminal client.
//
// It wires configuration, the local SQLite database, the server API client,
// the session and the authentication flow into a small REPL. A typical
// sign-in: "login" prints a QR transaction, the user performs it in the
// ZeroBrix wallet app, "confirm" polls the server until the wallet is
// verified, and "profile" completes onboarding for a first-time wallet.
//
// The REPL is started with App.Run(ctx), which blocks until the user exits.
package cli
