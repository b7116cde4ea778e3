package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/client/flow"
	"github.com/dmitrijs2005/walletauth/internal/client/session"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

func (a *App) restore(ctx context.Context) {
	res, err := a.session.Restore(ctx)
	switch res {
	case session.RestoreAdopted:
		printlnFn("Welcome back,", displayName(a.session.User()))
	case session.RestoreDiscarded:
		printlnFn("Your previous wallet session has expired, please log in again.")
	case session.RestoreKept:
		printlnFn("Server unavailable, could not restore the previous session.")
	}
	if err != nil {
		a.logger.Debug(ctx, "restore", "error", err)
	}
}

// onAuthenticated runs on the flow controller's goroutine.
func (a *App) onAuthenticated(wallet string, user *models.User) {
	if err := a.session.HandleAuthenticated(context.Background(), wallet, user); err != nil {
		a.logger.Warn(context.Background(), "could not remember wallet", "error", err)
	}
}

// Login requests a nonce and shows the QR transaction.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already signed in. Use 'logout' first.")
		return nil
	}

	a.session.ShowAuth()
	if err := a.flow.Start(ctx); err != nil {
		if errors.Is(err, flow.ErrNonce) {
			printlnFn("Failed to generate authentication code. Please try again.")
			return nil
		}
		return err
	}

	a.showQR(a.flow.State().QRData)
	printlnFn("Scan the code with the ZeroBrix wallet app and complete the transaction,")
	printlnFn("then type 'confirm'.")
	return nil
}

func (a *App) showQR(payload string) {
	if a.ttyFd >= 0 && isTerminal(a.ttyFd) {
		art, err := flow.RenderQR(payload)
		if err == nil {
			fmt.Fprint(a.out, art)
			return
		}
		a.logger.Warn(context.Background(), "qr rendering failed", "error", err)
	}
	printlnFn("Transaction data:")
	printlnFn(payload)
}

// Confirm starts (or resumes) polling and blocks until the flow leaves the
// polling stage or ctx is cancelled.
func (a *App) Confirm(ctx context.Context) error {
	if err := a.flow.Confirm(); err != nil {
		if errors.Is(err, flow.ErrWrongStage) {
			printlnFn("Nothing to confirm. Use 'login' first.")
			return nil
		}
		return err
	}
	printlnFn("Waiting for the wallet transaction...")

	s, err := a.flow.Wait(ctx, func(s flow.State) bool {
		return s.Stage != flow.StagePolling || !s.Polling
	})
	if err != nil {
		a.flow.StopPolling()
		return err
	}
	a.report(s)
	return nil
}

func (a *App) report(s flow.State) {
	switch s.Stage {
	case flow.StageAuthenticated:
		printlnFn("Signed in as", displayName(s.User))
	case flow.StageOnboarding:
		printlnFn("Wallet verified. This wallet is new here, type 'profile' to finish signing up.")
	case flow.StageIntro:
		switch {
		case errors.Is(s.Err, flow.ErrTimeout):
			printlnFn("Authentication timeout. Please try again.")
		case s.Err != nil:
			printlnFn("Error:", s.Err)
		}
	}
}

// Profile collects onboarding fields for a first-time wallet.
func (a *App) Profile(ctx context.Context) error {
	if a.flow.State().Stage != flow.StageOnboarding {
		printlnFn("No profile to complete.")
		return nil
	}

	p, err := a.readProfile()
	if err != nil {
		return err
	}

	user, err := a.flow.CompleteProfile(ctx, p)
	if err != nil {
		return err
	}
	printlnFn("Signed in as", displayName(user))
	return nil
}

func (a *App) readProfile() (models.Profile, error) {
	var p models.Profile
	rules := a.config.Onboarding

	kind, err := GetChoice(a.reader, "Account type",
		[]string{string(models.AccountIndividual), string(models.AccountCompany)},
		string(models.AccountIndividual), a.out)
	if err != nil {
		return p, err
	}
	p.AccountType = models.AccountType(kind)

	ask := func(dst *string, prompt string) error {
		v, err := GetSimpleText(a.reader, prompt, a.out)
		*dst = v
		return err
	}

	if p.AccountType == models.AccountCompany {
		if err := ask(&p.CompanyName, optional("Company name", rules.CompanyNameRequired)); err != nil {
			return p, err
		}
	} else {
		if err := ask(&p.FirstName, optional("First name", rules.RequireName)); err != nil {
			return p, err
		}
		if err := ask(&p.LastName, optional("Last name", rules.RequireName)); err != nil {
			return p, err
		}
	}
	if err := ask(&p.Email, optional("Email", rules.RequireEmail)); err != nil {
		return p, err
	}
	if len(rules.AvailableRoles) > 0 {
		role, err := GetChoice(a.reader, "Role", rules.AvailableRoles, rules.AvailableRoles[0], a.out)
		if err != nil {
			return p, err
		}
		p.Role = role
	}
	return p, nil
}

func optional(label string, required bool) string {
	if required {
		return label
	}
	return label + " (optional)"
}

// Retry abandons the current attempt.
func (a *App) Retry(ctx context.Context) error {
	a.flow.Retry()
	printlnFn("Ready. Type 'login' to start again.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if u := a.session.User(); u != nil {
		printlnFn("Signed in as", displayName(u), "wallet", u.WalletAddress, "role", u.Role)
		return nil
	}
	s := a.flow.State()
	printlnFn("Signed out, sign-in stage:", s.Stage)
	if s.Stage == flow.StagePolling && !s.Polling {
		printlnFn("Polling is paused, type 'confirm' to resume.")
	}
	if s.Err != nil {
		printlnFn("Last error:", s.Err)
	}
	return nil
}

// Logout forgets the user locally. The server keeps no session to revoke.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.flow.Retry()
	printlnFn("Logged out.")
	return nil
}

func displayName(u *models.User) string {
	switch {
	case u == nil:
		return ""
	case u.CompanyName != "":
		return u.CompanyName
	case u.FirstName != "" || u.LastName != "":
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	default:
		return shortAddress(u.WalletAddress)
	}
}
