// Package flow drives wallet QR authentication on the client: request a
// nonce, show it as a QR transaction, poll the server for verification after
// the user confirms, then either finish or collect a profile for a
// first-time wallet.
//
//	intro -> qr -> polling -> authenticated
//	                       -> onboarding -> authenticated
//	                       -> intro (timeout or wallet refused)
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/client/api"
	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

type Stage string

const (
	StageIntro         Stage = "intro"
	StageQR            Stage = "qr"
	StagePolling       Stage = "polling"
	StageOnboarding    Stage = "onboarding"
	StageAuthenticated Stage = "authenticated"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 5 * time.Minute
)

var (
	ErrNonce        = errors.New("failed to generate authentication code, please try again")
	ErrTimeout      = errors.New("authentication timeout, please try again")
	ErrNotPermitted = errors.New("this wallet is not permitted to sign in")
	ErrWrongStage   = errors.New("not available at this stage")
	ErrClosed       = errors.New("authentication flow closed")
)

// State is a snapshot of the controller.
type State struct {
	Stage         Stage
	Nonce         string
	QRData        string
	WalletAddress string
	User          *models.User
	// Polling is false after StopPolling even while Stage is still polling.
	Polling bool
	// Err is the last user-visible failure; cleared by the next successful
	// transition.
	Err error
}

type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
	QR           QRConfig
	Rules        models.ProfileRules

	// OnAuthenticated and OnError run on the goroutine that caused the
	// transition, never while the controller is locked. OnAuthenticated
	// returns before the authenticated state is published, so a Wait for
	// StageAuthenticated observes its effects.
	OnAuthenticated func(walletAddress string, user *models.User)
	OnError         func(err error)

	Logger logging.Logger
	Now    func() time.Time
}

type Controller struct {
	api  api.Client
	opts Options
	ctx  context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	state   State
	task    *pollTask
	changed chan struct{}
	// gen counts state changes; used to detect a transition made while a
	// callback ran unlocked.
	gen    uint64
	closed bool
}

func NewController(client api.Client, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		api:     client,
		opts:    opts,
		ctx:     ctx,
		stop:    stop,
		state:   State{Stage: StageIntro},
		changed: make(chan struct{}),
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.User = s.User.Clone()
	return s
}

// Wait blocks until pred holds for the current state or ctx is done.
func (c *Controller) Wait(ctx context.Context, pred func(State) bool) (State, error) {
	for {
		c.mu.Lock()
		s := c.snapshotLocked()
		ch := c.changed
		c.mu.Unlock()

		if pred(s) {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-ch:
		}
	}
}

// setLocked replaces the state and wakes waiters.
func (c *Controller) setLocked(s State) {
	c.state = s
	c.gen++
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) stopTaskLocked() {
	if c.task != nil {
		c.task.stop()
		c.task = nil
	}
}

func (c *Controller) fireError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

func (c *Controller) fireAuthenticated(addr string, user *models.User) {
	if c.opts.OnAuthenticated != nil {
		c.opts.OnAuthenticated(addr, user.Clone())
	}
}

// Start requests a nonce and moves to the qr stage. On failure the
// controller is back in intro with Err set.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Stage == StagePolling && c.task != nil {
		c.mu.Unlock()
		return ErrWrongStage
	}
	c.mu.Unlock()

	nonce, err := c.api.Nonce(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopTaskLocked()
	if err != nil {
		c.setLocked(State{Stage: StageIntro, Err: ErrNonce})
		c.mu.Unlock()

		c.opts.Logger.Warn(ctx, "nonce request failed", "error", err)
		c.fireError(ErrNonce)
		return fmt.Errorf("%w: %v", ErrNonce, err)
	}

	c.setLocked(State{
		Stage:  StageQR,
		Nonce:  nonce,
		QRData: BuildPayload(c.opts.QR, nonce, c.opts.Now()),
	})
	c.mu.Unlock()
	return nil
}

// Confirm starts polling once the user says the wallet transaction is done.
// It also resumes polling after StopPolling.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	resumable := c.state.Stage == StagePolling && c.task == nil
	if c.state.Stage != StageQR && !resumable {
		return ErrWrongStage
	}

	task := newPollTask(c.state.Nonce, c.opts.PollInterval, c.opts.Timeout)
	c.task = task
	task.start(c.ctx,
		func(ctx context.Context) { c.poll(ctx, task) },
		func() { c.expire(task) },
	)

	s := c.state
	s.Stage = StagePolling
	s.Polling = true
	s.Err = nil
	c.setLocked(s)

	c.opts.Logger.Debug(c.ctx, "polling started", "interval", c.opts.PollInterval, "timeout", c.opts.Timeout)
	return nil
}

// StopPolling halts polling and leaves the rest of the state as it is.
func (c *Controller) StopPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.task == nil {
		return
	}
	c.stopTaskLocked()
	s := c.state
	s.Polling = false
	c.setLocked(s)
}

// poll runs one verify request for task. The request is not cancelled when
// the task stops; a late answer is dropped because task is no longer current.
func (c *Controller) poll(ctx context.Context, task *pollTask) {
	res, err := c.api.Verify(context.WithoutCancel(ctx), task.nonce)

	c.mu.Lock()
	if c.task != task {
		c.mu.Unlock()
		return
	}

	switch {
	case errors.Is(err, common.ErrorForbidden):
		c.stopTaskLocked()
		c.setLocked(State{Stage: StageIntro, Err: ErrNotPermitted})
		c.mu.Unlock()
		c.fireError(ErrNotPermitted)

	case err != nil:
		c.mu.Unlock()
		c.opts.Logger.Warn(ctx, "verify request failed, will retry", "error", err)

	case !res.Authenticated || res.UserAddress == "":
		c.mu.Unlock()
		c.opts.Logger.Debug(ctx, "not authenticated yet")

	case res.User != nil:
		c.stopTaskLocked()
		gen := c.gen
		c.mu.Unlock()
		if res.StoreError != "" {
			c.opts.Logger.Warn(ctx, "server could not persist profile", "error", res.StoreError)
		}
		c.fireAuthenticated(res.UserAddress, res.User)
		c.publishAuthenticated(gen, res.UserAddress, res.User)

	default:
		c.stopTaskLocked()
		c.setLocked(State{Stage: StageOnboarding, WalletAddress: res.UserAddress})
		c.mu.Unlock()
	}
}

func (c *Controller) expire(task *pollTask) {
	c.mu.Lock()
	if c.task != task {
		c.mu.Unlock()
		return
	}
	c.task = nil
	c.setLocked(State{Stage: StageIntro, Err: ErrTimeout})
	c.mu.Unlock()

	c.opts.Logger.Info(c.ctx, "authentication timed out")
	c.fireError(ErrTimeout)
}

// CompleteProfile creates the profile of a first-time wallet. Validation and
// server failures keep the controller in onboarding with Err set.
func (c *Controller) CompleteProfile(ctx context.Context, p models.Profile) (*models.User, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.state.Stage != StageOnboarding {
		c.mu.Unlock()
		return nil, ErrWrongStage
	}
	wallet := c.state.WalletAddress
	c.mu.Unlock()

	if err := c.opts.Rules.Validate(p); err != nil {
		c.failOnboarding(wallet, err)
		return nil, err
	}

	user, err := c.api.CreateUser(ctx, p.ToNewUserData(wallet))
	if errors.Is(err, common.ErrorAlreadyExists) {
		user, err = c.api.ActiveUser(ctx, wallet)
	}
	if err != nil {
		c.failOnboarding(wallet, err)
		return nil, err
	}

	c.mu.Lock()
	if c.state.Stage != StageOnboarding || c.state.WalletAddress != wallet {
		c.mu.Unlock()
		return nil, ErrWrongStage
	}
	gen := c.gen
	c.mu.Unlock()

	c.fireAuthenticated(wallet, user)
	if !c.publishAuthenticated(gen, wallet, user) {
		return nil, ErrWrongStage
	}
	return user, nil
}

// publishAuthenticated moves to the authenticated stage unless the state
// changed since gen was read.
func (c *Controller) publishAuthenticated(gen uint64, wallet string, user *models.User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.closed {
		return false
	}
	c.setLocked(State{Stage: StageAuthenticated, WalletAddress: wallet, User: user.Clone()})
	return true
}

func (c *Controller) failOnboarding(wallet string, err error) {
	c.mu.Lock()
	if c.state.Stage == StageOnboarding && c.state.WalletAddress == wallet {
		s := c.state
		s.Err = err
		c.setLocked(s)
	}
	c.mu.Unlock()
	c.fireError(err)
}

// Retry abandons the current attempt and returns to intro.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTaskLocked()
	c.setLocked(State{Stage: StageIntro})
}

// Close stops polling for good. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	task := c.task
	c.stopTaskLocked()
	c.mu.Unlock()

	c.stop()
	if task != nil {
		<-task.done
	}
}
