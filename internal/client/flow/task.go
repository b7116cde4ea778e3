package flow

import (
	"context"
	"sync/atomic"
	"time"
)

// pollTask owns the polling ticker and the timeout timer of one
// authentication attempt. Stopping the task stops both. At most one tick
// callback runs at a time; ticks that arrive while one is in flight are
// dropped.
type pollTask struct {
	nonce    string
	interval time.Duration
	timeout  time.Duration

	cancel   context.CancelFunc
	done     chan struct{}
	inFlight atomic.Bool
}

func newPollTask(nonce string, interval, timeout time.Duration) *pollTask {
	return &pollTask{
		nonce:    nonce,
		interval: interval,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// start runs the task until it is stopped or times out. onTick is called in
// its own goroutine with a context that is cancelled when the task stops.
// onTimeout is called once, from the task goroutine.
func (t *pollTask) start(parent context.Context, onTick func(ctx context.Context), onTimeout func()) {
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				cancel()
				onTimeout()
				return
			case <-ticker.C:
				if !t.inFlight.CompareAndSwap(false, true) {
					continue
				}
				go func() {
					defer t.inFlight.Store(false)
					onTick(ctx)
				}()
			}
		}
	}()
}

func (t *pollTask) stop() {
	if t.cancel != nil {
		t.cancel()
	}
}
