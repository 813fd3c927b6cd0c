/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package startStop wraps a blocking start function and a stop function
// into a restartable, asynchronous runner, used for every long-running
// goroutine in this module: the UDP service thread, the TCP accept
// loop and per-connection receive loops.
package startStop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Func is a blocking operation run under a cancellable context. The
// start function is expected to block until ctx is done; the stop
// function performs whatever is needed to unblock it.
type Func func(ctx context.Context) error

// StartStop is an asynchronous, restartable runner around one pair of
// start/stop functions.
type StartStop interface {
	// Start launches the start function in a new goroutine, stopping
	// any instance already running first. It returns immediately;
	// errors from the start function land in ErrorsLast/ErrorsList.
	Start(ctx context.Context) error
	// Stop cancels the running instance's context and invokes the
	// stop function, waiting for the start goroutine to return.
	// Idempotent: calling it when not running is a no-op.
	Stop(ctx context.Context) error
	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error
	// IsRunning reports whether a start function is currently active.
	IsRunning() bool
	// Uptime is the duration since the current run's Start, or zero
	// when not running.
	Uptime() time.Duration
	// ErrorsLast returns the most recently captured error, or nil.
	ErrorsLast() error
	// ErrorsList returns every error captured since the last Start.
	ErrorsList() []error
}

type runner struct {
	start Func
	stop  Func

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	started atomic.Int64 // unix nano of the current run's start, 0 when stopped

	errMu sync.Mutex
	errs  []error
}

// New builds a StartStop around start and stop. Either may be nil: a
// nil function is not called, instead producing an "invalid start
// function" / "invalid stop function" captured error at the point it
// would have run.
func New(start Func, stop Func) StartStop {
	return &runner{start: start, stop: stop}
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked(ctx)

	r.errMu.Lock()
	r.errs = nil
	r.errMu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running.Store(true)
	r.started.Store(time.Now().UnixNano())

	done := r.done
	go func() {
		defer close(done)
		defer r.running.Store(false)
		defer r.started.Store(0)
		defer func() {
			if p := recover(); p != nil {
				r.recordError(fmt.Errorf("panic in start function: %v", p))
			}
		}()

		if r.start == nil {
			r.recordError(fmt.Errorf("invalid start function"))
			<-runCtx.Done()
			return
		}

		if err := r.start(runCtx); err != nil {
			r.recordError(err)
		}
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopLocked(ctx)
}

// stopLocked requires r.mu held.
func (r *runner) stopLocked(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}

	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.done = nil

	cancel()

	func() {
		defer func() {
			if p := recover(); p != nil {
				r.recordError(fmt.Errorf("panic in stop function: %v", p))
			}
		}()

		if r.stop == nil {
			r.recordError(fmt.Errorf("invalid stop function"))
			return
		}

		if err := r.stop(ctx); err != nil {
			r.recordError(err)
		}
	}()

	if done != nil {
		<-done
	}

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	if err := r.Stop(ctx); err != nil {
		return err
	}
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	return r.running.Load()
}

func (r *runner) Uptime() time.Duration {
	started := r.started.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

func (r *runner) recordError(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}
