/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package command

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	shcmd "github.com/ashforge/netcore/shell/command"

	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/errors/pool"
	"github.com/ashforge/netcore/logger"
	loglvl "github.com/ashforge/netcore/logger/level"
)

const (
	// ErrAlreadyRunning fires when Run is called on a Host that already
	// has a fiber in flight.
	ErrAlreadyRunning liberr.CodeError = 6001
	// ErrNotRunning fires when Cancel/Wait are called before Run.
	ErrNotRunning liberr.CodeError = 6002
)

// Host runs one shcmd.Command on a background goroutine ("fiber"),
// exposing cooperative cancellation, a non-blocking completion poll,
// and a captured-error summary, so a caller driving many commands
// concurrently never blocks on any one of them.
//
// Cancellation is cooperative: the command body observes it via
// Cancelled, the same way a long copy loop checks a context between
// chunks. Host does not kill goroutines.
type Host struct {
	runID string

	log logger.Logger
	tr  ProgressTracker

	cmd  shcmd.Command
	args []string

	cancelled atomic.Bool
	finished  atomic.Bool
	fence     chan struct{}

	mu  sync.Mutex
	out bytes.Buffer
	err bytes.Buffer

	errs pool.Pool
}

// NewHost builds a Host for cmd. tr may be nil, in which case a
// NopProgress is used.
func NewHost(cmd shcmd.Command, args []string, tr ProgressTracker, log logger.Logger) *Host {
	if tr == nil {
		tr = NopProgress{}
	}

	return &Host{
		runID: uuid.NewString(),
		log:   log,
		tr:    tr,
		cmd:   cmd,
		args:  args,
		errs:  pool.New(),
	}
}

// RunID is the identifier attached to every log entry this Host
// emits, so concurrent command runs are distinguishable in a shared
// log stream.
func (h *Host) RunID() string {
	return h.runID
}

// Run launches the command's Func on a background goroutine and
// returns immediately. It is an error to call Run twice on the same
// Host.
func (h *Host) Run() liberr.Error {
	if h.fence != nil {
		return ErrAlreadyRunning.Error(nil)
	}
	h.fence = make(chan struct{})

	h.logEntry(loglvl.InfoLevel, "command run started")

	go func() {
		defer close(h.fence)
		defer h.finished.Store(true)
		defer func() {
			if r := recover(); r != nil {
				h.errs.Add(liberr.UnknownError.Errorf("command panic: %v", r))
			}
		}()

		h.mu.Lock()
		out := &h.out
		errw := &h.err
		h.mu.Unlock()

		h.cmd.Run(out, errw, h.args)
	}()

	return nil
}

// Cancel requests cooperative cancellation: it flips the internal
// flag Cancelled reports, and forwards the request to the external
// progress tracker if one was supplied, so a UI-owned tracker observes
// the same cancellation the command body does.
func (h *Host) Cancel() {
	h.cancelled.Store(true)
	h.tr.Cancel()
	h.logEntry(loglvl.WarnLevel, "command run cancelled")
}

// Cancelled reports whether Cancel has been called, either directly
// or via the progress tracker.
func (h *Host) Cancelled() bool {
	return h.cancelled.Load() || h.tr.Cancelled()
}

// Update is a non-blocking poll: it reports whether the command's
// fiber has finished, without waiting for it.
func (h *Host) Update() (finished bool) {
	return h.finished.Load()
}

// Wait blocks until the command's fiber finishes.
func (h *Host) Wait() liberr.Error {
	if h.fence == nil {
		return ErrNotRunning.Error(nil)
	}
	<-h.fence
	return nil
}

// Close requests cancellation, waits for the fiber to finish, and
// releases the Host. It is the destructor-equivalent for a Host whose
// owner is tearing down early.
func (h *Host) Close() liberr.Error {
	if h.fence == nil {
		return nil
	}
	h.Cancel()
	<-h.fence
	h.logEntry(loglvl.InfoLevel, "command run closed")
	return nil
}

// Output returns the bytes the command wrote to its stdout stream so
// far. Safe to call while the command is still running.
func (h *Host) Output() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.out.Bytes()...)
}

// CapturedError returns the combined error of everything Add'd to the
// Host's error pool (command panics plus anything the caller Add'ed
// via Errors()), or nil if nothing failed.
func (h *Host) CapturedError() error {
	return h.errs.Error()
}

// Errors exposes the underlying error pool so callers can Add
// additional failures observed outside the command body itself (e.g.
// a caller-side validation failure before Run was ever called).
func (h *Host) Errors() pool.Pool {
	return h.errs
}

func (h *Host) logEntry(lvl loglvl.Level, msg string) {
	if h.log == nil {
		return
	}
	h.log.Entry(lvl, msg).FieldAdd("run_id", h.runID).Log()
}
