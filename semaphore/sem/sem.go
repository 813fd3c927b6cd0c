/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package sem bounds concurrent work either with a weighted semaphore
// (a fixed number of simultaneous workers) or, for a negative bound,
// an unlimited WaitGroup-style counter. Both modes embed their own
// cancellable context.Context, derived from the one New is given, so
// a parent cancellation cascades to every worker waiting to acquire.
package sem

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Sem bounds a pool of concurrent workers. It embeds context.Context
// so callers may pass it anywhere a Context is expected; cancelling an
// ancestor context unblocks every pending NewWorker/WaitAll call.
type Sem interface {
	context.Context

	// NewWorker blocks until a slot is available or the context is
	// done, returning the context error in the latter case.
	NewWorker() error
	// NewWorkerTry acquires a slot without blocking, reporting whether
	// one was available.
	NewWorkerTry() bool
	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()
	// DeferMain cancels this Sem's own context, releasing every
	// caller blocked on it and cascading to children built with New.
	DeferMain()
	// WaitAll blocks until every outstanding worker has called
	// DeferWorker, or the context is done.
	WaitAll() error
	// Weighted returns the configured limit: a positive bound, -1 for
	// unlimited, or MaxSimultaneous() when constructed with 0.
	Weighted() int64
	// New builds a child Sem with the same limit, parented on this
	// one's context.
	New() Sem
}

type sem struct {
	context.Context
	cancel context.CancelFunc

	limit    int64 // -1 means unlimited
	weighted *semaphore.Weighted
	wg       sync.WaitGroup
}

// New builds a Sem bounding concurrency at nbrSimultaneous. Zero means
// MaxSimultaneous(); negative means unlimited (WaitGroup-backed).
func New(ctx context.Context, nbrSimultaneous int64) Sem {
	child, cancel := context.WithCancel(ctx)

	s := &sem{
		Context: child,
		cancel:  cancel,
	}

	switch {
	case nbrSimultaneous < 0:
		s.limit = -1
	case nbrSimultaneous == 0:
		s.limit = int64(MaxSimultaneous())
		s.weighted = semaphore.NewWeighted(s.limit)
	default:
		s.limit = nbrSimultaneous
		s.weighted = semaphore.NewWeighted(s.limit)
	}

	return s
}

func (s *sem) NewWorker() error {
	if s.weighted != nil {
		if err := s.weighted.Acquire(s.Context, 1); err != nil {
			return err
		}
	}
	s.wg.Add(1)
	return nil
}

func (s *sem) NewWorkerTry() bool {
	if s.weighted != nil {
		if !s.weighted.TryAcquire(1) {
			return false
		}
	}
	s.wg.Add(1)
	return true
}

func (s *sem) DeferWorker() {
	s.wg.Done()
	if s.weighted != nil {
		s.weighted.Release(1)
	}
}

func (s *sem) DeferMain() {
	s.cancel()
}

func (s *sem) WaitAll() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-s.Context.Done():
		return s.Context.Err()
	}
}

func (s *sem) Weighted() int64 {
	return s.limit
}

func (s *sem) New() Sem {
	return New(s, s.limit)
}

// MaxSimultaneous returns the process' GOMAXPROCS value, used as the
// default bound for New(ctx, 0).
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous clamps n into [1, MaxSimultaneous()].
func SetSimultaneous(n int) int64 {
	ceiling := int64(MaxSimultaneous())
	if n < 1 {
		return ceiling
	}
	if int64(n) > ceiling {
		return ceiling
	}
	return int64(n)
}
