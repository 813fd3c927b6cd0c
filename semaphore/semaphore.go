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

// Package semaphore layers optional mpb progress bars on top of the
// worker-counting semaphore in semaphore/sem, for commands that report
// upload/download or batch progress to a terminal.
package semaphore

import (
	"context"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	libsem "github.com/ashforge/netcore/semaphore/sem"
)

// Bar is one progress indicator, optionally backed by an mpb bar. When
// the owning Sem was built without progress, every method is a cheap
// no-op except NewWorker/DeferWorker, which still enforce the
// semaphore's concurrency limit.
type Bar interface {
	// Total is the bar's configured total, or 0 when progress is off.
	Total() int64
	Inc(n int)
	Inc64(n int64)
	// Complete marks the bar as finished, setting its current to its
	// total.
	Complete()
	Completed() bool
	// NewWorker acquires a slot on the owning Sem.
	NewWorker() error
	// DeferWorker increments the bar by one and releases the slot
	// acquired by NewWorker.
	DeferWorker()

	mpbBar() *mpb.Bar
}

type bar struct {
	owner Sem
	raw   *mpb.Bar // nil when progress is disabled
	total int64
	done  bool
}

func (b *bar) Total() int64 {
	if b.raw == nil {
		return 0
	}
	return b.total
}

func (b *bar) Inc(n int) {
	if b.raw != nil {
		b.raw.IncrBy(n)
	}
}

func (b *bar) Inc64(n int64) {
	if b.raw != nil {
		b.raw.IncrInt64(n)
	}
}

func (b *bar) Complete() {
	b.done = true
	if b.raw != nil {
		b.raw.SetCurrent(b.total)
	}
}

func (b *bar) Completed() bool {
	if b.raw != nil {
		return b.raw.Completed()
	}
	return b.done
}

func (b *bar) NewWorker() error {
	return b.owner.NewWorker()
}

func (b *bar) DeferWorker() {
	b.Inc(1)
	b.owner.DeferWorker()
}

func (b *bar) mpbBar() *mpb.Bar {
	return b.raw
}

// Sem is the sem.Sem semaphore plus progress-bar construction. Progress
// is shared by every bar and every Clone of this Sem; New builds an
// independent Sem with no progress sharing.
type Sem interface {
	libsem.Sem

	BarBytes(name, desc string, total int64, drop bool, after Bar) Bar
	BarTime(name, desc string, total int64, drop bool, after Bar) Bar
	BarNumber(name, desc string, total int64, drop bool, after Bar) Bar
	BarOpts(total int64, drop bool) Bar

	// Clone builds an independent Sem with the same limit, sharing
	// this one's mpb progress container when progress is enabled.
	Clone() Sem

	// GetMPB exposes the underlying *mpb.Progress as interface{}, nil
	// when progress is disabled. Intended for tests and diagnostics.
	GetMPB() interface{}
}

type pgbSem struct {
	libsem.Sem
	progress *mpb.Progress
}

// New builds a Sem bounding concurrency at nbrSimultaneous (see
// sem.New for the zero/negative conventions). When withProgress is
// true every Bar constructor renders a live mpb bar; otherwise bars
// are inert counters.
func New(ctx context.Context, nbrSimultaneous int64, withProgress bool) Sem {
	s := &pgbSem{Sem: libsem.New(ctx, nbrSimultaneous)}

	if withProgress {
		s.progress = mpb.NewWithContext(ctx, mpb.WithWidth(64))
	}

	return s
}

func (s *pgbSem) Clone() Sem {
	return &pgbSem{
		Sem:      libsem.New(s.Sem, s.Weighted()),
		progress: s.progress,
	}
}

func (s *pgbSem) GetMPB() interface{} {
	if s.progress == nil {
		return nil
	}
	return s.progress
}

func (s *pgbSem) newBar(total int64, drop bool, after Bar, decorators ...mpb.BarOption) Bar {
	if s.progress == nil {
		return &bar{owner: s, total: total}
	}

	opts := append([]mpb.BarOption{}, decorators...)
	if drop {
		opts = append(opts, mpb.BarRemoveOnComplete())
	}
	if after != nil {
		if prev := after.mpbBar(); prev != nil {
			opts = append(opts, mpb.BarQueueAfter(prev, false))
		}
	}

	raw := s.progress.AddBar(total, opts...)
	return &bar{owner: s, raw: raw, total: total}
}

// BarBytes renders a byte-counted bar, name/desc as the leading label
// and a live throughput counter trailing it.
func (s *pgbSem) BarBytes(name, desc string, total int64, drop bool, after Bar) Bar {
	return s.newBar(total, drop, after,
		mpb.PrependDecorators(decor.Name(name), decor.Name(desc)),
		mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
	)
}

// BarTime renders a bar trailing an elapsed-time counter.
func (s *pgbSem) BarTime(name, desc string, total int64, drop bool, after Bar) Bar {
	return s.newBar(total, drop, after,
		mpb.PrependDecorators(decor.Name(name), decor.Name(desc)),
		mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO, time.Now())),
	)
}

// BarNumber renders a bar trailing a plain x/y counter.
func (s *pgbSem) BarNumber(name, desc string, total int64, drop bool, after Bar) Bar {
	return s.newBar(total, drop, after,
		mpb.PrependDecorators(decor.Name(name), decor.Name(desc)),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
}

// BarOpts renders a bare bar with no decorators, for callers that want
// the limit/progress semantics without a label.
func (s *pgbSem) BarOpts(total int64, drop bool) Bar {
	return s.newBar(total, drop, nil)
}

// MaxSimultaneous returns the process' GOMAXPROCS value.
func MaxSimultaneous() int {
	return libsem.MaxSimultaneous()
}

// SetSimultaneous clamps n into [1, MaxSimultaneous()].
func SetSimultaneous(n int) int64 {
	return libsem.SetSimultaneous(n)
}
