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

// Package command hosts one runnable shell/command.Command on a
// background goroutine, relaying cancellation and progress through an
// externally supplied IProgressTracker, the way the launcher's command
// host drives background commands independently of the messaging
// transports.
package command

// ProgressTracker is the external collaborator a Host forwards
// cancellation and completion to. Callers that do not need progress
// reporting can pass nil; NopProgress is a ready no-op.
type ProgressTracker interface {
	// SetTotal announces the total unit count for a determinate task.
	SetTotal(total int64)
	// SetCurrent updates how many units have completed.
	SetCurrent(current int64)
	// Cancel is invoked by Host.Cancel so an externally owned tracker
	// (e.g. a UI progress dialog) observes the same cancellation.
	Cancel()
	// Cancelled reports whether the tracker itself requested
	// cancellation, independent of Host.Cancel.
	Cancelled() bool
}

// NopProgress implements ProgressTracker with no-ops.
type NopProgress struct{}

func (NopProgress) SetTotal(int64)   {}
func (NopProgress) SetCurrent(int64) {}
func (NopProgress) Cancel()          {}
func (NopProgress) Cancelled() bool  { return false }
