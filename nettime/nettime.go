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

// Package nettime is the monotonic time primitive every timeout in the
// messaging core is built on: a comparable Point plus an Interval that
// converts to and from github.com/ashforge/netcore/duration.
package nettime

import (
	"time"

	"github.com/ashforge/netcore/duration"
)

// Point is a monotonic instant. It is never serialized and is only
// ever compared against other Points taken from the same process.
type Point struct {
	t time.Time
}

// Now returns the current monotonic Point.
func Now() Point {
	return Point{t: time.Now()}
}

// Zero reports whether p was never assigned.
func (p Point) Zero() bool {
	return p.t.IsZero()
}

// Add returns p advanced by d.
func (p Point) Add(d Interval) Point {
	return Point{t: p.t.Add(time.Duration(d))}
}

// Before reports whether p happened before o.
func (p Point) Before(o Point) bool {
	return p.t.Before(o.t)
}

// After reports whether p happened after o.
func (p Point) After(o Point) bool {
	return p.t.After(o.t)
}

// Sub returns the Interval elapsed between o and p (p - o).
func (p Point) Sub(o Point) Interval {
	return Interval(p.t.Sub(o.t))
}

// Interval is a signed duration, directly convertible to time.Duration.
type Interval time.Duration

// FromDuration adapts the configuration-facing duration.Duration type
// to the runtime Interval type used by timers and comparisons.
func FromDuration(d duration.Duration) Interval {
	return Interval(d.Time())
}

// Milliseconds returns i as a whole number of milliseconds.
func (i Interval) Milliseconds() int64 {
	return time.Duration(i).Milliseconds()
}

// Seconds returns i as a floating-point number of seconds.
func (i Interval) Seconds() float64 {
	return time.Duration(i).Seconds()
}

// Time returns i as a time.Duration.
func (i Interval) Time() time.Duration {
	return time.Duration(i)
}

// Deadline reports whether Now() is at or past p+i.
func Deadline(p Point, i Interval) bool {
	return !Now().Before(p.Add(i))
}
