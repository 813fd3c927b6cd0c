/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package size

import (
	"fmt"
	"math"
)

// sizeFromFloat64 floors the absolute value of f and caps it at
// math.MaxUint64 on overflow.
func sizeFromFloat64(f float64) Size {
	if f < 0 {
		f = -f
	}
	f = math.Floor(f)
	if f >= math.MaxUint64 {
		return Size(math.MaxUint64)
	}
	return Size(f)
}

// snapNearInt rounds f to the nearest integer when it is within float64
// multiplication/division error of one, so e.g. 10*1.1 ceils to 11 rather
// than 12.
func snapNearInt(f float64) float64 {
	if r := math.Round(f); math.Abs(f-r) < 1e-6 {
		return r
	}
	return f
}

// Mul multiplies s by factor in place, rounding up and capping at
// math.MaxUint64 on overflow. Negative factors are treated as 0.
func (s *Size) Mul(factor float64) {
	_ = s.MulErr(factor)
}

// MulErr is Mul, additionally reporting whether the result was capped due
// to overflow.
func (s *Size) MulErr(factor float64) error {
	if factor < 0 {
		factor = 0
	}
	r := math.Ceil(snapNearInt(float64(*s) * factor))
	if r > math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: multiplication overflows uint64")
	}
	*s = Size(r)
	return nil
}

// Div divides s by divisor in place, rounding up. A non-positive divisor
// leaves s unchanged.
func (s *Size) Div(divisor float64) {
	_ = s.DivErr(divisor)
}

// DivErr is Div, returning an error (and leaving s unchanged) for a
// non-positive divisor.
func (s *Size) DivErr(divisor float64) error {
	if divisor <= 0 {
		return fmt.Errorf("size: invalid diviser %v", divisor)
	}
	*s = Size(math.Ceil(snapNearInt(float64(*s) / divisor)))
	return nil
}

// Add adds delta to s in place, capping at math.MaxUint64 on overflow.
func (s *Size) Add(delta uint64) {
	_ = s.AddErr(delta)
}

// AddErr is Add, reporting whether the result was capped due to overflow.
func (s *Size) AddErr(delta uint64) error {
	r := uint64(*s) + delta
	if r < uint64(*s) {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: addition overflows uint64")
	}
	*s = Size(r)
	return nil
}

// Sub subtracts delta from s in place, capping at zero on underflow.
func (s *Size) Sub(delta uint64) {
	_ = s.SubErr(delta)
}

// SubErr is Sub, reporting whether the result was capped at zero due to
// underflow.
func (s *Size) SubErr(delta uint64) error {
	if delta > uint64(*s) {
		*s = SizeNul
		return fmt.Errorf("size: invalid substractor %v", delta)
	}
	*s -= Size(delta)
	return nil
}
