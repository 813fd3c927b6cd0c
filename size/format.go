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
	"sync"
)

var (
	defaultUnitMu sync.RWMutex
	defaultUnit   = 'B'
)

// SetDefaultUnit sets the unit rune Code uses in place of a zero rune.
// Passing 0 resets it to 'B'.
func SetDefaultUnit(u rune) {
	if u == 0 {
		u = 'B'
	}
	defaultUnitMu.Lock()
	defaultUnit = u
	defaultUnitMu.Unlock()
}

func getDefaultUnit() rune {
	defaultUnitMu.RLock()
	defer defaultUnitMu.RUnlock()
	return defaultUnit
}

// scale returns the largest binary-unit divisor s fits in ("" for plain
// bytes) together with its magnitude letter.
func (s Size) scale() (Size, string) {
	switch {
	case s >= SizeExa:
		return SizeExa, "E"
	case s >= SizePeta:
		return SizePeta, "P"
	case s >= SizeTera:
		return SizeTera, "T"
	case s >= SizeGiga:
		return SizeGiga, "G"
	case s >= SizeMega:
		return SizeMega, "M"
	case s >= SizeKilo:
		return SizeKilo, "K"
	default:
		return SizeUnit, ""
	}
}

// Unit returns the magnitude letter of s (K, M, G, T, P, E, or "" for plain
// bytes) followed by unit, defaulting unit to 'B' when 0.
func (s Size) Unit(unit rune) string {
	if unit == 0 {
		unit = 'B'
	}
	_, letter := s.scale()
	return letter + string(unit)
}

// Code is Unit, but defaults to the package's SetDefaultUnit rune instead of
// a hardcoded 'B' when unit is 0.
func (s Size) Code(unit rune) string {
	if unit == 0 {
		unit = getDefaultUnit()
	}
	_, letter := s.scale()
	return letter + string(unit)
}

// Format renders s scaled to its own natural unit using a fmt float verb
// such as FormatRound2.
func (s Size) Format(format string) string {
	divisor, _ := s.scale()
	return fmt.Sprintf(format, float64(s)/float64(divisor))
}

// String renders s with two decimals of its natural unit, e.g. "5.00MB".
func (s Size) String() string {
	return s.Format(FormatRound2) + s.Unit(0)
}

// KiloBytes returns s expressed as a whole number of kilobytes, floored.
func (s Size) KiloBytes() uint64 {
	return uint64(s / SizeKilo)
}

// MegaBytes returns s expressed as a whole number of megabytes, floored.
func (s Size) MegaBytes() uint64 {
	return uint64(s / SizeMega)
}

// GigaBytes returns s expressed as a whole number of gigabytes, floored.
func (s Size) GigaBytes() uint64 {
	return uint64(s / SizeGiga)
}

// TeraBytes returns s expressed as a whole number of terabytes, floored.
func (s Size) TeraBytes() uint64 {
	return uint64(s / SizeTera)
}

// PetaBytes returns s expressed as a whole number of petabytes, floored.
func (s Size) PetaBytes() uint64 {
	return uint64(s / SizePeta)
}

// ExaBytes returns s expressed as a whole number of exabytes, floored.
func (s Size) ExaBytes() uint64 {
	return uint64(s / SizeExa)
}

// Uint64 returns s as a uint64.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

// Uint32 returns s as a uint32, capped at math.MaxUint32 on overflow.
func (s Size) Uint32() uint32 {
	if uint64(s) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(s)
}

// Uint returns s as a uint, capped at math.MaxUint on overflow.
func (s Size) Uint() uint {
	if uint64(s) > math.MaxUint {
		return math.MaxUint
	}
	return uint(s)
}

// Int64 returns s as an int64, capped at math.MaxInt64 on overflow.
func (s Size) Int64() int64 {
	if uint64(s) > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Int32 returns s as an int32, capped at math.MaxInt32 on overflow.
func (s Size) Int32() int32 {
	if uint64(s) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(s)
}

// Int returns s as an int, capped at math.MaxInt on overflow.
func (s Size) Int() int {
	if uint64(s) > math.MaxInt {
		return math.MaxInt
	}
	return int(s)
}

// Float64 returns s as a float64, capped at math.MaxFloat64 (never reached
// in practice since uint64's range is far below it).
func (s Size) Float64() float64 {
	f := float64(s)
	if f > math.MaxFloat64 {
		return math.MaxFloat64
	}
	return f
}

// Float32 returns s as a float32, capped at math.MaxFloat32 on overflow.
func (s Size) Float32() float32 {
	f := float64(s)
	if f > math.MaxFloat32 {
		return math.MaxFloat32
	}
	return float32(f)
}
