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

// Package size provides a byte-count value type with human-readable parsing
// and formatting ("5MB", "10GiB", ...), used wherever a buffer, bandwidth, or
// file size is a configuration value rather than a raw integer.
package size

// Size is a count of bytes, expressed as the binary-unit scale (1024, not 1000).
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1 << 0
	SizeKilo Size = 1 << 10
	SizeMega Size = 1 << 20
	SizeGiga Size = 1 << 30
	SizeTera Size = 1 << 40
	SizePeta Size = 1 << 50
	SizeExa  Size = 1 << 60
)

// Format verbs for Size.Format, matching fmt's float precision verbs.
const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

// Parse parses a human-readable size string such as "5MB" or "1.5 GiB" into
// a Size. Leading/trailing whitespace and surrounding quotes are trimmed; a
// leading "+" is accepted, a leading "-" is rejected.
func Parse(s string) (Size, error) {
	return parseString(s)
}

// ParseByte is Parse over a byte slice.
func ParseByte(b []byte) (Size, error) {
	return parseString(string(b))
}

// ParseSize is a deprecated alias of Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize is a deprecated alias of ParseByte.
func ParseByteAsSize(b []byte) (Size, error) {
	return ParseByte(b)
}

// GetSize is a deprecated alias of Parse, reporting success as a bool
// instead of an error.
func GetSize(s string) (Size, bool) {
	v, e := Parse(s)
	if e != nil {
		return SizeNul, false
	}
	return v, true
}

// ParseInt64 returns the absolute value of i as a Size.
func ParseInt64(i int64) Size {
	if i < 0 {
		i = -i
	}
	return Size(i)
}

// SizeFromInt64 is an alias of ParseInt64.
func SizeFromInt64(i int64) Size {
	return ParseInt64(i)
}

// ParseUint64 returns u as a Size.
func ParseUint64(u uint64) Size {
	return Size(u)
}

// ParseFloat64 returns the absolute, floored value of f as a Size, capped at
// math.MaxUint64 on overflow.
func ParseFloat64(f float64) Size {
	return sizeFromFloat64(f)
}

// SizeFromFloat64 is an alias of ParseFloat64.
func SizeFromFloat64(f float64) Size {
	return ParseFloat64(f)
}
