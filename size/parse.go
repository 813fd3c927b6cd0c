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
	"strconv"
	"strings"
)

var unitMultiplier = map[byte]Size{
	'B': SizeUnit,
	'K': SizeKilo,
	'M': SizeMega,
	'G': SizeGiga,
	'T': SizeTera,
	'P': SizePeta,
	'E': SizeExa,
}

// parseString parses one or more "<number><unit>" runs (e.g. "1GB500MB") and
// sums them. A bare "<unit>B" suffix is optional and ignored beyond its
// leading letter: "5K", "5KB" and "5Kb" are equivalent.
func parseString(s string) (Size, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)

	if s == "" {
		return SizeNul, fmt.Errorf("invalid size: empty input")
	}

	if s[0] == '-' {
		return SizeNul, fmt.Errorf("invalid size %q: negative values are not allowed", s)
	}
	if s[0] == '+' {
		s = s[1:]
	}

	var total float64
	rest := s
	consumed := false

	for len(rest) > 0 {
		numEnd := 0
		seenDot := false
		for numEnd < len(rest) && (isDigit(rest[numEnd]) || (rest[numEnd] == '.' && !seenDot)) {
			if rest[numEnd] == '.' {
				seenDot = true
			}
			numEnd++
		}

		if numEnd == 0 {
			return SizeNul, fmt.Errorf("invalid size %q: expected a number", s)
		}

		n, e := strconv.ParseFloat(rest[:numEnd], 64)
		if e != nil {
			return SizeNul, fmt.Errorf("invalid size %q: %w", s, e)
		}

		rest = rest[numEnd:]

		unitEnd := 0
		for unitEnd < len(rest) && isLetter(rest[unitEnd]) {
			unitEnd++
		}

		if unitEnd == 0 {
			return SizeNul, fmt.Errorf("invalid size %q: missing unit", s)
		}

		letter := byte(strings.ToUpper(rest[:1])[0])
		mult, ok := unitMultiplier[letter]
		if !ok {
			return SizeNul, fmt.Errorf("invalid size %q: unknown unit %q", s, rest[:unitEnd])
		}

		total += n * float64(mult)
		rest = rest[unitEnd:]
		consumed = true
	}

	if !consumed {
		return SizeNul, fmt.Errorf("invalid size %q: missing unit", s)
	}

	if total > math.MaxUint64 {
		return SizeNul, fmt.Errorf("invalid size %q: value overflows uint64", s)
	}

	return Size(total), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
