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

package udp

import "github.com/ashforge/netcore/block"

// fragmentBudget is the maximum payload bytes one Data packet may
// carry at the given mtu: the raw header plus the data sub-header
// leave the rest of the MTU for payload.
func fragmentBudget(mtu int) int {
	budget := mtu - HeaderSize - DataHeaderSize
	if budget < 1 {
		budget = 1
	}
	return budget
}

// splitFragments concatenates parts and slices the result into
// budget-sized chunks, returning one []byte per fragment in order.
func splitFragments(parts []block.Part, budget int) [][]byte {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}

	joined := make([]byte, 0, total)
	for _, p := range parts {
		joined = append(joined, p.Data...)
	}

	if total == 0 {
		return [][]byte{{}}
	}

	var out [][]byte
	for off := 0; off < total; off += budget {
		end := off + budget
		if end > total {
			end = total
		}
		out = append(out, joined[off:end])
	}
	return out
}
