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

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrWindowFull fires when a connection's in-flight message window
	// has no free slot left to allocate an outgoing message id from.
	ErrWindowFull liberr.CodeError = 3002
)

// idAllocator hands out small message ids from a fixed-size bit-pool,
// the per-connection fragment window bounding how many outgoing
// messages may be unacknowledged at once. Freed ids are reused before
// the window is ever grown past its configured size, so memory stays
// bounded regardless of connection lifetime.
type idAllocator struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	size uint
}

func newIDAllocator(window uint) *idAllocator {
	if window == 0 {
		window = 1
	}
	return &idAllocator{bits: bitset.New(window), size: window}
}

// alloc returns the lowest free slot in the window, or ErrWindowFull
// if every slot is currently in flight.
func (a *idAllocator) alloc() (uint32, liberr.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := uint(0); i < a.size; i++ {
		if !a.bits.Test(i) {
			a.bits.Set(i)
			return uint32(i), nil
		}
	}
	return 0, ErrWindowFull.Error(nil)
}

// free returns a slot to the pool. Freeing a slot that was not
// allocated is a no-op.
func (a *idAllocator) free(id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bits.Clear(uint(id))
}
