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

// Package block provides an arena-style allocator handing out
// reference-returnable byte blocks, used to own packet payloads from
// receive through handler callback without an extra copy.
package block

import (
	"sync/atomic"

	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrDoubleRelease fires when a Block is released more than once.
	ErrDoubleRelease liberr.CodeError = 1001
	// ErrForeignBlock fires when a Block is released by an allocator
	// that did not hand it out.
	ErrForeignBlock liberr.CodeError = 1002
	// ErrLeakedBlocks fires when an Allocator is closed with live blocks.
	ErrLeakedBlocks liberr.CodeError = 1003
)

// Part is a non-owning (ptr, size) view, used by callers composing a
// message out of several blocks without granting ownership.
type Part struct {
	Data []byte
}

// Len returns the length of the part.
func (p Part) Len() int {
	return len(p.Data)
}

// Allocator hands out Blocks and tracks live-block / live-byte counts
// for leak detection and peak-use reporting. The zero value is usable.
type Allocator struct {
	liveBlocks int64
	liveBytes  int64
	peakBytes  int64
}

// New returns a ready Allocator.
func New() *Allocator {
	return &Allocator{}
}

// Alloc returns a Block owning exactly usableSize fresh bytes.
func (a *Allocator) Alloc(usableSize int) *Block {
	buf := make([]byte, usableSize)

	atomic.AddInt64(&a.liveBlocks, 1)
	total := atomic.AddInt64(&a.liveBytes, int64(usableSize))
	for {
		peak := atomic.LoadInt64(&a.peakBytes)
		if total <= peak || atomic.CompareAndSwapInt64(&a.peakBytes, peak, total) {
			break
		}
	}

	return &Block{
		alloc:    a,
		buf:      buf,
		off:      0,
		size:     usableSize,
		total:    usableSize,
		released: new(int32),
	}
}

// Build concatenates parts into one freshly allocated Block.
func (a *Allocator) Build(parts []Part) *Block {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}

	b := a.Alloc(n)
	pos := 0
	for _, p := range parts {
		copy(b.buf[pos:], p.Data)
		pos += p.Len()
	}

	return b
}

// LiveBlocks returns the number of blocks currently outstanding.
func (a *Allocator) LiveBlocks() int64 {
	return atomic.LoadInt64(&a.liveBlocks)
}

// LiveBytes returns the number of bytes currently owned by live blocks.
func (a *Allocator) LiveBytes() int64 {
	return atomic.LoadInt64(&a.liveBytes)
}

// PeakBytes returns the high-watermark of LiveBytes ever observed.
func (a *Allocator) PeakBytes() int64 {
	return atomic.LoadInt64(&a.peakBytes)
}

// Close asserts no block is outstanding; a non-zero live count is the
// allocator's own contract violation (a caller forgot Release), so it
// is reported as an error rather than silently ignored.
func (a *Allocator) Close() liberr.Error {
	if n := a.LiveBlocks(); n != 0 {
		return ErrLeakedBlocks.Errorf("%d block(s) still live at allocator close", n)
	}
	return nil
}

func (a *Allocator) release(size int) {
	atomic.AddInt64(&a.liveBlocks, -1)
	atomic.AddInt64(&a.liveBytes, -int64(size))
}

// Block owns a buffer carved out by an Allocator. Its visible window
// (off, size) can be shrunk without copying or moving the backing
// buffer; the buffer is only freed once, by Release.
type Block struct {
	alloc *Allocator
	buf   []byte
	off   int
	size  int
	total int

	released *int32
}

// Data returns the currently visible window.
func (b *Block) Data() []byte {
	if b == nil {
		return nil
	}
	return b.buf[b.off : b.off+b.size]
}

// Size returns the length of the currently visible window.
func (b *Block) Size() int {
	if b == nil {
		return 0
	}
	return b.size
}

// TotalSize returns the full underlying buffer length, regardless of
// how far the window has been shrunk.
func (b *Block) TotalSize() int {
	if b == nil {
		return 0
	}
	return b.total
}

// Shrink advances the visible window by headOffset bytes and, if
// newSize is non-negative, clamps the window length to it. The
// underlying buffer is never moved or freed.
func (b *Block) Shrink(headOffset int, newSize int) {
	b.off += headOffset
	b.size -= headOffset

	if newSize >= 0 && newSize < b.size {
		b.size = newSize
	}
}

// Release returns the block to its allocator. Calling Release more
// than once on the same Block is a programmer error and is reported
// rather than double-freeing the underlying counters.
func (b *Block) Release() liberr.Error {
	if b == nil {
		return nil
	}

	if !atomic.CompareAndSwapInt32(b.released, 0, 1) {
		return ErrDoubleRelease.Error(nil)
	}

	b.alloc.release(b.total)
	return nil
}
