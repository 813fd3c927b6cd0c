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

// Package reassembler turns a pushed byte stream into discrete message
// frames. It knows nothing about any particular wire format: an
// injected Inspector parses headers and validates full frames, so any
// framing that carries its own length is pluggable (the 8-byte TCP
// transport header of the tcp package is the one inspector this repo
// ships).
package reassembler

import (
	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrStorageExceeded fires when push_data would grow storage past
	// MaxStorageSize.
	ErrStorageExceeded liberr.CodeError = 2001
	// ErrHeaderBudgetExceeded fires when the inspector never returns
	// Valid and the buffered data exceeds MaxHeaderSize.
	ErrHeaderBudgetExceeded liberr.CodeError = 2002
	// ErrInspectorLied fires when the inspector claimed a message size
	// but then returned NeedsMore for a buffer that already held it.
	ErrInspectorLied liberr.CodeError = 2003
	// ErrMessageRejected fires when the inspector returns Corruption
	// while validating a full frame.
	ErrMessageRejected liberr.CodeError = 2004
	// ErrHeaderRejected fires when the inspector returns Corruption
	// while parsing a header.
	ErrHeaderRejected liberr.CodeError = 2005
	// ErrZeroSizeHeader fires when a header parses as Valid but claims
	// a zero or negative message size.
	ErrZeroSizeHeader liberr.CodeError = 2006
)

// Status is the three-way result of one reassembly step.
type Status int

const (
	NeedsMore Status = iota
	Valid
	Corruption
)

// Inspector is the injected, format-specific half of the reassembler.
// It is invoked with the bytes currently buffered and must not retain
// the slice past the call.
type Inspector interface {
	// TryParseHeader inspects the start of a buffered frame and, on
	// Valid, returns the total frame size (header included). On
	// NeedsMore it signals that more bytes are required before a
	// decision can be made.
	TryParseHeader(buf []byte) (status Status, frameSize int)

	// TryParseMessage validates a complete frame (exactly frameSize
	// bytes, as sized by TryParseHeader) before it is handed to the
	// caller as Valid.
	TryParseMessage(buf []byte) Status
}

// Config bounds how much unacknowledged data a Reassembler will hold.
type Config struct {
	InitialStorageSize int
	MaxStorageSize     int
	MaxHeaderSize      int
}

// DefaultConfig matches the defaults used by the TCP transport.
func DefaultConfig() Config {
	return Config{
		InitialStorageSize: 4096,
		MaxStorageSize:     16 * 1024 * 1024,
		MaxHeaderSize:      64,
	}
}

// Reassembler is NOT thread-safe: each connection owns exactly one,
// used only from its own receive goroutine, per the concurrency model.
type Reassembler struct {
	inspector Inspector
	cfg       Config

	storage []byte
	readPos int
	writePos int

	expectedSize int
	corrupted    bool
}

// New builds a Reassembler around inspector using cfg's caps.
func New(inspector Inspector, cfg Config) *Reassembler {
	if cfg.InitialStorageSize <= 0 {
		cfg.InitialStorageSize = 4096
	}

	return &Reassembler{
		inspector: inspector,
		cfg:       cfg,
		storage:   make([]byte, cfg.InitialStorageSize),
	}
}

// PushData appends bytes to storage, growing (and compacting first, if
// the read cursor has advanced) as needed. It fails with the sticky
// corruption flag set if growth would exceed MaxStorageSize.
func (r *Reassembler) PushData(data []byte) liberr.Error {
	if r.corrupted {
		return ErrStorageExceeded.Error(nil)
	}

	need := r.writePos + len(data)

	if need > len(r.storage) {
		r.compact()
		need = r.writePos + len(data)
	}

	if need > len(r.storage) {
		newCap := len(r.storage)
		if newCap == 0 {
			newCap = r.cfg.InitialStorageSize
		}
		for newCap < need {
			newCap *= 2
		}

		if r.cfg.MaxStorageSize > 0 && newCap > r.cfg.MaxStorageSize {
			if need > r.cfg.MaxStorageSize {
				r.corrupted = true
				return ErrStorageExceeded.Errorf("push of %d bytes would exceed max storage %d", len(data), r.cfg.MaxStorageSize)
			}
			newCap = r.cfg.MaxStorageSize
		}

		grown := make([]byte, newCap)
		copy(grown, r.storage[:r.writePos])
		r.storage = grown
	}

	copy(r.storage[r.writePos:], data)
	r.writePos += len(data)

	return nil
}

// compact moves the unread window [readPos, writePos) to the front of
// storage. Compaction never crosses the read cursor.
func (r *Reassembler) compact() {
	if r.readPos == 0 {
		return
	}

	n := copy(r.storage, r.storage[r.readPos:r.writePos])
	r.writePos = n
	r.readPos = 0
}

// window returns the currently buffered, unread bytes.
func (r *Reassembler) window() []byte {
	return r.storage[r.readPos:r.writePos]
}

// Reassemble runs the header-then-message state machine once.
//
// The Corruption state is sticky: once observed (from this call or a
// prior one), every subsequent call returns Corruption immediately.
func (r *Reassembler) Reassemble() (Status, []byte, liberr.Error) {
	if r.corrupted {
		return Corruption, nil, nil
	}

	if r.expectedSize == 0 {
		buf := r.window()

		status, size := r.inspector.TryParseHeader(buf)

		switch status {
		case NeedsMore:
			if r.cfg.MaxHeaderSize > 0 && len(buf) > r.cfg.MaxHeaderSize {
				r.corrupted = true
				return Corruption, nil, ErrHeaderBudgetExceeded.Errorf("header not resolved within %d bytes", r.cfg.MaxHeaderSize)
			}
			return NeedsMore, nil, nil

		case Corruption:
			r.corrupted = true
			return Corruption, nil, ErrHeaderRejected.Error(nil)

		case Valid:
			if size <= 0 {
				r.corrupted = true
				return Corruption, nil, ErrZeroSizeHeader.Errorf("inspector returned non-positive frame size %d", size)
			}
			r.expectedSize = size
		}
	}

	buf := r.window()
	if len(buf) < r.expectedSize {
		return NeedsMore, nil, nil
	}

	frame := buf[:r.expectedSize]
	status := r.inspector.TryParseMessage(frame)

	switch status {
	case Valid:
		r.readPos += r.expectedSize
		r.expectedSize = 0
		return Valid, frame, nil

	case NeedsMore:
		// The inspector already saw >= expectedSize bytes and still
		// asked for more: its own size claim was wrong.
		r.corrupted = true
		return Corruption, nil, ErrInspectorLied.Errorf("inspector requested more data after claiming size %d", len(frame))

	default:
		r.corrupted = true
		return Corruption, nil, ErrMessageRejected.Error(nil)
	}
}

// Corrupted reports whether the sticky corruption flag is set.
func (r *Reassembler) Corrupted() bool {
	return r.corrupted
}

// Pending returns the number of unread, buffered bytes.
func (r *Reassembler) Pending() int {
	return r.writePos - r.readPos
}
