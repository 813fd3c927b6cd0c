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
	"sync/atomic"

	"github.com/ashforge/netcore/address"
	"github.com/ashforge/netcore/block"
	"github.com/ashforge/netcore/nettime"
	"github.com/ashforge/netcore/stats"
)

// fragmentGroup accumulates the fragments of one in-flight incoming
// message, keyed by the connection's fragments map on its sequence.
type fragmentGroup struct {
	id         uint32
	totalSize  uint32
	byIndex    map[uint16][]byte
	received   uint32
}

func (g *fragmentGroup) complete() bool {
	return g.received >= g.totalSize
}

// assemble concatenates fragments in index order into one contiguous
// buffer. Callers MUST have already verified g.complete().
func (g *fragmentGroup) assemble() []byte {
	out := make([]byte, 0, g.totalSize)
	for i := uint16(0); ; i++ {
		part, ok := g.byIndex[i]
		if !ok {
			break
		}
		out = append(out, part...)
	}
	return out
}

// inFlightMessage tracks the unacknowledged fragments of one outgoing
// message, so DataAcknowledge can free the message's id slot once
// every fragment has been acked. There is no retransmission: a
// fragment that never gets acked simply leaves the slot occupied
// until the connection's timeout tears the whole connection down.
type inFlightMessage struct {
	id      uint32
	pending map[uint16]struct{}
}

// Connection is one UDP session's state, conceptually in one of
// {None, Pending, Connected, Closed}. Pending state lives in the
// Endpoint's pending map instead (see pendingConnection); a
// Connection only exists once a handshake has produced an id.
type Connection struct {
	Address address.Address
	ID      uint32

	mtu               int32 // atomic
	isInitializer     bool
	connected         int32 // atomic bool

	mu                  sync.Mutex
	nextSequence        uint16
	timeoutPoint        nettime.Point
	nextPingPoint       nettime.Point
	maxReceivedSequence uint16
	haveMaxReceived     bool
	fragments           map[uint16]*fragmentGroup
	fragmentsTotalData  uint32
	inFlight            map[uint16]*inFlightMessage

	idAlloc *idAllocator
	Stats   *stats.Stats
}

func newConnection(id uint32, addr address.Address, mtu int, initializer bool, window uint) *Connection {
	return &Connection{
		Address:       addr,
		ID:            id,
		mtu:           int32(mtu),
		isInitializer: initializer,
		connected:     1,
		fragments:     make(map[uint16]*fragmentGroup),
		inFlight:      make(map[uint16]*inFlightMessage),
		idAlloc:       newIDAllocator(window),
		Stats:         stats.New(),
	}
}

// IsConnected reports whether this connection has not yet been torn
// down by Disconnect or timeout.
func (c *Connection) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *Connection) markClosed() {
	atomic.StoreInt32(&c.connected, 0)
}

// MTU returns the negotiated maximum fragment payload budget.
func (c *Connection) MTU() int {
	return int(atomic.LoadInt32(&c.mtu))
}

func (c *Connection) touchTimeout(timeout nettime.Interval) {
	c.mu.Lock()
	c.timeoutPoint = nettime.Now().Add(timeout)
	c.mu.Unlock()
}

func (c *Connection) timedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nettime.Now().After(c.timeoutPoint)
}

func (c *Connection) needsPing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nettime.Now().After(c.nextPingPoint)
}

func (c *Connection) schedulePing(interval nettime.Interval) {
	c.mu.Lock()
	c.nextPingPoint = nettime.Now().Add(interval)
	c.mu.Unlock()
}

// allocateSequence returns the next monotonic per-connection sequence
// number used both as the fragment-group key and the watermark
// compared on receive.
func (c *Connection) allocateSequence() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.nextSequence
	c.nextSequence++
	return seq
}

// trackOutgoing registers the fragment indices of a just-sent message
// so later DataAcknowledge packets can free its id slot.
func (c *Connection) trackOutgoing(seq uint16, id uint32, fragmentCount int) {
	pending := make(map[uint16]struct{}, fragmentCount)
	for i := 0; i < fragmentCount; i++ {
		pending[uint16(i)] = struct{}{}
	}

	c.mu.Lock()
	c.inFlight[seq] = &inFlightMessage{id: id, pending: pending}
	c.mu.Unlock()
}

// acknowledgeFragment marks one fragment of an outgoing message as
// acked, freeing the message's id slot once every fragment is in.
func (c *Connection) acknowledgeFragment(seq, fragmentIndex uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, ok := c.inFlight[seq]
	if !ok {
		return
	}

	delete(msg.pending, fragmentIndex)
	if len(msg.pending) == 0 {
		delete(c.inFlight, seq)
		c.idAlloc.free(msg.id)
	}
}

// acceptFragment folds one received Data packet's payload into the
// connection's fragment table. It returns the assembled Block once
// every byte of the message has arrived, or nil while more fragments
// are still outstanding. late is true when the fragment was dropped
// because its sequence is at or below the watermark.
func (c *Connection) acceptFragment(alloc *block.Allocator, h dataHeader, payload []byte) (blk *block.Block, late bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.haveMaxReceived && h.Sequence <= c.maxReceivedSequence {
		if _, inProgress := c.fragments[h.Sequence]; !inProgress {
			return nil, true
		}
	}

	group, ok := c.fragments[h.Sequence]
	if !ok {
		group = &fragmentGroup{id: h.ID, totalSize: h.TotalSize, byIndex: make(map[uint16][]byte)}
		c.fragments[h.Sequence] = group
	}

	if _, dup := group.byIndex[h.FragmentIndex]; !dup {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		group.byIndex[h.FragmentIndex] = cp
		group.received += uint32(len(payload))
		c.fragmentsTotalData += uint32(len(payload))
	}

	if !group.complete() {
		return nil, false
	}

	delete(c.fragments, h.Sequence)
	if !c.haveMaxReceived || h.Sequence > c.maxReceivedSequence {
		c.maxReceivedSequence = h.Sequence
		c.haveMaxReceived = true
	}

	assembled := group.assemble()
	return alloc.Build([]block.Part{{Data: assembled}}), false
}
