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
	"github.com/ashforge/netcore/address"
	"github.com/ashforge/netcore/block"
	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/nettime"
)

// Connect starts an outbound handshake to addr, allocating the
// connection id immediately so ConnectionClosed can report it even if
// the handshake never succeeds (scenario: connect to a dead server).
func (e *Endpoint) Connect(addr address.Address) uint32 {
	id := allocateConnectionID()
	timeout := nettime.FromDuration(e.cfg.ConnectionTimeout)

	pc := &pendingConnection{
		id:                id,
		addr:              addr,
		nextRetryPoint:    nettime.Now(),
		retriesLeft:       e.cfg.MaxConnectionRetries,
		connectionTimeout: timeout,
	}

	e.pendingMu.Lock()
	e.pending[addr] = pc
	e.pendingMu.Unlock()

	e.sendConnect(addr)
	e.wake()

	return id
}

// Disconnect sends an explicit Disconnect and tears the connection
// down locally; the handler is notified exactly as it would be on
// receiving the peer's own Disconnect.
func (e *Endpoint) Disconnect(id uint32) liberr.Error {
	conn := e.connectionByID(id)
	if conn == nil {
		return ErrNotConnected.Error(nil)
	}

	e.sendRaw(conn.Address, PacketDisconnect, nil)
	e.closeConnection(conn)
	return nil
}

// Send fragments parts and emits one Data packet per fragment, each
// sharing the message's id, sequence, and total size. It never blocks
// on the network: writes go straight to the non-blocking UDP socket.
func (e *Endpoint) Send(id uint32, parts []block.Part) liberr.Error {
	conn := e.connectionByID(id)
	if conn == nil {
		return ErrNotConnected.Error(nil)
	}
	if !conn.IsConnected() {
		return ErrNotConnected.Error(nil)
	}

	budget := fragmentBudget(conn.MTU())
	fragments := splitFragments(parts, budget)

	msgID, werr := conn.idAlloc.alloc()
	if werr != nil {
		return werr
	}

	seq := conn.allocateSequence()
	totalSize := 0
	for _, f := range fragments {
		totalSize += len(f)
	}

	conn.trackOutgoing(seq, msgID, len(fragments))

	for i, frag := range fragments {
		dh := dataHeader{
			ID:            msgID,
			Sequence:      seq,
			FragmentIndex: uint16(i),
			DataSize:      uint16(len(frag)),
			TotalSize:     uint32(totalSize),
		}
		payload := append(encodeDataHeader(dh), frag...)
		e.sendRaw(conn.Address, PacketData, payload)
		conn.Stats.AddFragmentsSent(1)
		conn.Stats.AddPacketsSent(1)
	}

	return nil
}

func (e *Endpoint) connectionByID(id uint32) *Connection {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return e.byID[id]
}

func (e *Endpoint) connectionByAddr(addr address.Address) *Connection {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	return e.byAddr[addr]
}

func (e *Endpoint) addConnection(c *Connection) {
	e.connMu.Lock()
	e.byID[c.ID] = c
	e.byAddr[c.Address] = c
	e.connMu.Unlock()
}

func (e *Endpoint) closeConnection(c *Connection) {
	e.connMu.Lock()
	delete(e.byID, c.ID)
	delete(e.byAddr, c.Address)
	e.connMu.Unlock()

	c.markClosed()
	e.handler.ConnectionClosed(c.ID, c.Address)
}

func (e *Endpoint) sendConnect(addr address.Address) {
	e.sendRaw(addr, PacketConnect, nil)
}

func (e *Endpoint) sendRaw(addr address.Address, t PacketType, payload []byte) {
	buf := append(encodeHeader(t, 0), payload...)
	_, _ = e.sock.WriteToUDP(buf, toUDPAddr(addr))
}

// handlePacket decodes one received datagram and routes it by
// PacketType to the handshake/data state machine. Malformed packets
// are silently dropped: the UDP contract tolerates loss, so a
// corrupt/truncated datagram is treated the same as one that never
// arrived.
func (e *Endpoint) handlePacket(pkt udpPacket) {
	h, err := decodeHeader(pkt.data)
	if err != nil {
		return
	}
	body := pkt.data[HeaderSize:]
	addr := address.FromUDPAddr(pkt.addr)

	switch h.Type {
	case PacketConnect:
		e.handleConnect(addr)
	case PacketAcknowledge:
		e.handleAcknowledge(addr)
	case PacketDisconnect:
		e.handleDisconnect(addr)
	case PacketData:
		e.handleData(addr, body)
	case PacketDataAcknowledge:
		e.handleDataAcknowledge(addr, body)
	case PacketTimeoutProbe:
		e.handleTimeoutProbe(addr)
	}
}

func (e *Endpoint) handleConnect(addr address.Address) {
	if conn := e.connectionByAddr(addr); conn != nil {
		// Retransmitted Connect after we already answered: just ack
		// again, the peer's Acknowledge must have been lost.
		e.sendRaw(addr, PacketAcknowledge, nil)
		return
	}

	id := allocateConnectionID()
	conn := newConnection(id, addr, e.cfg.DefaultMTU, false, e.cfg.FragmentWindow)
	conn.touchTimeout(nettime.FromDuration(e.cfg.ConnectionTimeout))
	conn.schedulePing(nettime.FromDuration(e.cfg.PingInterval))
	e.addConnection(conn)

	e.sendRaw(addr, PacketAcknowledge, nil)
	e.handler.ConnectionRequest(id, addr)
}

func (e *Endpoint) handleAcknowledge(addr address.Address) {
	e.pendingMu.Lock()
	pc, ok := e.pending[addr]
	if ok {
		delete(e.pending, addr)
	}
	e.pendingMu.Unlock()

	if !ok {
		return
	}

	conn := newConnection(pc.id, addr, e.cfg.DefaultMTU, true, e.cfg.FragmentWindow)
	conn.touchTimeout(nettime.FromDuration(e.cfg.ConnectionTimeout))
	conn.schedulePing(nettime.FromDuration(e.cfg.PingInterval))
	e.addConnection(conn)

	e.handler.ConnectionSucceeded(pc.id, addr)
}

func (e *Endpoint) handleDisconnect(addr address.Address) {
	conn := e.connectionByAddr(addr)
	if conn == nil {
		return
	}
	e.closeConnection(conn)
}

func (e *Endpoint) handleTimeoutProbe(addr address.Address) {
	conn := e.connectionByAddr(addr)
	if conn == nil {
		return
	}
	conn.touchTimeout(nettime.FromDuration(e.cfg.ConnectionTimeout))
}

func (e *Endpoint) handleData(addr address.Address, body []byte) {
	conn := e.connectionByAddr(addr)
	if conn == nil {
		return
	}

	dh, derr := decodeDataHeader(body)
	if derr != nil {
		return
	}
	payload := body[DataHeaderSize:]

	conn.touchTimeout(nettime.FromDuration(e.cfg.ConnectionTimeout))
	conn.Stats.AddPacketsReceived(1)

	blk, late := conn.acceptFragment(e.alloc, dh, payload)
	if late {
		conn.Stats.AddFragmentsDropped(1)
		return
	}

	conn.Stats.AddFragmentsReceived(1)
	conn.Stats.AddBytesReceived(uint64(len(payload)))

	ack := encodeAckHeader(ackHeader{Sequence: dh.Sequence, FragmentIndex: dh.FragmentIndex})
	e.sendRaw(addr, PacketDataAcknowledge, ack)

	if blk != nil {
		conn.Stats.AddMessagesReceived(1)
		e.handler.DataReceived(conn.ID, blk)
	}
}

func (e *Endpoint) handleDataAcknowledge(addr address.Address, body []byte) {
	conn := e.connectionByAddr(addr)
	if conn == nil {
		return
	}

	ah, aerr := decodeAckHeader(body)
	if aerr != nil {
		return
	}

	conn.acknowledgeFragment(ah.Sequence, ah.FragmentIndex)
}

// sweep runs the periodic timeout/ping pass over both registries:
// pending outbound handshakes that must retry or give up, and
// established connections that need a keep-alive probe or have gone
// silent past their timeout.
func (e *Endpoint) sweep() {
	e.sweepPending()
	e.sweepConnections()
}

func (e *Endpoint) sweepPending() {
	now := nettime.Now()

	var toRetry, toClose []*pendingConnection

	e.pendingMu.Lock()
	for addr, pc := range e.pending {
		if !now.After(pc.nextRetryPoint) {
			continue
		}
		if pc.retriesLeft <= 0 {
			toClose = append(toClose, pc)
			delete(e.pending, addr)
			continue
		}
		pc.retriesLeft--
		pc.nextRetryPoint = now.Add(pc.connectionTimeout)
		toRetry = append(toRetry, pc)
	}
	e.pendingMu.Unlock()

	for _, pc := range toRetry {
		e.sendConnect(pc.addr)
	}
	for _, pc := range toClose {
		e.handler.ConnectionClosed(pc.id, pc.addr)
	}
}

func (e *Endpoint) sweepConnections() {
	e.connMu.Lock()
	conns := make([]*Connection, 0, len(e.byID))
	for _, c := range e.byID {
		conns = append(conns, c)
	}
	e.connMu.Unlock()

	for _, c := range conns {
		if c.timedOut() {
			e.closeConnection(c)
			continue
		}
		if c.needsPing() {
			e.sendRaw(c.Address, PacketTimeoutProbe, nil)
			c.schedulePing(nettime.FromDuration(e.cfg.PingInterval))
		}
	}
}
