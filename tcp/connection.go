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

package tcp

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/ashforge/netcore/address"
	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/reassembler"
	"github.com/ashforge/netcore/replication"
	"github.com/ashforge/netcore/stats"
)

// Connection is one accepted or dialed TCP stream, carrying its own
// Replicator, Reassembler and inbound FIFO. Fatal error is sticky: no
// further data is parsed or sent once set.
type Connection struct {
	id     uint32
	local  address.Address
	remote address.Address

	conn net.Conn

	reassembler *reassembler.Reassembler
	replicator  *replication.Replicator
	stats       *stats.Stats

	inboundMu sync.Mutex
	inbound   []replication.Message

	fatal int32

	writeMu sync.Mutex
}

func newConnection(id uint32, conn net.Conn, repo *replication.ObjectRepository) *Connection {
	c := &Connection{
		id:     id,
		local:  addrOf(conn.LocalAddr()),
		remote: addrOf(conn.RemoteAddr()),
		conn:   conn,
		stats:  stats.New(),
	}

	c.reassembler = reassembler.New(Inspector(), DefaultConfig().Reassembler)
	c.replicator = replication.New(repo, c, c)

	return c
}

func addrOf(a net.Addr) address.Address {
	if tcp, ok := a.(*net.TCPAddr); ok {
		return address.FromTCPAddr(tcp)
	}
	return address.None
}

// ID returns the process-local connection id.
func (c *Connection) ID() uint32 {
	return c.id
}

// LocalAddress returns the local endpoint of the connection.
func (c *Connection) LocalAddress() address.Address {
	return c.local
}

// RemoteAddress returns the peer endpoint of the connection.
func (c *Connection) RemoteAddress() address.Address {
	return c.remote
}

// IsConnected reports whether the connection has not been marked fatal
// and its underlying socket has not been closed.
func (c *Connection) IsConnected() bool {
	return atomic.LoadInt32(&c.fatal) == 0
}

// Stats returns a live view of this connection's counters.
func (c *Connection) Stats() *stats.Stats {
	return c.stats
}

// Send encodes msg through the Replicator and writes the resulting
// framed bytes to the socket.
func (c *Connection) Send(msg replication.Message) liberr.Error {
	if !c.IsConnected() {
		return ErrFatalConnection.Error(nil)
	}
	return c.replicator.Send(msg)
}

// SendMessage implements replication.DataSink: it wraps an
// already-serialized replicator payload in the transport header and
// writes header and payload contiguously to the socket.
func (c *Connection) SendMessage(payload []byte) liberr.Error {
	frame := EncodeFrame(payload)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	n, err := c.conn.Write(frame)
	if err != nil {
		atomic.StoreInt32(&c.fatal, 1)
		return ErrWriteFailed.Error(err)
	}

	c.stats.AddBytesSent(uint64(n))
	c.stats.AddMessagesSent(1)
	return nil
}

// DispatchMessageForExecution implements replication.Dispatcher: it
// pushes a fully decoded incoming message onto this connection's
// inbound FIFO.
func (c *Connection) DispatchMessageForExecution(msg replication.Message) {
	c.inboundMu.Lock()
	c.inbound = append(c.inbound, msg)
	c.inboundMu.Unlock()

	c.stats.AddMessagesReceived(1)
}

// PullNextMessage dequeues the oldest undelivered message, or returns
// ok == false if the queue is empty. It never blocks.
func (c *Connection) PullNextMessage() (msg replication.Message, ok bool) {
	c.inboundMu.Lock()
	defer c.inboundMu.Unlock()

	if len(c.inbound) == 0 {
		return replication.Message{}, false
	}

	msg = c.inbound[0]
	c.inbound = c.inbound[1:]
	return msg, true
}

// markFatal sets the sticky fatal flag; no further data is parsed or
// sent once set.
func (c *Connection) markFatal() {
	atomic.StoreInt32(&c.fatal, 1)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	atomic.StoreInt32(&c.fatal, 1)
	return c.conn.Close()
}

// feed pushes newly received bytes through the reassembler and runs
// every resulting Valid frame through the Replicator.
func (c *Connection) feed(data []byte) liberr.Error {
	if err := c.reassembler.PushData(data); err != nil {
		c.markFatal()
		return err
	}

	for {
		status, frame, err := c.reassembler.Reassemble()
		if err != nil {
			c.markFatal()
			return err
		}

		switch status {
		case reassembler.Valid:
			c.stats.AddBytesReceived(uint64(len(frame)))
			if rerr := c.replicator.Receive(Payload(frame)); rerr != nil {
				c.markFatal()
				return rerr
			}
		case reassembler.Corruption:
			c.markFatal()
			return ErrReassemblyCorrupt.Error(nil)
		default:
			return nil
		}
	}
}

const (
	// ErrFatalConnection fires when Send is attempted on a connection
	// already marked fatal.
	ErrFatalConnection liberr.CodeError = 4001
	// ErrWriteFailed fires when the socket write for an outgoing frame
	// fails.
	ErrWriteFailed liberr.CodeError = 4002
	// ErrReassemblyCorrupt fires when the connection's reassembler
	// reports Corruption; the connection is closed, others are
	// unaffected.
	ErrReassemblyCorrupt liberr.CodeError = 4003
)
