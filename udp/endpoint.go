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
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/ashforge/netcore/errors"
	loglvl "github.com/ashforge/netcore/logger/level"

	"github.com/ashforge/netcore/address"
	"github.com/ashforge/netcore/block"
	"github.com/ashforge/netcore/logger"
	"github.com/ashforge/netcore/nettime"
	"github.com/ashforge/netcore/runner/startStop"
)

const (
	// ErrSocketBind fires when the endpoint cannot bind its UDP socket
	// or its wakeup loopback socket.
	ErrSocketBind liberr.CodeError = 3003
	// ErrNotConnected fires when Send/Disconnect target an unknown id.
	ErrNotConnected liberr.CodeError = 3004
	// ErrEndpointClosed fires when an operation is attempted after the
	// endpoint's service loop has stopped.
	ErrEndpointClosed liberr.CodeError = 3005
)

// process-wide, never-reused connection id counter. Value 0 is
// reserved for "no connection".
var nextConnectionID uint32

func allocateConnectionID() uint32 {
	return atomic.AddUint32(&nextConnectionID, 1)
}

// pendingConnection is an outbound handshake awaiting Acknowledge.
type pendingConnection struct {
	id                uint32
	addr              address.Address
	nextRetryPoint    nettime.Point
	retriesLeft       int
	connectionTimeout nettime.Interval
}

type udpPacket struct {
	addr *net.UDPAddr
	data []byte
}

// Endpoint owns one raw UDP socket, its service thread, and the two
// registries of active and pending connections described by the
// connection-oriented handshake/timeout/fragmentation state machine.
type Endpoint struct {
	cfg     Config
	handler Handler
	log     logger.Logger
	alloc   *block.Allocator

	sock     *net.UDPConn
	wake     *net.UDPConn
	wakeAddr *net.UDPAddr

	connMu sync.Mutex
	byID   map[uint32]*Connection
	byAddr map[address.Address]*Connection

	pendingMu sync.Mutex
	pending   map[address.Address]*pendingConnection

	run startStop.StartStop
}

// New binds the endpoint's raw socket and its wakeup loopback socket.
// The endpoint is not listening until Start is called.
func New(cfg Config, handler Handler, log logger.Logger) (*Endpoint, liberr.Error) {
	if handler == nil {
		handler = NopHandler{}
	}

	laddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddress)
	if err != nil {
		return nil, ErrSocketBind.Error(err)
	}

	sock, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, ErrSocketBind.Error(err)
	}

	wake, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		_ = sock.Close()
		return nil, ErrSocketBind.Error(err)
	}

	e := &Endpoint{
		cfg:      cfg,
		handler:  handler,
		log:      log,
		alloc:    block.New(),
		sock:     sock,
		wake:     wake,
		wakeAddr: wake.LocalAddr().(*net.UDPAddr),
		byID:     make(map[uint32]*Connection),
		byAddr:   make(map[address.Address]*Connection),
		pending:  make(map[address.Address]*pendingConnection),
	}

	e.run = startStop.New(e.serviceStart, e.serviceStop)
	return e, nil
}

// LocalAddress returns the address the raw socket is bound to.
func (e *Endpoint) LocalAddress() address.Address {
	return address.FromUDPAddr(e.sock.LocalAddr().(*net.UDPAddr))
}

// Start launches the service thread: one goroutine blocked on the raw
// socket, one blocked on the wakeup socket, fanned into a single
// select loop that also drives the periodic timeout/ping sweep.
func (e *Endpoint) Start(ctx context.Context) liberr.Error {
	if err := e.run.Start(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

// Stop closes both sockets, which unblocks the reader goroutines, and
// waits for the service thread to exit.
func (e *Endpoint) Stop(ctx context.Context) liberr.Error {
	if err := e.run.Stop(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

func (e *Endpoint) logEntry(lvl loglvl.Level, msg string) {
	if e.log == nil {
		return
	}
	e.log.Entry(lvl, msg).FieldAdd("local", e.LocalAddress().String()).Log()
}

func (e *Endpoint) serviceStart(ctx context.Context) error {
	packetCh := make(chan udpPacket, 256)
	wakeCh := make(chan struct{}, 16)

	var wg sync.WaitGroup
	wg.Add(2)
	go e.readLoop(e.sock, packetCh, &wg)
	go e.readWakeLoop(e.wake, wakeCh, &wg)

	selector := e.cfg.SelectorTimeout.Time()
	if selector <= 0 {
		selector = 200 * time.Millisecond
	}
	ticker := time.NewTicker(selector)
	defer ticker.Stop()

	e.logEntry(loglvl.InfoLevel, "udp endpoint service thread started")

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			e.logEntry(loglvl.InfoLevel, "udp endpoint service thread stopped")
			return nil

		case pkt, ok := <-packetCh:
			if !ok {
				<-ctx.Done()
				wg.Wait()
				return nil
			}
			e.handlePacket(pkt)

		case <-wakeCh:
			// no-op: its only purpose is unblocking this select promptly.

		case <-ticker.C:
			e.sweep()
		}
	}
}

func (e *Endpoint) serviceStop(context.Context) error {
	_ = e.sock.Close()
	_ = e.wake.Close()
	return nil
}

func (e *Endpoint) readLoop(conn *net.UDPConn, out chan<- udpPacket, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(out)

	buf := make([]byte, 65535)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case out <- udpPacket{addr: addr, data: data}:
		default:
			// backpressure: drop rather than block the reader; the
			// sender side has no retransmit guarantee anyway.
		}
	}
}

func (e *Endpoint) readWakeLoop(conn *net.UDPConn, out chan<- struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(out)

	buf := make([]byte, 16)
	for {
		_, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		select {
		case out <- struct{}{}:
		default:
		}
	}
}

// wake punches the service thread out of its select loop immediately,
// instead of waiting for the next periodic tick. Preserved literally
// from the source system's "send yourself a packet" technique.
func (e *Endpoint) wake() {
	_, _ = e.wake.WriteToUDP([]byte{0}, e.wakeAddr)
}

func toUDPAddr(a address.Address) *net.UDPAddr {
	return &net.UDPAddr{IP: a.IP(), Port: int(a.Port())}
}
