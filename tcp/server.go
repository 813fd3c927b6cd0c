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
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ashforge/netcore/address"
	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/logger"
	loglvl "github.com/ashforge/netcore/logger/level"
	"github.com/ashforge/netcore/replication"
	"github.com/ashforge/netcore/runner/startStop"
	"github.com/ashforge/netcore/semaphore/sem"
)

const (
	// ErrListenFailed fires when the server cannot bind its listening
	// socket.
	ErrListenFailed liberr.CodeError = 4004
	// ErrServerClosed fires when an operation is attempted on a Server
	// whose accept loop has already stopped.
	ErrServerClosed liberr.CodeError = 4005
)

// ServerHandler receives per-connection lifecycle events from a
// Server, mirroring the UDP transport's Handler so application code
// can treat both transports uniformly where it wants to.
type ServerHandler interface {
	ConnectionAccepted(c *Connection)
	ConnectionClosed(c *Connection)
}

// Server accepts many TCP connections, each with its own Replicator
// and Reassembler. It maintains a connection-id-keyed and (nowhere
// else, per the cyclic-ownership design note) address-keyed map under
// one lock, so a connection's owning server is never referenced back
// from the connection itself.
type Server struct {
	cfg     Config
	handler ServerHandler
	log     logger.Logger
	repo    *replication.ObjectRepository

	listener net.Listener
	sema     sem.Sem

	mu      sync.Mutex
	conns   map[uint32]*Connection
	nextID  uint32

	run startStop.StartStop
}

// NewServer binds a listening socket at cfg.Address. The server does
// not accept connections until Start is called.
func NewServer(cfg Config, handler ServerHandler, log logger.Logger) (*Server, liberr.Error) {
	l, err := net.Listen(cfg.Network.String(), cfg.Address)
	if err != nil {
		return nil, ErrListenFailed.Error(err)
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		log:     log,
		repo:    replication.NewObjectRepository(),
		listener: l,
		conns:    make(map[uint32]*Connection),
	}
	s.sema = sem.New(context.Background(), int64(cfg.MaxConcurrentConnections))
	s.run = startStop.New(s.acceptLoop, s.acceptStop)

	return s, nil
}

// LocalAddress returns the address the listening socket is bound to.
func (s *Server) LocalAddress() address.Address {
	return addrOf(s.listener.Addr())
}

// Start launches the accept loop in a background goroutine.
func (s *Server) Start(ctx context.Context) liberr.Error {
	if err := s.run.Start(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

// Stop closes the listener, which unblocks Accept, and waits for
// every still-running per-connection receive goroutine to exit.
func (s *Server) Stop(ctx context.Context) liberr.Error {
	if err := s.run.Stop(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

func (s *Server) logEntry(lvl loglvl.Level, msg string) {
	if s.log == nil {
		return
	}
	s.log.Entry(lvl, msg).FieldAdd("local", s.LocalAddress().String()).Log()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	s.logEntry(loglvl.InfoLevel, "tcp server accept loop started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logEntry(loglvl.ErrorLevel, "tcp server accept failed: "+err.Error())
				return err
			}
		}

		id := atomic.AddUint32(&s.nextID, 1)
		c := newConnection(id, conn, s.repo)

		s.mu.Lock()
		s.conns[id] = c
		s.mu.Unlock()

		if s.handler != nil {
			s.handler.ConnectionAccepted(c)
		}

		wg.Add(1)
		go s.serve(ctx, c, &wg)
	}
}

func (s *Server) acceptStop(context.Context) error {
	return s.listener.Close()
}

func (s *Server) serve(ctx context.Context, c *Connection, wg *sync.WaitGroup) {
	defer wg.Done()

	if err := s.sema.NewWorker(); err != nil {
		return
	}
	defer s.sema.DeferWorker()

	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if ferr := c.feed(buf[:n]); ferr != nil {
				s.logEntry(loglvl.ErrorLevel, "tcp connection closed on corruption: "+ferr.Error())
				break
			}
		}
		if err != nil {
			c.markFatal()
			break
		}
	}

	_ = c.Close()

	s.mu.Lock()
	delete(s.conns, c.ID())
	s.mu.Unlock()

	if s.handler != nil {
		s.handler.ConnectionClosed(c)
	}
}

// Connection looks up one accepted connection by id.
func (s *Server) Connection(id uint32) (*Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	return c, ok
}

// Connections returns a snapshot of every currently accepted connection.
func (s *Server) Connections() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	return out
}
