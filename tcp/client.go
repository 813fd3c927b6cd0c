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

	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/logger"
	loglvl "github.com/ashforge/netcore/logger/level"
	"github.com/ashforge/netcore/replication"
	"github.com/ashforge/netcore/runner/startStop"
)

const (
	// ErrDialFailed fires when Client.Start cannot establish the
	// outbound TCP connection.
	ErrDialFailed liberr.CodeError = 4006
)

// Client is a single dialed TCP connection: one Connection plus the
// background goroutine reading it, wrapped the same way the server
// wraps each of its accepted connections.
type Client struct {
	cfg Config
	log logger.Logger

	*Connection

	run startStop.StartStop
}

// NewClient dials cfg.Address and wraps the resulting socket. The
// background receive loop does not start until Start is called.
func NewClient(cfg Config, log logger.Logger) (*Client, liberr.Error) {
	conn, err := net.Dial(cfg.Network.String(), cfg.Address)
	if err != nil {
		return nil, ErrDialFailed.Error(err)
	}

	c := &Client{
		cfg:        cfg,
		log:        log,
		Connection: newConnection(1, conn, replication.NewObjectRepository()),
	}
	c.run = startStop.New(c.receiveStart, c.receiveStop)

	return c, nil
}

// Start launches the background receive loop.
func (c *Client) Start(ctx context.Context) liberr.Error {
	if err := c.run.Start(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

// Stop closes the socket, which unblocks the receive loop, and waits
// for it to exit.
func (c *Client) Stop(ctx context.Context) liberr.Error {
	if err := c.run.Stop(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

func (c *Client) logEntry(lvl loglvl.Level, msg string) {
	if c.log == nil {
		return
	}
	c.log.Entry(lvl, msg).FieldAdd("remote", c.RemoteAddress().String()).Log()
}

func (c *Client) receiveStart(ctx context.Context) error {
	c.logEntry(loglvl.InfoLevel, "tcp client receive loop started")

	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if ferr := c.feed(buf[:n]); ferr != nil {
				c.logEntry(loglvl.ErrorLevel, "tcp client closed on corruption: "+ferr.Error())
				return ferr
			}
		}
		if err != nil {
			c.markFatal()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
	}
}

func (c *Client) receiveStop(context.Context) error {
	return c.Connection.Close()
}
