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
)

// Handler receives every endpoint-level and connection-level event.
// Implementations must not block: the service thread calls these
// synchronously from its receive loop.
type Handler interface {
	// ConnectionRequest fires on the server side when a new address
	// completes a handshake by sending its first Connect.
	ConnectionRequest(id uint32, addr address.Address)
	// ConnectionSucceeded fires on the initiating side once the peer's
	// Acknowledge is received.
	ConnectionSucceeded(id uint32, addr address.Address)
	// ConnectionClosed fires on explicit Disconnect, timeout, or
	// handshake/retry exhaustion. It is called at most once per id.
	ConnectionClosed(id uint32, addr address.Address)
	// DataReceived hands over one fully reassembled message payload.
	// The caller owns blk and must call blk.Release() exactly once.
	DataReceived(id uint32, blk *block.Block)
	// EndpointError fires when the endpoint itself can no longer make
	// progress (see handleEndpointError); no further work is scheduled
	// after this call.
	EndpointError(err liberr.Error)
}

// NopHandler implements Handler with no-ops, useful for tests that
// only exercise the state machine's bookkeeping.
type NopHandler struct{}

func (NopHandler) ConnectionRequest(uint32, address.Address)   {}
func (NopHandler) ConnectionSucceeded(uint32, address.Address) {}
func (NopHandler) ConnectionClosed(uint32, address.Address)    {}
func (NopHandler) DataReceived(uint32, *block.Block)           {}
func (NopHandler) EndpointError(liberr.Error)                  {}
