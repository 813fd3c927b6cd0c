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
	"github.com/ashforge/netcore/network/protocol"
	"github.com/ashforge/netcore/reassembler"
)

// Config binds a Server or Client to a local/remote address and bounds
// its reassembler.
type Config struct {
	Network protocol.NetworkProtocol
	Address string

	Reassembler reassembler.Config

	// MaxConcurrentConnections bounds the server's number of
	// simultaneously running per-connection receive goroutines.
	// 0 means GOMAXPROCS, negative means unlimited.
	MaxConcurrentConnections int

	// ReadBufferSize is the size of the per-read buffer feeding the
	// reassembler; spec.md names 8 KiB.
	ReadBufferSize int
}

// DefaultConfig matches the 8 KiB receive buffer and default
// reassembler caps described for the TCP transport.
func DefaultConfig() Config {
	return Config{
		Network:                  protocol.NetworkTCP,
		Reassembler:              reassembler.DefaultConfig(),
		MaxConcurrentConnections: 0,
		ReadBufferSize:           8192,
	}
}
