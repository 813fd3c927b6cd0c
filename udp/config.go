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

import "github.com/ashforge/netcore/duration"

// Config binds an Endpoint to a local address and its timeouts. Every
// tunable is a duration.Duration at the configuration boundary, per
// the config store's ini-bound tunables; runtime code converts to
// nettime.Interval once at Start.
type Config struct {
	// ListenAddress is "host:port" to bind the raw UDP socket to.
	ListenAddress string

	ConnectionTimeout duration.Duration
	PingInterval      duration.Duration
	SendTimeout       duration.Duration
	SelectorTimeout   duration.Duration

	MaxRetransmissions    int
	MaxConnectionRetries  int
	MaxMTU                int
	DefaultMTU            int

	// FragmentWindow bounds the number of concurrently in-flight
	// (unacknowledged) outgoing messages per connection. This is the
	// "per-connection fragment window" the spec's non-goals name as
	// the only flow control in scope; it bounds memory, it does not
	// retransmit or stall Send.
	FragmentWindow uint
}

// DefaultConfig matches the defaults observed for the UDP endpoint:
// a 5s connection timeout, 1s ping interval, 1400-byte max MTU and a
// 512-byte default MTU, with up to 5 connection retries.
func DefaultConfig() Config {
	return Config{
		ConnectionTimeout:    duration.Duration(5_000_000_000),
		PingInterval:         duration.Duration(1_000_000_000),
		SendTimeout:          duration.Duration(1_000_000_000),
		SelectorTimeout:      duration.Duration(200_000_000),
		MaxRetransmissions:   0,
		MaxConnectionRetries: 5,
		MaxMTU:               1400,
		DefaultMTU:           512,
		FragmentWindow:       64,
	}
}
