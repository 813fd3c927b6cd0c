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

// Package stats is the per-connection counters and timing aggregator
// shared by the UDP and TCP transports, additionally mirrored into
// Prometheus collectors for operational visibility.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	packetsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "packets_sent_total",
		Help:      "Packets sent per connection.",
	}, []string{"connection"})

	packetsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "packets_received_total",
		Help:      "Packets received per connection.",
	}, []string{"connection"})

	bytesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "bytes_sent_total",
		Help:      "Bytes sent per connection.",
	}, []string{"connection"})

	bytesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "bytes_received_total",
		Help:      "Bytes received per connection.",
	}, []string{"connection"})

	fragmentsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "fragments_dropped_total",
		Help:      "UDP fragments dropped below the sequence watermark, per connection.",
	}, []string{"connection"})
)

// MustRegister registers every collector in this package with r. Call
// once per process; safe to skip in tests that do not need metrics.
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(packetsSent, packetsReceived, bytesSent, bytesReceived, fragmentsDropped)
}

// Snapshot is an immutable copy of a Stats' counters at one instant.
type Snapshot struct {
	PacketsSent       uint64
	PacketsReceived   uint64
	BytesSent         uint64
	BytesReceived     uint64
	MessagesSent      uint64
	MessagesReceived  uint64
	FragmentsSent     uint64
	FragmentsReceived uint64
	FragmentsDropped  uint64
}

// Stats accumulates counters for one connection or endpoint. Every
// field is updated with atomic operations so it may be read from any
// thread while the owning connection's receive goroutine writes to it.
type Stats struct {
	label string

	packetsSent       uint64
	packetsReceived   uint64
	bytesSent         uint64
	bytesReceived     uint64
	messagesSent      uint64
	messagesReceived  uint64
	fragmentsSent     uint64
	fragmentsReceived uint64
	fragmentsDropped  uint64
}

// New returns a zeroed Stats. label, if non-empty, is used as the
// Prometheus "connection" label; an empty label skips metric export.
func New(label ...string) *Stats {
	s := &Stats{}
	if len(label) > 0 {
		s.label = label[0]
	}
	return s
}

func (s *Stats) AddPacketsSent(n uint64) {
	atomic.AddUint64(&s.packetsSent, n)
	if s.label != "" {
		packetsSent.WithLabelValues(s.label).Add(float64(n))
	}
}

func (s *Stats) AddPacketsReceived(n uint64) {
	atomic.AddUint64(&s.packetsReceived, n)
	if s.label != "" {
		packetsReceived.WithLabelValues(s.label).Add(float64(n))
	}
}

func (s *Stats) AddBytesSent(n uint64) {
	atomic.AddUint64(&s.bytesSent, n)
	if s.label != "" {
		bytesSent.WithLabelValues(s.label).Add(float64(n))
	}
}

func (s *Stats) AddBytesReceived(n uint64) {
	atomic.AddUint64(&s.bytesReceived, n)
	if s.label != "" {
		bytesReceived.WithLabelValues(s.label).Add(float64(n))
	}
}

func (s *Stats) AddMessagesSent(n uint64) {
	atomic.AddUint64(&s.messagesSent, n)
}

func (s *Stats) AddMessagesReceived(n uint64) {
	atomic.AddUint64(&s.messagesReceived, n)
}

func (s *Stats) AddFragmentsSent(n uint64) {
	atomic.AddUint64(&s.fragmentsSent, n)
}

func (s *Stats) AddFragmentsReceived(n uint64) {
	atomic.AddUint64(&s.fragmentsReceived, n)
}

func (s *Stats) AddFragmentsDropped(n uint64) {
	atomic.AddUint64(&s.fragmentsDropped, n)
	if s.label != "" {
		fragmentsDropped.WithLabelValues(s.label).Add(float64(n))
	}
}

// Snapshot returns an immutable copy of every counter.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		PacketsSent:       atomic.LoadUint64(&s.packetsSent),
		PacketsReceived:   atomic.LoadUint64(&s.packetsReceived),
		BytesSent:         atomic.LoadUint64(&s.bytesSent),
		BytesReceived:     atomic.LoadUint64(&s.bytesReceived),
		MessagesSent:      atomic.LoadUint64(&s.messagesSent),
		MessagesReceived:  atomic.LoadUint64(&s.messagesReceived),
		FragmentsSent:     atomic.LoadUint64(&s.fragmentsSent),
		FragmentsReceived: atomic.LoadUint64(&s.fragmentsReceived),
		FragmentsDropped:  atomic.LoadUint64(&s.fragmentsDropped),
	}
}
