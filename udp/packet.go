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

// Package udp is the reliable-enough fragmenting datagram transport:
// connection handshake, liveness pings, timeout-driven disconnect, and
// fragmentation/reassembly of oversize payloads into MTU-sized Data
// packets. Every wire-visible layout in this file is bit-exact with
// the framing described for the transport.
package udp

import (
	"encoding/binary"

	liberr "github.com/ashforge/netcore/errors"
)

// PacketType tags every UDP packet this transport emits or accepts.
type PacketType uint8

const (
	// PacketConnect opens a handshake; sent by the initiating side.
	PacketConnect PacketType = 1
	// PacketDisconnect is an explicit, either-side close notification.
	PacketDisconnect PacketType = 2
	// PacketAcknowledge answers a Connect, completing the handshake.
	PacketAcknowledge PacketType = 3
	// PacketData carries one fragment of a message payload.
	PacketData PacketType = 4
	// PacketDataAcknowledge acks one received fragment.
	PacketDataAcknowledge PacketType = 5
	// PacketTimeoutProbe is a payload-less keep-alive.
	PacketTimeoutProbe PacketType = 6
)

// HeaderSize is the fixed 4-byte packet header: 8-bit type, 24-bit
// checksum. The checksum is a reserved validity field: any value MUST
// be accepted by a receiver, per the wire contract.
const HeaderSize = 4

// DataHeaderSize is the 16-byte sub-header following HeaderSize on
// every PacketData packet.
const DataHeaderSize = 16

// AckHeaderSize is the 4-byte sub-header following HeaderSize on every
// PacketDataAcknowledge packet.
const AckHeaderSize = 4

const (
	// ErrPacketTooShort fires when a received datagram is smaller than
	// the header it claims to carry.
	ErrPacketTooShort liberr.CodeError = 3001
)

// header is the common 4-byte packet header.
type header struct {
	Type     PacketType
	Checksum uint32 // only the low 24 bits are meaningful
}

func encodeHeader(t PacketType, checksum uint32) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = byte(t)
	buf[1] = byte(checksum)
	buf[2] = byte(checksum >> 8)
	buf[3] = byte(checksum >> 16)
	return buf
}

func decodeHeader(buf []byte) (header, liberr.Error) {
	if len(buf) < HeaderSize {
		return header{}, ErrPacketTooShort.Error(nil)
	}
	return header{
		Type:     PacketType(buf[0]),
		Checksum: uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16,
	}, nil
}

// dataHeader is the 16-byte sub-header on a PacketData packet.
type dataHeader struct {
	ID            uint32
	Sequence      uint16
	FragmentIndex uint16
	DataSize      uint16
	_             uint16
	TotalSize     uint32
}

func encodeDataHeader(h dataHeader) []byte {
	buf := make([]byte, DataHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.ID)
	binary.LittleEndian.PutUint16(buf[4:6], h.Sequence)
	binary.LittleEndian.PutUint16(buf[6:8], h.FragmentIndex)
	binary.LittleEndian.PutUint16(buf[8:10], h.DataSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.TotalSize)
	return buf
}

func decodeDataHeader(buf []byte) (dataHeader, liberr.Error) {
	if len(buf) < DataHeaderSize {
		return dataHeader{}, ErrPacketTooShort.Error(nil)
	}
	return dataHeader{
		ID:            binary.LittleEndian.Uint32(buf[0:4]),
		Sequence:      binary.LittleEndian.Uint16(buf[4:6]),
		FragmentIndex: binary.LittleEndian.Uint16(buf[6:8]),
		DataSize:      binary.LittleEndian.Uint16(buf[8:10]),
		TotalSize:     binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// ackHeader is the 4-byte sub-header on a PacketDataAcknowledge packet,
// identifying a single fragment of a data message.
type ackHeader struct {
	Sequence      uint16
	FragmentIndex uint16
}

func encodeAckHeader(h ackHeader) []byte {
	buf := make([]byte, AckHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Sequence)
	binary.LittleEndian.PutUint16(buf[2:4], h.FragmentIndex)
	return buf
}

func decodeAckHeader(buf []byte) (ackHeader, liberr.Error) {
	if len(buf) < AckHeaderSize {
		return ackHeader{}, ErrPacketTooShort.Error(nil)
	}
	return ackHeader{
		Sequence:      binary.LittleEndian.Uint16(buf[0:2]),
		FragmentIndex: binary.LittleEndian.Uint16(buf[2:4]),
	}, nil
}
