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

// Package tcp is the framed message protocol: every outgoing message is
// preceded by an 8-byte transport header (magic, checksum, length) and
// decoded on the far side by a per-connection reassembler.
package tcp

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/ashforge/netcore/reassembler"
)

// HeaderSize is the fixed size of the transport header, included in
// the header's own length field.
const HeaderSize = 8

// Magic identifies a well-formed transport header. Any other value is
// immediate corruption.
const Magic uint16 = 0xF00D

// EncodeFrame builds one complete on-wire frame: header + payload. The
// checksum is a CRC-32 (IEEE) over payload, resolving the open
// question left by the original implementation in favor of
// verification.
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))

	binary.LittleEndian.PutUint16(frame[0:2], Magic)
	crc := crc32.ChecksumIEEE(payload)
	binary.LittleEndian.PutUint16(frame[2:4], uint16(crc))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(HeaderSize+len(payload)))
	copy(frame[HeaderSize:], payload)

	return frame
}

// inspector implements reassembler.Inspector for the TCP transport
// header. It is stateless and safe to share a single instance across
// connections, but each Reassembler still owns its own buffer.
type inspector struct{}

func (inspector) TryParseHeader(buf []byte) (reassembler.Status, int) {
	if len(buf) < HeaderSize {
		return reassembler.NeedsMore, 0
	}

	magic := binary.LittleEndian.Uint16(buf[0:2])
	if magic != Magic {
		return reassembler.Corruption, 0
	}

	length := binary.LittleEndian.Uint32(buf[4:8])
	if length < HeaderSize {
		return reassembler.Corruption, 0
	}

	return reassembler.Valid, int(length)
}

func (inspector) TryParseMessage(frame []byte) reassembler.Status {
	checksum := binary.LittleEndian.Uint16(frame[2:4])
	payload := frame[HeaderSize:]

	if uint16(crc32.ChecksumIEEE(payload)) != checksum {
		return reassembler.Corruption
	}

	return reassembler.Valid
}

// Inspector returns the shared, stateless Inspector for TCP frames.
func Inspector() reassembler.Inspector {
	return inspector{}
}

// Payload strips the transport header from a frame returned as Valid
// by a Reassembler built with Inspector().
func Payload(frame []byte) []byte {
	return frame[HeaderSize:]
}
