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

// Package address is the endpoint value type shared by the UDP and TCP
// transports: an IPv4 or IPv6 host plus a port, equatable and hashable
// without allocation.
package address

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Family tags which of the two byte layouts Address.bytes holds.
type Family uint8

const (
	// FamilyNone is the zero value: no address has been set.
	FamilyNone Family = iota
	FamilyIPv4
	FamilyIPv6
)

// Address is a tagged union of an IPv4 (4-byte) or IPv6 (16-byte) host
// plus a 16-bit port. The bytes beyond the active family's width are
// always zero, which is the invariant equality and hashing rely on.
type Address struct {
	family Family
	bytes  [16]byte
	port   uint16
}

// None is the zero-value Address (FamilyNone, all bytes zero, port 0).
var None = Address{}

// FromIP builds an Address from a net.IP and a port. IPv4-mapped IPv6
// addresses are normalized to the 4-byte family.
func FromIP(ip net.IP, port uint16) Address {
	a := Address{port: port}

	if v4 := ip.To4(); v4 != nil {
		a.family = FamilyIPv4
		copy(a.bytes[:4], v4)
		return a
	}

	if v6 := ip.To16(); v6 != nil {
		a.family = FamilyIPv6
		copy(a.bytes[:16], v6)
		return a
	}

	return a
}

// FromUDPAddr builds an Address from a resolved *net.UDPAddr.
func FromUDPAddr(a *net.UDPAddr) Address {
	if a == nil {
		return None
	}
	return FromIP(a.IP, uint16(a.Port))
}

// FromTCPAddr builds an Address from a resolved *net.TCPAddr.
func FromTCPAddr(a *net.TCPAddr) Address {
	if a == nil {
		return None
	}
	return FromIP(a.IP, uint16(a.Port))
}

// Parse accepts "host:port", a bare "host" (port 0), and the optional
// "IP4:"/"IP6:" disambiguation prefixes described by the wire format.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)

	forceV4, forceV6 := false, false
	switch {
	case strings.HasPrefix(s, "IP4:"):
		forceV4 = true
		s = s[4:]
	case strings.HasPrefix(s, "IP6:"):
		forceV6 = true
		s = s[4:]
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		host, portStr = s, "0"
	}

	var port uint64
	if portStr != "" {
		port, err = strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return None, fmt.Errorf("address: invalid port in %q: %w", s, err)
		}
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return None, fmt.Errorf("address: invalid host in %q", s)
	}

	a := FromIP(ip, uint16(port))
	if forceV4 && a.family != FamilyIPv4 {
		return None, fmt.Errorf("address: %q is not an IPv4 address", s)
	}
	if forceV6 && a.family != FamilyIPv6 {
		return None, fmt.Errorf("address: %q is not an IPv6 address", s)
	}

	return a, nil
}

// Family returns which union member is active.
func (a Address) Family() Family {
	return a.family
}

// Port returns the port component.
func (a Address) Port() uint16 {
	return a.port
}

// IP returns the address bytes as a net.IP, or nil for FamilyNone.
func (a Address) IP() net.IP {
	switch a.family {
	case FamilyIPv4:
		ip := make(net.IP, 4)
		copy(ip, a.bytes[:4])
		return ip
	case FamilyIPv6:
		ip := make(net.IP, 16)
		copy(ip, a.bytes[:16])
		return ip
	default:
		return nil
	}
}

// IsNone reports whether a carries no address.
func (a Address) IsNone() bool {
	return a.family == FamilyNone
}

// Equal compares tag, port, and the active address bytes.
func (a Address) Equal(o Address) bool {
	return a.family == o.family && a.port == o.port && a.bytes == o.bytes
}

// Hash combines the port and address bytes into a process-stable
// (not cryptographic) key suitable for map lookups.
func (a Address) Hash() uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	const prime = 1099511628211

	h ^= uint64(a.family)
	h *= prime

	for _, b := range a.bytes {
		h ^= uint64(b)
		h *= prime
	}

	h ^= uint64(a.port)
	h *= prime

	return h
}

// String renders "a.b.c.d:port" for IPv4 and "[a:b:c:..]:port" for
// IPv6, omitting the port when it is zero.
func (a Address) String() string {
	ip := a.IP()
	if ip == nil {
		return "<none>"
	}

	if a.port == 0 {
		return ip.String()
	}

	return net.JoinHostPort(ip.String(), strconv.FormatUint(uint64(a.port), 10))
}
