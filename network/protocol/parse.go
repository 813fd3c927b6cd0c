/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package protocol

import "strings"

var byName = map[string]NetworkProtocol{
	"unix":     NetworkUnix,
	"tcp":      NetworkTCP,
	"tcp4":     NetworkTCP4,
	"tcp6":     NetworkTCP6,
	"udp":      NetworkUDP,
	"udp4":     NetworkUDP4,
	"udp6":     NetworkUDP6,
	"ip":       NetworkIP,
	"ip4":      NetworkIP4,
	"ip6":      NetworkIP6,
	"unixgram": NetworkUnixGram,
}

var byValue = map[int64]NetworkProtocol{
	int64(NetworkUnix):     NetworkUnix,
	int64(NetworkTCP):      NetworkTCP,
	int64(NetworkTCP4):     NetworkTCP4,
	int64(NetworkTCP6):     NetworkTCP6,
	int64(NetworkUDP):      NetworkUDP,
	int64(NetworkUDP4):     NetworkUDP4,
	int64(NetworkUDP6):     NetworkUDP6,
	int64(NetworkIP):       NetworkIP,
	int64(NetworkIP4):      NetworkIP4,
	int64(NetworkIP6):      NetworkIP6,
	int64(NetworkUnixGram): NetworkUnixGram,
}

// Parse recognizes a protocol name, tolerating surrounding whitespace,
// one level of quoting (double quote or backtick) and mixed case.
func Parse(s string) NetworkProtocol {
	s = strings.TrimSpace(s)

	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
			s = s[1 : len(s)-1]
		}
	}

	if p, ok := byName[strings.ToLower(s)]; ok {
		return p
	}

	return NetworkEmpty
}

// ParseBytes behaves like Parse on the string form of b.
func ParseBytes(b []byte) NetworkProtocol {
	return Parse(string(b))
}

// ParseInt64 maps a raw enum value back to a NetworkProtocol, returning
// NetworkEmpty for any value outside the known range.
func ParseInt64(i int64) NetworkProtocol {
	if p, ok := byValue[i]; ok {
		return p
	}
	return NetworkEmpty
}
