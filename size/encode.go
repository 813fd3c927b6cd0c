/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package size

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

func (s *Size) unmarshall(b []byte) error {
	v, e := parseString(string(b))
	if e != nil {
		return e
	}
	*s = v
	return nil
}

// MarshalJSON returns the JSON encoding of s as its human-readable string.
func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a JSON string into s.
func (s *Size) UnmarshalJSON(b []byte) error {
	var str string
	if e := json.Unmarshal(b, &str); e != nil {
		return e
	}
	return s.unmarshall([]byte(str))
}

// MarshalYAML returns the YAML encoding of s as its human-readable string.
func (s Size) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a YAML scalar into s.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	return s.unmarshall([]byte(value.Value))
}

// MarshalTOML returns the TOML encoding of s, equivalent to MarshalJSON.
func (s Size) MarshalTOML() ([]byte, error) {
	return s.MarshalJSON()
}

// UnmarshalTOML parses a string or byte-slice TOML value into s.
func (s *Size) UnmarshalTOML(i interface{}) error {
	if b, k := i.([]byte); k {
		return s.unmarshall(b)
	}
	if str, k := i.(string); k {
		return s.unmarshall([]byte(str))
	}
	return fmt.Errorf("size: value not in valid format")
}

// MarshalText returns the text encoding of s as its human-readable string.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a text encoding of a size into s.
func (s *Size) UnmarshalText(b []byte) error {
	return s.unmarshall(b)
}

// MarshalCBOR returns the CBOR encoding of s.String().
func (s Size) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s.String())
}

// UnmarshalCBOR parses a CBOR-encoded string into s.
func (s *Size) UnmarshalCBOR(b []byte) error {
	var str string
	if e := cbor.Unmarshal(b, &str); e != nil {
		return e
	}
	return s.unmarshall([]byte(str))
}

// MarshalBinary returns the fixed 8-byte little-endian encoding of s.
func (s Size) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(s))
	return b, nil
}

// UnmarshalBinary parses the fixed 8-byte little-endian encoding into s.
func (s *Size) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("size: invalid binary length %d, expected 8", len(b))
	}
	*s = Size(binary.LittleEndian.Uint64(b))
	return nil
}
