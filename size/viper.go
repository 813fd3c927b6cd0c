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

import "reflect"

// ViperDecoderHook returns a mapstructure DecodeHookFunc that converts
// strings, byte slices, and any integer/float kind into a Size when the
// destination field's type is Size. Other source/destination pairs pass
// their data through unchanged, per mapstructure's hook contract.
//
// Usage:
//
//	v := viper.New()
//	opts := viper.DecoderConfigOption(func(c *mapstructure.DecoderConfig) {
//	    c.DecodeHook = size.ViperDecoderHook()
//	})
//	v.Unmarshal(&cfg, opts)
func ViperDecoderHook() func(reflect.Type, reflect.Type, interface{}) (interface{}, error) {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if data == nil {
			return data, nil
		}
		if to != reflect.TypeOf(Size(0)) {
			return data, nil
		}

		v := reflect.ValueOf(data)

		switch v.Kind() {
		case reflect.String:
			return Parse(v.String())

		case reflect.Slice:
			if b, ok := data.([]byte); ok {
				return ParseByte(b)
			}
			return data, nil

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return ParseInt64(v.Int()), nil

		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return ParseUint64(v.Uint()), nil

		case reflect.Float32, reflect.Float64:
			return ParseFloat64(v.Float()), nil

		default:
			return data, nil
		}
	}
}
