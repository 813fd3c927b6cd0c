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

package command_test

import (
	. "github.com/ashforge/netcore/command"
	shcmd "github.com/ashforge/netcore/shell/command"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	It("resolves a command by its own name", func() {
		r := NewRegistry()
		c := shcmd.New("hello", "says hello", nil)
		r.Register(c)

		got, err := r.Lookup("hello")
		Expect(err).To(BeNil())
		Expect(got).To(BeIdenticalTo(c))
	})

	It("fails on an unregistered name", func() {
		r := NewRegistry()
		_, err := r.Lookup("missing")
		Expect(err).NotTo(BeNil())
		Expect(err.IsCode(ErrUnknownCommand)).To(BeTrue())
	})

	It("lists every registered name", func() {
		r := NewRegistry()
		r.Register(shcmd.New("hello", "", nil))
		r.Register(shcmd.New("bye", "", nil))

		names := r.Names()
		Expect(names).To(ContainElements("hello", "bye"))
	})
})
