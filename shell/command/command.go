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

// Package command is one named, described, runnable entry of a Shell.
package command

import "io"

// Func is the body of a Command: it writes to out/err and receives the
// arguments following the command name on the input line.
type Func func(out, err io.Writer, args []string)

// CommandInfo is the read-only name/description half of a Command,
// returned by Info for entries that carry no executable body (topic
// headers, grouping entries in a Walk listing).
type CommandInfo interface {
	Name() string
	Describe() string
}

// Command is one runnable Shell entry.
type Command interface {
	CommandInfo
	// Run invokes the command's function. A Command built with a nil
	// function is a safe no-op.
	Run(out, err io.Writer, args []string)
}

type info struct {
	name string
	desc string
}

func (i *info) Name() string     { return i.name }
func (i *info) Describe() string { return i.desc }

type command struct {
	info
	fn Func
}

// New builds a Command named name, described by desc, running fn. A
// nil fn makes Run a no-op.
func New(name, desc string, fn Func) Command {
	return &command{info: info{name: name, desc: desc}, fn: fn}
}

func (c *command) Run(out, err io.Writer, args []string) {
	if c.fn == nil {
		return
	}
	c.fn(out, err, args)
}

// Info builds a name/description pair with no executable body.
func Info(name, desc string) CommandInfo {
	return &info{name: name, desc: desc}
}
