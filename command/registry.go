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

package command

import (
	"reflect"
	"sync"

	shcmd "github.com/ashforge/netcore/shell/command"

	liberr "github.com/ashforge/netcore/errors"
)

// ErrUnknownCommand fires when Registry.Lookup finds neither the
// requested name nor a class-name fallback.
const ErrUnknownCommand liberr.CodeError = 6003

// Registry finds a Command by name, with a fallback to the Go type
// name of the value that produced it, mirroring the metadata-lookup-
// with-class-name-fallback the command host uses to resolve a command
// class. Safe for concurrent Register/Lookup.
type Registry struct {
	mu  sync.RWMutex
	byName map[string]shcmd.Command
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]shcmd.Command)}
}

// Register adds cmd under its own Name() and, as a fallback key, the
// Go type name of cmd itself (stripped of its pointer/package
// qualifiers), so a caller that only knows the implementing type can
// still resolve it.
func (r *Registry) Register(cmd shcmd.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[cmd.Name()] = cmd
	if cn := className(cmd); cn != "" {
		if _, exists := r.byName[cn]; !exists {
			r.byName[cn] = cmd
		}
	}
}

// Lookup resolves name to a Command, returning ErrUnknownCommand if
// neither the name nor a class-name fallback matches.
func (r *Registry) Lookup(name string) (shcmd.Command, liberr.Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, ErrUnknownCommand.Errorf("no command registered as %q", name)
}

// Names returns every distinct Command currently registered, deduped
// by identity (a Command registered under both its name and its class
// name fallback is returned once).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	return out
}

func className(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
