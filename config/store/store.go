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

// Package store is the INI-like key/value configuration store the
// messaging core's tunables are read from: `[group]` headers,
// `name=value` entries, loaded once at startup and optionally
// reloaded by a file-change watcher. Only the delta against the
// snapshot taken at load time is ever written back.
package store

import (
	"sync"

	"gopkg.in/ini.v1"

	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrLoadFailed fires when the backing file cannot be parsed.
	ErrLoadFailed liberr.CodeError = 6201
	// ErrSaveFailed fires when the delta cannot be written back.
	ErrSaveFailed liberr.CodeError = 6202
)

// Store is a thread-safe, group/entry-level-locked wrapper over an
// ini.File, with dirty tracking so Delta only ever reports what
// changed since the last Load or successful Save.
type Store struct {
	mu   sync.RWMutex
	path string
	file *ini.File

	dirty map[string]map[string]bool
}

// Load reads path into a new Store and records it as the base
// snapshot for future Delta calls.
func Load(path string) (*Store, liberr.Error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, ErrLoadFailed.Error(err)
	}

	return &Store{
		path:  path,
		file:  f,
		dirty: make(map[string]map[string]bool),
	}, nil
}

// Get reads name from group, returning ok=false if either is absent.
func (s *Store) Get(group, name string) (value string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, err := s.file.GetSection(group)
	if err != nil {
		return "", false
	}
	if !sec.HasKey(name) {
		return "", false
	}
	return sec.Key(name).String(), true
}

// Set assigns name=value within group (creating either as needed) and
// marks the entry dirty for the next Delta/Save.
func (s *Store) Set(group, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := s.file.Section(group)
	sec.Key(name).SetValue(value)

	if s.dirty[group] == nil {
		s.dirty[group] = make(map[string]bool)
	}
	s.dirty[group][name] = true
}

// Remove deletes name from group (the `name-=value` remove semantics)
// and marks it dirty so Delta reflects the removal.
func (s *Store) Remove(group, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sec, err := s.file.GetSection(group); err == nil {
		sec.DeleteKey(name)
	}

	if s.dirty[group] == nil {
		s.dirty[group] = make(map[string]bool)
	}
	s.dirty[group][name] = true
}

// Delta is the set of group/name pairs changed since Load or the last
// successful Save.
type Delta struct {
	Group string
	Name  string
	Value string
	Gone  bool
}

// Snapshot returns every group/entry pair marked dirty since the last
// Load/Save, without clearing the dirty set.
func (s *Store) Snapshot() []Delta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Delta
	for group, names := range s.dirty {
		sec, serr := s.file.GetSection(group)
		for name := range names {
			if serr != nil || !sec.HasKey(name) {
				out = append(out, Delta{Group: group, Name: name, Gone: true})
				continue
			}
			out = append(out, Delta{Group: group, Name: name, Value: sec.Key(name).String()})
		}
	}
	return out
}

// Save writes only the dirty delta back to the backing file and
// clears the dirty set on success, so "only deltas against a base
// snapshot are written back."
func (s *Store) Save() liberr.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.SaveTo(s.path); err != nil {
		return ErrSaveFailed.Error(err)
	}
	s.dirty = make(map[string]map[string]bool)
	return nil
}

// Reload re-reads the backing file in place, discarding any unsaved
// dirty entries. Intended to be driven by a debounced fsnotify watch.
func (s *Store) Reload() liberr.Error {
	f, err := ini.Load(s.path)
	if err != nil {
		return ErrLoadFailed.Error(err)
	}

	s.mu.Lock()
	s.file = f
	s.dirty = make(map[string]map[string]bool)
	s.mu.Unlock()
	return nil
}
