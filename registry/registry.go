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

// Package registry is the process-wide singleton registry: every
// global the engine needs exactly one of (the object repository, the
// knowledge base, the stats aggregator, a future config store) Add's
// itself here instead of relying on package-level var-init order, so
// shutdown can run in dependency order and caches clear before a leak
// report is taken.
package registry

import (
	"slices"
	"sync"

	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrDuplicateKey fires when Add is called twice with the same key.
	ErrDuplicateKey liberr.CodeError = 6101
	// ErrUnknownDependency fires when an entry names a dependency key
	// that was never registered.
	ErrUnknownDependency liberr.CodeError = 6102
)

// Singleton is one process-wide global under registry management. Init
// is called once, in dependency order, the first time the registry is
// started; Deinit is called once, in reverse dependency order, on
// shutdown. Implementations are expected to guard their own internal
// state with a sync.Once or equivalent if they are also reachable
// directly by package-level accessors.
type Singleton interface {
	// Init constructs/acquires the singleton's resources.
	Init() error
	// Deinit releases them. Called at most once, and only after Init
	// has succeeded.
	Deinit() error
	// Dependencies lists the keys that must be Init'd before this one,
	// and Deinit'd after it.
	Dependencies() []string
}

type entry struct {
	key  string
	s    Singleton
	init bool
}

// Registry is the ordered collection of singletons. The zero value is
// not usable; call New.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	started bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add registers s under key. Add must be called before Start; adding
// after Start has no effect on already-run initialization order and
// returns ErrDuplicateKey if key collides with an existing entry.
func (r *Registry) Add(key string, s Singleton) liberr.Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; ok {
		return ErrDuplicateKey.Errorf("key %q", key)
	}

	r.entries[key] = &entry{key: key, s: s}
	r.order = append(r.order, key)
	return nil
}

// Get returns the singleton registered under key, or nil if none.
func (r *Registry) Get(key string) Singleton {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	return e.s
}

// Start initializes every registered singleton in dependency order.
// On the first failure, everything already initialized in this call
// is torn down in reverse order before the error is returned, so a
// failed Start never leaves a partially-live registry.
func (r *Registry) Start() liberr.Error {
	r.mu.Lock()
	order, err := r.orderedKeys()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	var started []string
	for _, key := range order {
		e := r.entries[key]
		if ierr := e.s.Init(); ierr != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = r.entries[started[i]].s.Deinit()
			}
			return liberr.UnknownError.Errorf("init %q: %v", key, ierr)
		}
		e.init = true
		started = append(started, key)
	}

	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

// Stop deinitializes every initialized singleton in reverse dependency
// order, collecting (not stopping on) individual failures so every
// entry gets a chance to release its resources before caches are
// expected to be empty for a leak report.
func (r *Registry) Stop() liberr.Error {
	r.mu.Lock()
	order, _ := r.orderedKeys()
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		e := r.entries[order[i]]
		if !e.init {
			continue
		}
		if err := e.s.Deinit(); err != nil {
			errs = append(errs, err)
		}
		e.init = false
	}

	r.mu.Lock()
	r.started = false
	r.mu.Unlock()

	return liberr.UnknownError.IfError(errs...)
}

// IsStarted reports whether Start has completed without a matching
// Stop since.
func (r *Registry) IsStarted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *Registry) orderedKeys() ([]string, liberr.Error) {
	deps := make(map[string][]string, len(r.entries))
	for key, e := range r.entries {
		for _, d := range e.s.Dependencies() {
			if _, ok := r.entries[d]; !ok {
				return nil, ErrUnknownDependency.Errorf("%q depends on unknown %q", key, d)
			}
		}
		deps[key] = e.s.Dependencies()
	}

	return orderDependencies(deps, r.order), nil
}

// orderDependencies topologically sorts keys so every dependency
// precedes its dependent, preserving registration order among
// otherwise-unordered entries.
func orderDependencies(deps map[string][]string, keys []string) []string {
	res := make([]string, 0, len(keys))

	var visit func(key string)
	visit = func(key string) {
		if slices.Contains(res, key) {
			return
		}
		for _, d := range deps[key] {
			visit(d)
		}
		res = append(res, key)
	}

	for _, key := range keys {
		visit(key)
	}
	return res
}
