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

// Package replication implements the shared-object serialization layer
// that sits above both transports: a thread-safe object repository, a
// per-peer knowledge base of interned strings/paths/object-ids, and the
// Replicator that walks typed messages against both.
package replication

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

const (
	// NoneObjectID is permanently mapped to "none".
	NoneObjectID uint32 = 0
	// PeerOwnerObjectID is reserved to identify the peer's own root object.
	PeerOwnerObjectID uint32 = 1

	firstAllocatableID uint32 = 2
)

// ObjectRepository is a thread-safe bijective id<->object registry
// backed by a bit-pool free-list allocator, matching the allocation
// contract described for MessageObjectRepository: the smallest free id
// is reused before the high-watermark is advanced.
type ObjectRepository struct {
	mu sync.Mutex

	idToObj map[uint32]interface{}
	objToID map[interface{}]uint32

	free         *bitset.BitSet
	highWatermark uint32
}

// NewObjectRepository returns an empty repository with ids 0 and 1
// reserved per the wire contract.
func NewObjectRepository() *ObjectRepository {
	return &ObjectRepository{
		idToObj:       make(map[uint32]interface{}),
		objToID:       make(map[interface{}]uint32),
		free:          bitset.New(256),
		highWatermark: firstAllocatableID,
	}
}

// AllocateObjectID consumes the smallest free id, or advances the
// high-watermark if none is free.
func (r *ObjectRepository) AllocateObjectID() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocateLocked()
}

func (r *ObjectRepository) allocateLocked() uint32 {
	if idx, ok := r.free.NextSet(0); ok {
		r.free.Clear(idx)
		return uint32(idx) + firstAllocatableID
	}

	id := r.highWatermark
	r.highWatermark++
	return id
}

// AttachNewObject allocates a fresh id and binds obj to it atomically,
// returning the assigned id.
func (r *ObjectRepository) AttachNewObject(obj interface{}) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.allocateLocked()
	r.idToObj[id] = obj
	r.objToID[obj] = id
	return id
}

// Attach binds obj to an explicitly allocated id (e.g. one returned
// earlier by AllocateObjectID).
func (r *ObjectRepository) Attach(id uint32, obj interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.idToObj[id] = obj
	r.objToID[obj] = id
}

// Detach removes the id<->object mapping and, if freeID is true,
// returns the id to the free-list for reuse.
func (r *ObjectRepository) Detach(id uint32, freeID bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if obj, ok := r.idToObj[id]; ok {
		delete(r.idToObj, id)
		delete(r.objToID, obj)
	}

	if freeID && id >= firstAllocatableID {
		r.free.Set(uint(id - firstAllocatableID))
	}
}

// ResolveObject returns the object bound to id, or nil if id is
// unbound, 0 ("none"), or was never allocated.
func (r *ObjectRepository) ResolveObject(id uint32) interface{} {
	if id == NoneObjectID {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idToObj[id]
}

// FindObjectID returns the id bound to obj, or NoneObjectID if the
// reverse map has no entry, or its entry no longer resolves back to
// the same object (defensive check against a stale reverse mapping).
func (r *ObjectRepository) FindObjectID(obj interface{}) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.objToID[obj]
	if !ok {
		return NoneObjectID
	}

	if r.idToObj[id] != obj {
		return NoneObjectID
	}

	return id
}
