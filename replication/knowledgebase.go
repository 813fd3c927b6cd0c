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

package replication

import (
	"sync"

	liberr "github.com/ashforge/netcore/errors"
)

const (
	// ErrUnknownDictionaryID fires when a call frame references an id
	// never introduced by an earlier dictionary frame on the same
	// connection.
	ErrUnknownDictionaryID liberr.CodeError = 5001
)

// pathEntry links a path-part id to its text segment and parent path
// id, mirroring the original's linked path dictionary.
type pathEntry struct {
	textID   uint32
	parentID uint32
}

// dictionary is one direction (outgoing or incoming) of a peer's
// per-connection knowledge base.
type dictionary struct {
	mu sync.RWMutex

	stringByID map[uint32]string
	idByString map[string]uint32

	pathByID map[uint32]pathEntry

	nextID uint32
}

func newDictionary() *dictionary {
	return &dictionary{
		stringByID: make(map[uint32]string),
		idByString: make(map[string]uint32),
		pathByID:   make(map[uint32]pathEntry),
		nextID:     1,
	}
}

// ReportNewString is called when a sender-side dictionary mints a new
// id for a string, so the caller can emit a dictionary-update framelet
// before any frame referencing the id.
type ReportNewString func(id uint32, text string)

// ReportNewPath is the path-dictionary equivalent of ReportNewString.
type ReportNewPath func(id uint32, textID uint32, parentID uint32)

// KnowledgeBase is the per-peer, per-connection dictionary described
// in the data model: one outgoing side (interning and emitting
// dictionary-update callbacks) and one incoming side (resolving ids
// received from dictionary-update frames).
type KnowledgeBase struct {
	outStrings *dictionary
	inStrings  *dictionary
	outPaths   *dictionary
	inPaths    *dictionary

	onNewString ReportNewString
	onNewPath   ReportNewPath
}

// NewKnowledgeBase returns an empty knowledge base. onNewString and
// onNewPath may be nil if this side only ever receives.
func NewKnowledgeBase(onNewString ReportNewString, onNewPath ReportNewPath) *KnowledgeBase {
	return &KnowledgeBase{
		outStrings:  newDictionary(),
		inStrings:   newDictionary(),
		outPaths:    newDictionary(),
		inPaths:     newDictionary(),
		onNewString: onNewString,
		onNewPath:   onNewPath,
	}
}

// InternString resolves s to a stable id on the outgoing side,
// allocating and reporting a new one on first use.
func (k *KnowledgeBase) InternString(s string) uint32 {
	k.outStrings.mu.Lock()
	if id, ok := k.outStrings.idByString[s]; ok {
		k.outStrings.mu.Unlock()
		return id
	}

	id := k.outStrings.nextID
	k.outStrings.nextID++
	k.outStrings.idByString[s] = id
	k.outStrings.stringByID[id] = s
	k.outStrings.mu.Unlock()

	if k.onNewString != nil {
		k.onNewString(id, s)
	}
	return id
}

// ReceiveStringDictionary populates the incoming side from a
// dictionary-update frame.
func (k *KnowledgeBase) ReceiveStringDictionary(id uint32, text string) {
	k.inStrings.mu.Lock()
	defer k.inStrings.mu.Unlock()
	k.inStrings.stringByID[id] = text
	k.inStrings.idByString[text] = id
}

// ResolveString looks an incoming string id up. The second return
// value is false when the id was never introduced by a dictionary
// frame: per the correctness invariants this is a protocol violation
// the caller must treat as connection-fatal.
func (k *KnowledgeBase) ResolveString(id uint32) (string, bool) {
	k.inStrings.mu.RLock()
	defer k.inStrings.mu.RUnlock()
	s, ok := k.inStrings.stringByID[id]
	return s, ok
}

// InternPath resolves a composed path (textID, parentID) to a stable
// outgoing id, allocating and reporting a new one on first use.
func (k *KnowledgeBase) InternPath(textID uint32, parentID uint32) uint32 {
	key := pathEntry{textID: textID, parentID: parentID}

	k.outPaths.mu.Lock()
	for id, e := range k.outPaths.pathByID {
		if e == key {
			k.outPaths.mu.Unlock()
			return id
		}
	}

	id := k.outPaths.nextID
	k.outPaths.nextID++
	k.outPaths.pathByID[id] = key
	k.outPaths.mu.Unlock()

	if k.onNewPath != nil {
		k.onNewPath(id, textID, parentID)
	}
	return id
}

// ReceivePathDictionary populates the incoming path side from a
// dictionary-update frame.
func (k *KnowledgeBase) ReceivePathDictionary(id uint32, textID uint32, parentID uint32) {
	k.inPaths.mu.Lock()
	defer k.inPaths.mu.Unlock()
	k.inPaths.pathByID[id] = pathEntry{textID: textID, parentID: parentID}
}

// ResolvePath returns the (textID, parentID) an incoming path id was
// bound to, or false if it was never introduced.
func (k *KnowledgeBase) ResolvePath(id uint32) (textID uint32, parentID uint32, ok bool) {
	k.inPaths.mu.RLock()
	defer k.inPaths.mu.RUnlock()
	e, ok := k.inPaths.pathByID[id]
	return e.textID, e.parentID, ok
}
