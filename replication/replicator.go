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
	"github.com/fxamacker/cbor/v2"

	liberr "github.com/ashforge/netcore/errors"
)

// FieldKind tags how a Message field is carried across the wire.
type FieldKind uint8

const (
	// FieldPlain fields are cbor-encoded inline, no dictionary involved.
	FieldPlain FieldKind = iota
	// FieldString fields are interned through the knowledge base.
	FieldString
	// FieldObject fields are resolved through the object repository.
	FieldObject
)

// Field is one named value of a Message.
type Field struct {
	Name  string
	Kind  FieldKind
	Plain interface{} // valid when Kind == FieldPlain
	Str   string      // valid when Kind == FieldString
	Obj   interface{} // valid when Kind == FieldObject, must be comparable
}

// Message is the application-level typed value the Replicator walks.
type Message struct {
	Type   uint32
	Fields []Field
}

// frameKind distinguishes the framelets multiplexed onto one
// connection: dictionary updates always precede the call frame that
// first references the ids they introduce.
type frameKind uint8

const (
	frameStringDict frameKind = iota
	framePathDict
	frameCall
)

type wireStringDict struct {
	ID   uint32
	Text string
}

type wirePathDict struct {
	ID       uint32
	TextID   uint32
	ParentID uint32
}

type wireField struct {
	Name  string
	Kind  FieldKind
	Plain []byte // cbor of Plain, only when Kind == FieldPlain
	ID    uint32 // resolved string/path/object id otherwise
}

type wireCall struct {
	Type   uint32
	Fields []wireField
}

const (
	// ErrUnresolvedObject fires when an outgoing FieldObject value has
	// no binding in the shared object repository and cannot be
	// attached (repository is nil).
	ErrUnresolvedObject liberr.CodeError = 5002
	// ErrUnknownFrameKind fires when a decoded framelet carries a
	// frameKind outside {frameStringDict, framePathDict, frameCall}.
	ErrUnknownFrameKind liberr.CodeError = 5003
)

// DataSink is where the Replicator writes fully-framed outgoing bytes.
// The tcp package's Connection implements this by wrapping the bytes
// in a transport header and writing them to the socket.
type DataSink interface {
	SendMessage(payload []byte) liberr.Error
}

// Dispatcher receives fully decoded incoming Messages. The TCP
// server's per-connection dispatcher pushes them onto that
// connection's inbound queue.
type Dispatcher interface {
	DispatchMessageForExecution(msg Message)
}

// Replicator owns one connection's two knowledge bases and serializes
// against a shared object repository.
type Replicator struct {
	repo *ObjectRepository
	kb   *KnowledgeBase
	sink DataSink
	disp Dispatcher
}

// New builds a Replicator. repo may be shared across every connection
// on an endpoint; kb is per-connection.
func New(repo *ObjectRepository, sink DataSink, disp Dispatcher) *Replicator {
	r := &Replicator{repo: repo, sink: sink, disp: disp}
	r.kb = NewKnowledgeBase(r.emitStringDict, r.emitPathDict)
	return r
}

func (r *Replicator) emitStringDict(id uint32, text string) {
	if r.sink == nil {
		return
	}
	payload, _ := cbor.Marshal(wireStringDict{ID: id, Text: text})
	_ = r.sink.SendMessage(append([]byte{byte(frameStringDict)}, payload...))
}

func (r *Replicator) emitPathDict(id uint32, textID uint32, parentID uint32) {
	if r.sink == nil {
		return
	}
	payload, _ := cbor.Marshal(wirePathDict{ID: id, TextID: textID, ParentID: parentID})
	_ = r.sink.SendMessage(append([]byte{byte(framePathDict)}, payload...))
}

// Send encodes msg against the outgoing knowledge base and shared
// object repository, emitting any new dictionary framelets first, and
// writes the call frame to the data sink.
func (r *Replicator) Send(msg Message) liberr.Error {
	wire := wireCall{Type: msg.Type}

	for _, f := range msg.Fields {
		switch f.Kind {
		case FieldString:
			wire.Fields = append(wire.Fields, wireField{Name: f.Name, Kind: FieldString, ID: r.kb.InternString(f.Str)})

		case FieldObject:
			id := uint32(NoneObjectID)
			if f.Obj != nil && r.repo != nil {
				id = r.repo.FindObjectID(f.Obj)
				if id == NoneObjectID {
					id = r.repo.AttachNewObject(f.Obj)
				}
			}
			wire.Fields = append(wire.Fields, wireField{Name: f.Name, Kind: FieldObject, ID: id})

		default:
			b, err := cbor.Marshal(f.Plain)
			if err != nil {
				return liberr.UnknownError.Error(err)
			}
			wire.Fields = append(wire.Fields, wireField{Name: f.Name, Kind: FieldPlain, Plain: b})
		}
	}

	payload, err := cbor.Marshal(wire)
	if err != nil {
		return liberr.UnknownError.Error(err)
	}

	return r.sink.SendMessage(append([]byte{byte(frameCall)}, payload...))
}

// Receive decodes one framelet, as delivered by the reassembler after
// header-stripping: dictionary framelets populate the incoming
// knowledge base, call framelets are fully resolved and handed to the
// Dispatcher.
func (r *Replicator) Receive(payload []byte) liberr.Error {
	if len(payload) == 0 {
		return ErrUnknownFrameKind.Error(nil)
	}

	kind := frameKind(payload[0])
	body := payload[1:]

	switch kind {
	case frameStringDict:
		var d wireStringDict
		if err := cbor.Unmarshal(body, &d); err != nil {
			return liberr.UnknownError.Error(err)
		}
		r.kb.ReceiveStringDictionary(d.ID, d.Text)
		return nil

	case framePathDict:
		var d wirePathDict
		if err := cbor.Unmarshal(body, &d); err != nil {
			return liberr.UnknownError.Error(err)
		}
		r.kb.ReceivePathDictionary(d.ID, d.TextID, d.ParentID)
		return nil

	case frameCall:
		var w wireCall
		if err := cbor.Unmarshal(body, &w); err != nil {
			return liberr.UnknownError.Error(err)
		}

		msg := Message{Type: w.Type}
		for _, wf := range w.Fields {
			f := Field{Name: wf.Name, Kind: wf.Kind}

			switch wf.Kind {
			case FieldString:
				s, ok := r.kb.ResolveString(wf.ID)
				if !ok {
					return ErrUnknownDictionaryID.Errorf("string id %d referenced before its dictionary frame", wf.ID)
				}
				f.Str = s

			case FieldObject:
				f.Obj = r.repo.ResolveObject(wf.ID)

			default:
				var v interface{}
				if err := cbor.Unmarshal(wf.Plain, &v); err != nil {
					return liberr.UnknownError.Error(err)
				}
				f.Plain = v
			}

			msg.Fields = append(msg.Fields, f)
		}

		if r.disp != nil {
			r.disp.DispatchMessageForExecution(msg)
		}
		return nil

	default:
		return ErrUnknownFrameKind.Errorf("unrecognized framelet kind %d", kind)
	}
}
