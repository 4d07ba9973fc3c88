/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package message defines the frame type carried across pipes and wires.
//
// A logical message is a maximal run of frames where every frame except the
// last carries the More flag; the flag pattern must be preserved bit for bit
// across every hop. Frames are value types so that they can travel through
// the lock-free pipes by copy; bodies live out of line and are shared between
// copies under an atomic reference count.
package message

import (
	"sync/atomic"
)

type msgType uint8

const (
	typeData msgType = iota
	typeDelimiter
)

// body is the shared, reference-counted payload of a frame. Every Copy of a
// frame bumps the count; Close drops it and releases the payload once the
// last copy is gone.
type body struct {
	data []byte
	refs atomic.Int32
}

// Message is a single frame. The zero value is a valid empty frame.
type Message struct {
	b         *body
	meta      *Metadata
	flags     Flag
	typ       msgType
	routingID uint32
}

// NewSize returns a data frame with an uninitialised payload of the given
// size.
func NewSize(size int) Message {
	if size < 0 {
		size = 0
	}
	m := Message{}
	m.b = &body{data: make([]byte, size)}
	m.b.refs.Store(1)
	return m
}

// NewData returns a data frame wrapping the given payload. The frame takes
// ownership of the slice.
func NewData(data []byte) Message {
	m := Message{}
	m.b = &body{data: data}
	m.b.refs.Store(1)
	return m
}

// NewString returns a data frame holding a copy of the given string.
func NewString(s string) Message {
	return NewData([]byte(s))
}

// NewDelimiter returns the synthetic frame exchanged by the pipe termination
// protocol. It never reaches the application.
func NewDelimiter() Message {
	return Message{typ: typeDelimiter}
}

// Size returns the payload size in bytes.
func (o *Message) Size() int {
	if o.b == nil {
		return 0
	}
	return len(o.b.data)
}

// Data returns the payload. The slice is shared between all copies of the
// frame and must not be grown.
func (o *Message) Data() []byte {
	if o.b == nil {
		return nil
	}
	return o.b.data
}

// IsDelimiter reports whether the frame is a pipe termination delimiter.
func (o *Message) IsDelimiter() bool {
	return o.typ == typeDelimiter
}

// IsVoid reports whether the frame carries no payload and no flags.
func (o *Message) IsVoid() bool {
	return o.typ == typeData && o.b == nil && o.flags == 0
}

// RoutingID returns the routing id attached to the frame, or zero.
func (o *Message) RoutingID() uint32 {
	return o.routingID
}

// SetRoutingID attaches a routing id to the frame.
func (o *Message) SetRoutingID(id uint32) {
	o.routingID = id
}

// Metadata returns the peer properties attached to the frame, or nil.
func (o *Message) Metadata() *Metadata {
	return o.meta
}

// SetMetadata attaches peer properties to the frame, bumping their reference
// count.
func (o *Message) SetMetadata(m *Metadata) {
	if m != nil {
		m.addRef()
	}
	if o.meta != nil {
		o.meta.drop()
	}
	o.meta = m
}

// Copy returns a frame sharing this frame's payload and metadata.
func (o *Message) Copy() Message {
	if o.b != nil {
		o.b.refs.Add(1)
	}
	if o.meta != nil {
		o.meta.addRef()
	}
	c := *o
	return c
}

// Move transfers the frame's content to a new frame, leaving this one empty.
func (o *Message) Move() Message {
	m := *o
	*o = Message{}
	return m
}

// Close releases the frame's hold on its payload and metadata and resets it
// to the empty frame.
func (o *Message) Close() {
	if o.b != nil {
		if o.b.refs.Add(-1) == 0 {
			o.b.data = nil
		}
	}
	if o.meta != nil {
		o.meta.drop()
	}
	*o = Message{}
}
