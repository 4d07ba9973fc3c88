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

package wire

import (
	"encoding/binary"

	libmsg "github/sabouaram/gomq/message"
)

// Frame flag bits of the v2 framing protocol.
const (
	FlagMore    byte = 0x01
	FlagLong    byte = 0x02
	FlagCommand byte = 0x04
)

// Encoder serialises frames into caller buffers: one flag byte, a one-byte
// length for bodies up to 255 bytes or an eight-byte big-endian length
// otherwise, then the body. The encoder is pull-based: the engine loads one
// frame and drains it into however many writes the descriptor accepts.
type Encoder struct {
	msg    libmsg.Message
	loaded bool

	header    [9]byte
	headerLen int
	headerPos int
	dataPos   int
}

// NewEncoder returns an idle Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// HasData reports whether a loaded frame still has bytes to emit.
func (o *Encoder) HasData() bool {
	return o.loaded
}

// LoadMsg stages one frame for emission. The previous frame must be fully
// drained.
func (o *Encoder) LoadMsg(m libmsg.Message) {
	flags := byte(0)
	if m.HasMore() {
		flags |= FlagMore
	}
	if m.IsCommand() {
		flags |= FlagCommand
	}

	size := m.Size()
	o.header[0] = flags

	if size > 255 {
		o.header[0] |= FlagLong
		binary.BigEndian.PutUint64(o.header[1:9], uint64(size))
		o.headerLen = 9
	} else {
		o.header[1] = byte(size)
		o.headerLen = 2
	}

	o.msg = m
	o.loaded = true
	o.headerPos = 0
	o.dataPos = 0
}

// Encode fills out with pending bytes of the loaded frame and returns how
// many were written. When the frame is fully drained it is closed and the
// encoder goes idle.
func (o *Encoder) Encode(out []byte) int {
	if !o.loaded || len(out) == 0 {
		return 0
	}

	n := 0

	if o.headerPos < o.headerLen {
		c := copy(out, o.header[o.headerPos:o.headerLen])
		o.headerPos += c
		n += c
	}

	if o.headerPos == o.headerLen {
		data := o.msg.Data()
		c := copy(out[n:], data[o.dataPos:])
		o.dataPos += c
		n += c

		if o.dataPos == len(data) {
			o.msg.Close()
			o.loaded = false
		}
	}

	return n
}
