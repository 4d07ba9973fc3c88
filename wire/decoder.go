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

type decoderState uint8

const (
	stateFlags decoderState = iota
	stateSizeShort
	stateSizeLong
	stateBody
)

// Decoder is the push-based mirror of Encoder: the engine feeds it whatever
// the descriptor produced and collects complete frames. A size limit rejects
// frames larger than the socket's maximum message size.
type Decoder struct {
	state   decoderState
	flags   byte
	sizeBuf [8]byte
	sizeGot int
	size    uint64

	maxMsgSize int64

	msg     libmsg.Message
	bodyGot int
}

// NewDecoder returns a Decoder enforcing the given frame size limit; a
// negative limit disables the check.
func NewDecoder(maxMsgSize int64) *Decoder {
	return &Decoder{maxMsgSize: maxMsgSize}
}

// Decode consumes bytes from data and returns how many were used, together
// with a complete frame when one ended inside the consumed run. The caller
// keeps feeding the remainder until the buffer is exhausted.
func (o *Decoder) Decode(data []byte) (int, *libmsg.Message, error) {
	n := 0

	for n < len(data) {
		switch o.state {
		case stateFlags:
			o.flags = data[n]
			n++

			if o.flags&^(FlagMore|FlagLong|FlagCommand) != 0 {
				return n, nil, ErrorProtocol.Error(nil)
			}

			if o.flags&FlagLong != 0 {
				o.sizeGot = 0
				o.state = stateSizeLong
			} else {
				o.state = stateSizeShort
			}

		case stateSizeShort:
			o.size = uint64(data[n])
			n++

			if msg, err := o.beginBody(); msg != nil || err != nil {
				return n, msg, err
			}

		case stateSizeLong:
			c := copy(o.sizeBuf[o.sizeGot:], data[n:])
			o.sizeGot += c
			n += c

			if o.sizeGot == 8 {
				o.size = binary.BigEndian.Uint64(o.sizeBuf[:])
				if msg, err := o.beginBody(); msg != nil || err != nil {
					return n, msg, err
				}
			}

		case stateBody:
			body := o.msg.Data()
			c := copy(body[o.bodyGot:], data[n:])
			o.bodyGot += c
			n += c

			if uint64(o.bodyGot) == o.size {
				m := o.msg
				o.msg = libmsg.Message{}
				o.state = stateFlags
				return n, &m, nil
			}
		}
	}

	return n, nil, nil
}

func (o *Decoder) beginBody() (*libmsg.Message, error) {
	if o.maxMsgSize >= 0 && o.size > uint64(o.maxMsgSize) {
		return nil, ErrorFrameTooLarge.Error(nil)
	}

	o.msg = libmsg.NewSize(int(o.size))
	if o.flags&FlagMore != 0 {
		o.msg.SetFlags(libmsg.More)
	}
	if o.flags&FlagCommand != 0 {
		o.msg.SetFlags(libmsg.Command)
	}

	if o.size == 0 {
		m := o.msg
		o.msg = libmsg.Message{}
		o.state = stateFlags
		return &m, nil
	}

	o.bodyGot = 0
	o.state = stateBody
	return nil, nil
}
