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

package message

// Flag is the per-frame flag bitset.
type Flag uint8

const (
	// More marks a frame that is followed by at least one more frame of
	// the same logical message.
	More Flag = 1 << iota

	// Command marks a protocol command frame that never reaches the
	// application.
	Command

	// Credential marks a frame carrying authentication material produced
	// by a security mechanism.
	Credential

	// Routing marks a frame whose routing id is meaningful.
	Routing
)

// Flags returns the frame's flag bitset.
func (o *Message) Flags() Flag {
	return o.flags
}

// SetFlags sets the given bits on the frame.
func (o *Message) SetFlags(f Flag) {
	o.flags |= f
}

// ResetFlags clears the given bits on the frame.
func (o *Message) ResetFlags(f Flag) {
	o.flags &^= f
}

// HasMore reports whether another frame of the same logical message follows.
func (o *Message) HasMore() bool {
	return o.flags&More != 0
}

// IsCommand reports whether the frame is a protocol command.
func (o *Message) IsCommand() bool {
	return o.flags&Command != 0
}

// IsCredential reports whether the frame carries credential material.
func (o *Message) IsCredential() bool {
	return o.flags&Credential != 0
}
