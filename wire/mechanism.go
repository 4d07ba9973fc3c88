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

// MechanismStatus is the handshake progress reported by a mechanism.
type MechanismStatus uint8

const (
	StatusHandshaking MechanismStatus = iota
	StatusReady
	StatusError
)

// Mechanism drives the security handshake between the greeting and the first
// application frame. The engine pulls outgoing command frames with
// NextHandshakeCommand and pushes every received command frame into
// ProcessHandshakeCommand until Status leaves StatusHandshaking.
type Mechanism interface {
	// Name returns the mechanism name announced in the greeting.
	Name() string

	// NextHandshakeCommand returns the next command frame to transmit.
	// When the mechanism has nothing to say it returns false.
	NextHandshakeCommand() (libmsg.Message, bool)

	// ProcessHandshakeCommand consumes one received command frame.
	ProcessHandshakeCommand(msg libmsg.Message) error

	// Status reports the handshake progress.
	Status() MechanismStatus

	// PeerMetadata returns the peer properties negotiated by the
	// handshake, available once Status is StatusReady.
	PeerMetadata() *libmsg.Metadata
}

// Well-known metadata property names.
const (
	PropSocketType = "Socket-Type"
	PropIdentity   = "Identity"
)

// putMetadata appends one name-value property: a one-byte name length, the
// name, a four-byte big-endian value length and the value.
func putMetadata(out []byte, name, value string) []byte {
	out = append(out, byte(len(name)))
	out = append(out, name...)

	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(value)))
	out = append(out, l[:]...)
	out = append(out, value...)

	return out
}

// parseMetadata decodes a property list.
func parseMetadata(data []byte) (map[string]string, error) {
	props := make(map[string]string)

	for len(data) > 0 {
		nameLen := int(data[0])
		data = data[1:]
		if len(data) < nameLen+4 {
			return nil, ErrorProtocol.Error(nil)
		}

		name := string(data[:nameLen])
		data = data[nameLen:]

		valueLen := int(binary.BigEndian.Uint32(data[:4]))
		data = data[4:]
		if len(data) < valueLen {
			return nil, ErrorProtocol.Error(nil)
		}

		props[name] = string(data[:valueLen])
		data = data[valueLen:]
	}

	return props, nil
}

// isCommandNamed reports whether the command frame body starts with the
// given name in its length-prefixed form.
func isCommandNamed(body []byte, name string) bool {
	if len(body) < 1+len(name) {
		return false
	}
	if int(body[0]) != len(name) {
		return false
	}
	return string(body[1:1+len(name)]) == name
}

// commandBody returns the payload following the length-prefixed command
// name.
func commandBody(body []byte, name string) []byte {
	return body[1+len(name):]
}

// buildCommand serialises a command frame from its name and payload.
func buildCommand(name string, payload []byte) libmsg.Message {
	body := make([]byte, 0, 1+len(name)+len(payload))
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, payload...)

	m := libmsg.NewData(body)
	m.SetFlags(libmsg.Command)
	return m
}
