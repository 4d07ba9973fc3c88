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

// Package wire implements the framing protocol spoken on every stream
// connection: the fixed greeting exchanged first, the v2 frame codec used
// once the handshake completes, and the pluggable security mechanisms driven
// between the two.
package wire

import (
	"bytes"
)

const (
	// GreetingSize is the fixed size of the version 3 greeting.
	GreetingSize = 64

	// SignatureSize is the prefix of the greeting sufficient to tell a
	// version 3 peer from a legacy one.
	SignatureSize = 10

	// MechanismNameSize is the padded size of the mechanism name field.
	MechanismNameSize = 20

	versionMajor = 3
	versionMinor = 0
)

var signature = [SignatureSize]byte{0xff, 0, 0, 0, 0, 0, 0, 0, 1, 0x7f}

// Greeting is the parsed form of a peer greeting.
type Greeting struct {
	VersionMajor byte
	VersionMinor byte
	Mechanism    string
	AsServer     bool
}

// BuildGreeting serialises the local greeting: signature, version, mechanism
// name null-padded to twenty bytes, as-server flag and zero filler.
func BuildGreeting(mechanism string, asServer bool) []byte {
	g := make([]byte, GreetingSize)
	copy(g, signature[:])
	g[SignatureSize] = versionMajor
	g[SignatureSize+1] = versionMinor
	copy(g[SignatureSize+2:SignatureSize+2+MechanismNameSize], mechanism)
	if asServer {
		g[SignatureSize+2+MechanismNameSize] = 1
	}
	return g
}

// CheckSignature validates the greeting prefix as soon as enough bytes have
// arrived. Legacy peers are refused: this core does not implement the
// downgrade path.
func CheckSignature(b []byte) error {
	n := len(b)
	if n > SignatureSize {
		n = SignatureSize
	}

	if b[0] != 0xff {
		return ErrorProtocol.Error(nil)
	}

	if n == SignatureSize && b[SignatureSize-1] != 0x7f {
		return ErrorProtocol.Error(nil)
	}

	return nil
}

// ParseGreeting decodes a full 64-byte greeting.
func ParseGreeting(b []byte) (Greeting, error) {
	if len(b) < GreetingSize {
		return Greeting{}, ErrorProtocol.Error(nil)
	}

	if err := CheckSignature(b[:SignatureSize]); err != nil {
		return Greeting{}, err
	}

	g := Greeting{
		VersionMajor: b[SignatureSize],
		VersionMinor: b[SignatureSize+1],
	}

	if g.VersionMajor != versionMajor {
		return Greeting{}, ErrorVersion.Error(nil)
	}

	name := b[SignatureSize+2 : SignatureSize+2+MechanismNameSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	g.Mechanism = string(name)
	g.AsServer = b[SignatureSize+2+MechanismNameSize] != 0

	return g, nil
}
