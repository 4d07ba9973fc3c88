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
	libmsg "github/sabouaram/gomq/message"
)

// MechanismNull is the no-security mechanism: both peers exchange one READY
// command carrying their metadata and the handshake completes.
const MechanismNull = "NULL"

type nullMechanism struct {
	own       map[string]string
	peer      *libmsg.Metadata
	readySent bool
	readyRecv bool
	failed    bool
}

// NewNull returns the NULL mechanism announcing the given local properties.
func NewNull(props map[string]string) Mechanism {
	if props == nil {
		props = make(map[string]string)
	}
	return &nullMechanism{own: props}
}

func (o *nullMechanism) Name() string {
	return MechanismNull
}

func (o *nullMechanism) NextHandshakeCommand() (libmsg.Message, bool) {
	if o.readySent || o.failed {
		return libmsg.Message{}, false
	}

	var payload []byte
	for n, v := range o.own {
		payload = putMetadata(payload, n, v)
	}

	o.readySent = true
	return buildCommand("READY", payload), true
}

func (o *nullMechanism) ProcessHandshakeCommand(msg libmsg.Message) error {
	body := msg.Data()

	if isCommandNamed(body, "ERROR") {
		o.failed = true
		return ErrorMechanism.Error(nil)
	}

	if !isCommandNamed(body, "READY") || o.readyRecv {
		o.failed = true
		return ErrorProtocol.Error(nil)
	}

	props, err := parseMetadata(commandBody(body, "READY"))
	if err != nil {
		o.failed = true
		return err
	}

	o.peer = libmsg.NewMetadata(props)
	o.readyRecv = true
	return nil
}

func (o *nullMechanism) Status() MechanismStatus {
	if o.failed {
		return StatusError
	}
	if o.readySent && o.readyRecv {
		return StatusReady
	}
	return StatusHandshaking
}

func (o *nullMechanism) PeerMetadata() *libmsg.Metadata {
	return o.peer
}
