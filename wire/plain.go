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

// MechanismPlain is the clear-text username/password mechanism. The client
// sends HELLO, the server answers WELCOME, the client sends INITIATE with
// its metadata, the server closes with READY.
const MechanismPlain = "PLAIN"

type plainState uint8

const (
	plainWaitHello plainState = iota
	plainSendWelcome
	plainWaitInitiate
	plainSendReady
	plainSendHello
	plainWaitWelcome
	plainSendInitiate
	plainWaitReady
	plainReady
	plainError
)

type plainMechanism struct {
	server   bool
	username string
	password string
	own      map[string]string
	peer     *libmsg.Metadata
	state    plainState
}

// NewPlainClient returns the client side of the PLAIN mechanism.
func NewPlainClient(username, password string, props map[string]string) Mechanism {
	if props == nil {
		props = make(map[string]string)
	}
	return &plainMechanism{
		username: username,
		password: password,
		own:      props,
		state:    plainSendHello,
	}
}

// NewPlainServer returns the server side of the PLAIN mechanism checking
// peers against the given credentials.
func NewPlainServer(username, password string, props map[string]string) Mechanism {
	if props == nil {
		props = make(map[string]string)
	}
	return &plainMechanism{
		server:   true,
		username: username,
		password: password,
		own:      props,
		state:    plainWaitHello,
	}
}

func (o *plainMechanism) Name() string {
	return MechanismPlain
}

func (o *plainMechanism) NextHandshakeCommand() (libmsg.Message, bool) {
	switch o.state {
	case plainSendHello:
		payload := make([]byte, 0, 2+len(o.username)+len(o.password))
		payload = append(payload, byte(len(o.username)))
		payload = append(payload, o.username...)
		payload = append(payload, byte(len(o.password)))
		payload = append(payload, o.password...)
		o.state = plainWaitWelcome
		return buildCommand("HELLO", payload), true

	case plainSendWelcome:
		o.state = plainWaitInitiate
		return buildCommand("WELCOME", nil), true

	case plainSendInitiate:
		var payload []byte
		for n, v := range o.own {
			payload = putMetadata(payload, n, v)
		}
		o.state = plainWaitReady
		return buildCommand("INITIATE", payload), true

	case plainSendReady:
		var payload []byte
		for n, v := range o.own {
			payload = putMetadata(payload, n, v)
		}
		o.state = plainReady
		return buildCommand("READY", payload), true
	}

	return libmsg.Message{}, false
}

func (o *plainMechanism) ProcessHandshakeCommand(msg libmsg.Message) error {
	body := msg.Data()

	if isCommandNamed(body, "ERROR") {
		o.state = plainError
		return ErrorMechanism.Error(nil)
	}

	switch o.state {
	case plainWaitHello:
		if !isCommandNamed(body, "HELLO") {
			o.state = plainError
			return ErrorProtocol.Error(nil)
		}
		if !o.checkHello(commandBody(body, "HELLO")) {
			o.state = plainError
			return ErrorAuthentication.Error(nil)
		}
		o.state = plainSendWelcome
		return nil

	case plainWaitWelcome:
		if !isCommandNamed(body, "WELCOME") {
			o.state = plainError
			return ErrorProtocol.Error(nil)
		}
		o.state = plainSendInitiate
		return nil

	case plainWaitInitiate:
		if !isCommandNamed(body, "INITIATE") {
			o.state = plainError
			return ErrorProtocol.Error(nil)
		}
		props, err := parseMetadata(commandBody(body, "INITIATE"))
		if err != nil {
			o.state = plainError
			return err
		}
		o.peer = libmsg.NewMetadata(props)
		o.state = plainSendReady
		return nil

	case plainWaitReady:
		if !isCommandNamed(body, "READY") {
			o.state = plainError
			return ErrorProtocol.Error(nil)
		}
		props, err := parseMetadata(commandBody(body, "READY"))
		if err != nil {
			o.state = plainError
			return err
		}
		o.peer = libmsg.NewMetadata(props)
		o.state = plainReady
		return nil
	}

	o.state = plainError
	return ErrorProtocol.Error(nil)
}

func (o *plainMechanism) checkHello(payload []byte) bool {
	if len(payload) < 1 {
		return false
	}

	ul := int(payload[0])
	payload = payload[1:]
	if len(payload) < ul+1 {
		return false
	}

	user := string(payload[:ul])
	payload = payload[ul:]

	pl := int(payload[0])
	payload = payload[1:]
	if len(payload) != pl {
		return false
	}

	return user == o.username && string(payload) == o.password
}

func (o *plainMechanism) Status() MechanismStatus {
	switch o.state {
	case plainReady:
		return StatusReady
	case plainError:
		return StatusError
	}
	return StatusHandshaking
}

func (o *plainMechanism) PeerMetadata() *libmsg.Metadata {
	return o.peer
}
