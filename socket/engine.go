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

package socket

import (
	liberr "github.com/nabbar/golib/errors"
	loglvl "github.com/nabbar/golib/logger/level"
	libmsg "github/sabouaram/gomq/message"
	libpol "github/sabouaram/gomq/poller"
	libwir "github/sabouaram/gomq/wire"
	"golang.org/x/sys/unix"
)

const (
	engineInBufSize  = 8192
	engineOutBufSize = 8192
)

// streamEngine drives one connected descriptor end to end: greeting
// exchange, security handshake, then the frame pump between the session
// pipe and the wire. It lives entirely on one I/O thread.
type streamEngine struct {
	ioObject

	fd     int
	handle libpol.Handle

	options *Options
	uri     string

	session *session
	socket  *SocketBase

	decoder   *libwir.Decoder
	encoder   *libwir.Encoder
	mechanism libwir.Mechanism
	metadata  *libmsg.Metadata

	inBuf  []byte
	inData []byte

	outBuf  []byte
	outPos  int
	outSize int

	greetingOut  []byte
	greetingRecv [libwir.GreetingSize]byte
	greetingGot  int

	handshaking bool
	mechReady   bool

	nextMsg    func() (libmsg.Message, bool)
	processMsg func(m *libmsg.Message) error

	pendingIn *libmsg.Message

	inputStopped  bool
	outputStopped bool
	ioError       bool
	plugged       bool
}

func newStreamEngine(fd int, opts *Options, uri string) *streamEngine {
	return &streamEngine{
		fd:      fd,
		options: opts,
		uri:     uri,
		inBuf:   make([]byte, engineInBufSize),
		outBuf:  make([]byte, engineOutBufSize),
	}
}

func (o *streamEngine) mechanismName() string {
	if o.options.Mechanism == MechanismPlain {
		return libwir.MechanismPlain
	}
	return libwir.MechanismNull
}

func (o *streamEngine) asServer() bool {
	return o.options.Mechanism == MechanismPlain && o.options.PlainServer
}

func (o *streamEngine) buildMechanism() libwir.Mechanism {
	props := map[string]string{
		libwir.PropSocketType: o.options.sockType.String(),
	}
	if len(o.options.RoutingID) > 0 {
		props[libwir.PropIdentity] = string(o.options.RoutingID)
	}

	if o.options.Mechanism == MechanismPlain {
		if o.options.PlainServer {
			return libwir.NewPlainServer(o.options.PlainUsername, o.options.PlainPassword, props)
		}
		return libwir.NewPlainClient(o.options.PlainUsername, o.options.PlainPassword, props)
	}

	return libwir.NewNull(props)
}

// engineAPI implementation.

func (o *streamEngine) plug(t *ioThread, s *session) {
	o.session = s
	o.socket = s.socket
	o.plugIOThread(t)

	o.handle = o.addFd(o.fd, o)
	o.plugged = true
	o.setPollIn(o.handle)
	o.setPollOut(o.handle)

	o.handshaking = true
	o.greetingOut = libwir.BuildGreeting(o.mechanismName(), o.asServer())

	o.OutEvent()
	if !o.ioError {
		o.InEvent()
	}
}

func (o *streamEngine) terminate() {
	o.unplugEngine()
	_ = unix.Close(o.fd)
	o.session = nil
}

func (o *streamEngine) unplugEngine() {
	if o.plugged {
		o.rmFd(o.handle)
		o.plugged = false
	}
	o.unplugIOThread()
}

func (o *streamEngine) restartInput() {
	if o.ioError || !o.inputStopped {
		return
	}

	if o.pendingIn != nil {
		if err := o.processMsg(o.pendingIn); err != nil {
			if IsWouldBlock(err) {
				return
			}
			o.fail(engineProtocolError)
			return
		}
		o.pendingIn = nil
		o.session.flush()
	}

	o.inputStopped = false
	o.setPollIn(o.handle)
	o.InEvent()
}

func (o *streamEngine) restartOutput() {
	if o.ioError {
		return
	}

	if o.outputStopped {
		o.setPollOut(o.handle)
		o.outputStopped = false
	}

	o.OutEvent()
}

// poller.Events implementation.

func (o *streamEngine) InEvent() {
	if o.ioError {
		return
	}

	if o.handshaking {
		if !o.handshake() {
			return
		}
	}

	o.processInput()
}

func (o *streamEngine) OutEvent() {
	if o.ioError {
		return
	}

	// The greeting leaves first, whatever the phase.
	for len(o.greetingOut) > 0 {
		n, err := unix.Write(o.fd, o.greetingOut)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return
		}
		if err != nil {
			o.fail(engineConnectionError)
			return
		}
		o.greetingOut = o.greetingOut[n:]
	}

	// Until the peer greeting is in, there is nothing else to say.
	if o.handshaking {
		return
	}

	for {
		if o.outPos == o.outSize {
			o.outPos = 0
			o.outSize = 0

			for o.outSize < len(o.outBuf) {
				if !o.encoder.HasData() {
					if o.nextMsg == nil {
						break
					}
					m, k := o.nextMsg()
					if o.ioError {
						return
					}
					if !k {
						break
					}
					o.encoder.LoadMsg(m)
				}

				n := o.encoder.Encode(o.outBuf[o.outSize:])
				if n == 0 {
					break
				}
				o.outSize += n
			}

			if o.outSize == 0 {
				o.outputStopped = true
				o.resetPollOut(o.handle)
				return
			}
		}

		for o.outPos < o.outSize {
			n, err := unix.Write(o.fd, o.outBuf[o.outPos:o.outSize])
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				return
			}
			if err != nil {
				o.fail(engineConnectionError)
				return
			}
			o.outPos += n
		}
	}
}

func (o *streamEngine) TimerEvent(int) {}

// handshake collects the peer greeting. It reports true once the engine
// moved past the greeting phase.
func (o *streamEngine) handshake() bool {
	for o.greetingGot < libwir.GreetingSize {
		n, err := unix.Read(o.fd, o.greetingRecv[o.greetingGot:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return false
		}
		if err != nil || n == 0 {
			o.fail(engineConnectionError)
			return false
		}

		o.greetingGot += n

		if err = libwir.CheckSignature(o.greetingRecv[:o.greetingGot]); err != nil {
			o.handshakeFailed(err)
			return false
		}
	}

	g, err := libwir.ParseGreeting(o.greetingRecv[:])
	if err != nil {
		o.handshakeFailed(err)
		return false
	}

	if g.Mechanism != o.mechanismName() {
		o.handshakeFailed(libwir.ErrorMechanism.Error(nil))
		return false
	}

	o.mechanism = o.buildMechanism()
	o.decoder = libwir.NewDecoder(o.options.MaxMsgSize)
	o.encoder = libwir.NewEncoder()
	o.nextMsg = o.nextHandshakeCommand
	o.processMsg = o.processHandshakeCommand
	o.handshaking = false

	// Kick the first handshake command onto the wire.
	o.restartOutput()

	return !o.ioError
}

func (o *streamEngine) processInput() {
	for {
		for len(o.inData) > 0 || o.pendingIn != nil {
			if o.pendingIn != nil {
				if err := o.processMsg(o.pendingIn); err != nil {
					if IsWouldBlock(err) {
						o.suspendInput()
						o.session.flush()
						return
					}
					o.fail(engineProtocolError)
					return
				}
				o.pendingIn = nil
			}

			if len(o.inData) == 0 {
				break
			}

			c, msg, derr := o.decoder.Decode(o.inData)
			o.inData = o.inData[c:]

			if derr != nil {
				o.handshakeOrProtocolFail(derr)
				return
			}
			if msg == nil {
				break
			}

			if err := o.processMsg(msg); err != nil {
				if IsWouldBlock(err) {
					o.pendingIn = msg
					o.suspendInput()
					o.session.flush()
					return
				}
				o.fail(engineProtocolError)
				return
			}
			if o.ioError {
				return
			}
		}

		n, err := unix.Read(o.fd, o.inBuf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			o.session.flush()
			return
		}
		if err != nil || n == 0 {
			o.session.flush()
			o.fail(engineConnectionError)
			return
		}

		o.inData = o.inBuf[:n]
	}
}

func (o *streamEngine) suspendInput() {
	o.inputStopped = true
	o.resetPollIn(o.handle)
}

// nextHandshakeCommand feeds the encoder during the security handshake and
// switches the pump over once the mechanism settles.
func (o *streamEngine) nextHandshakeCommand() (libmsg.Message, bool) {
	var zero libmsg.Message

	if m, k := o.mechanism.NextHandshakeCommand(); k {
		return m, true
	}

	switch o.mechanism.Status() {
	case libwir.StatusReady:
		o.mechanismReady()
		if o.ioError || o.nextMsg == nil {
			return zero, false
		}
		return o.nextMsg()

	case libwir.StatusError:
		o.handshakeFailed(libwir.ErrorMechanism.Error(nil))
	}

	return zero, false
}

func (o *streamEngine) processHandshakeCommand(m *libmsg.Message) error {
	if !m.IsCommand() {
		o.handshakeFailed(libwir.ErrorProtocol.Error(nil))
		return nil
	}

	if err := o.mechanism.ProcessHandshakeCommand(*m); err != nil {
		o.handshakeFailed(err)
		return nil
	}

	if o.mechanism.Status() == libwir.StatusReady {
		o.mechanismReady()
	}

	// A consumed command may unlock a response.
	if !o.ioError {
		o.restartOutput()
	}

	return nil
}

// mechanismReady switches the pump to application traffic.
func (o *streamEngine) mechanismReady() {
	if o.mechReady || o.ioError {
		return
	}

	o.metadata = o.mechanism.PeerMetadata()

	if st, k := o.metadata.Get(libwir.PropSocketType); k {
		if !o.options.sockType.compatible(st) {
			o.socket.event(EventHandshakeFailedProtocol, o.uri, 0)
			o.fail(engineProtocolError)
			return
		}
	}

	o.mechReady = true
	o.nextMsg = o.pullFromSession
	o.processMsg = o.pushToSession

	o.socket.event(EventHandshakeSucceeded, o.uri, 0)

	ent := o.socket.logger().Entry(loglvl.DebugLevel, "connection handshake complete")
	ent = ent.FieldAdd("endpoint", o.uri)
	ent = ent.FieldAdd("mechanism", o.mechanismName())
	ent.Log()
}

func (o *streamEngine) pullFromSession() (libmsg.Message, bool) {
	m, err := o.session.pullMsg()
	if err != nil {
		return m, false
	}
	return m, true
}

func (o *streamEngine) pushToSession(m *libmsg.Message) error {
	if o.metadata != nil {
		m.SetMetadata(o.metadata)
	}
	return o.session.pushMsg(m)
}

// handshakeFailed classifies a handshake error for the monitor channel and
// kills the engine.
func (o *streamEngine) handshakeFailed(err error) {
	ev := EventHandshakeFailedProtocol
	if e, k := err.(liberr.Error); k && e.IsCode(libwir.ErrorAuthentication) {
		ev = EventHandshakeFailedAuth
	} else if !k {
		ev = EventHandshakeFailedNoDetail
	}

	o.socket.event(ev, o.uri, 0)
	o.fail(engineProtocolError)
}

// handshakeOrProtocolFail routes a decoder error depending on the phase.
func (o *streamEngine) handshakeOrProtocolFail(err error) {
	if !o.mechReady {
		o.handshakeFailed(err)
		return
	}
	o.fail(engineProtocolError)
}

// fail tears the engine down and notifies the session.
func (o *streamEngine) fail(reason engineError) {
	if o.ioError {
		return
	}
	o.ioError = true

	if o.pendingIn != nil {
		o.pendingIn.Close()
		o.pendingIn = nil
	}

	s := o.session
	o.unplugEngine()
	_ = unix.Close(o.fd)
	o.session = nil

	if s != nil {
		s.engineError(reason)
	}
}
