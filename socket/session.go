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
	"time"

	libepd "github/sabouaram/gomq/endpoint"
	libmsg "github/sabouaram/gomq/message"
	libpip "github/sabouaram/gomq/pipe"
)

// engineAPI is the face a protocol engine shows its session. All calls run
// on the session's I/O thread.
type engineAPI interface {
	plug(t *ioThread, s *session)
	terminate()
	restartInput()
	restartOutput()
}

const lingerTimerID = 0x20

// engine error reasons.
type engineError uint8

const (
	engineConnectionError engineError = iota
	engineProtocolError
	engineTimeoutError
)

// session bridges one socket pipe with one protocol engine on an I/O
// thread. Active sessions own the reconnect policy of their endpoint;
// passive sessions die with their connection.
type session struct {
	own
	ioObject

	active bool

	pipe             *libpip.Pipe
	terminatingPipes map[*libpip.Pipe]struct{}

	incompleteIn bool
	pending      bool

	engine engineAPI

	socket   *SocketBase
	ioThread *ioThread

	hasLingerTimer bool

	addr libepd.Endpoint
	uri  string
}

func newSession(ctx *Context, t *ioThread, active bool, s *SocketBase, opts *Options, addr libepd.Endpoint, uri string) *session {
	sess := &session{
		active:           active,
		terminatingPipes: make(map[*libpip.Pipe]struct{}),
		socket:           s,
		ioThread:         t,
		addr:             addr,
		uri:              uri,
	}
	sess.initOwn(ctx, t.getTid(), opts, sess)
	return sess
}

// adoptPipe installs the session end of a pre-created pipe. Only valid
// before the session is plugged.
func (o *session) adoptPipe(p *libpip.Pipe) {
	p.SetEventSink(o)
	o.pipe = p
}

// pushMsg delivers one inbound frame towards the socket.
func (o *session) pushMsg(m *libmsg.Message) error {
	if o.pipe == nil || !o.pipe.Write(*m) {
		return ErrorWouldBlock.Error(nil)
	}

	*m = libmsg.Message{}
	return nil
}

// pullMsg fetches one outbound frame from the socket pipe.
func (o *session) pullMsg() (libmsg.Message, error) {
	var zero libmsg.Message

	if o.pipe == nil {
		return zero, ErrorWouldBlock.Error(nil)
	}

	m, k := o.pipe.Read()
	if !k {
		return zero, ErrorWouldBlock.Error(nil)
	}

	o.incompleteIn = m.HasMore()
	return m, nil
}

func (o *session) flush() {
	if o.pipe != nil {
		o.pipe.Flush()
	}
}

// cleanPipes drops half-transferred messages on both directions after an
// engine died.
func (o *session) cleanPipes() {
	if o.pipe == nil {
		return
	}

	o.pipe.Rollback()
	o.pipe.Flush()

	for o.incompleteIn {
		m, err := o.pullMsg()
		if err != nil {
			o.incompleteIn = false
			break
		}
		m.Close()
	}
}

// pipe.Events implementation.

func (o *session) ReadActivated(p *libpip.Pipe) {
	if p != o.pipe {
		return
	}

	if o.engine != nil {
		o.engine.restartOutput()
	} else {
		o.pipe.CheckRead()
	}
}

func (o *session) WriteActivated(p *libpip.Pipe) {
	if p != o.pipe {
		return
	}

	if o.engine != nil {
		o.engine.restartInput()
	}
}

func (o *session) Hiccuped(*libpip.Pipe) {
	// Hiccups only travel from session to socket.
}

func (o *session) Terminated(p *libpip.Pipe) {
	if p == o.pipe {
		o.pipe = nil
		if o.hasLingerTimer {
			o.cancelTimer(o, lingerTimerID)
			o.hasLingerTimer = false
		}
	}

	delete(o.terminatingPipes, p)

	if o.pending && o.pipe == nil && len(o.terminatingPipes) == 0 {
		o.pending = false
		o.own.processTerm(0)
	}
}

// engineError is the engine's death notification.
func (o *session) engineError(reason engineError) {
	o.engine = nil

	if o.pipe != nil {
		o.cleanPipes()
	}

	o.socket.event(EventDisconnected, o.uri, 0)

	switch reason {
	case engineConnectionError, engineTimeoutError:
		if o.active {
			o.reconnect()
			break
		}
		fallthrough

	case engineProtocolError:
		if o.pending {
			if o.pipe != nil {
				o.pipe.Terminate(false)
			}
		} else {
			o.terminate()
		}
	}

	// Only a delimiter may be left in the pipe; make sure it is seen.
	if o.pipe != nil {
		o.pipe.CheckRead()
	}
}

func (o *session) reconnect() {
	// With delayed attach the stale pipe is dropped now and rebuilt on
	// the next successful connect.
	if o.pipe != nil && o.options.Immediate {
		o.pipe.Hiccup()
		o.pipe.Terminate(false)
		o.terminatingPipes[o.pipe] = struct{}{}
		o.pipe = nil
	}

	if o.options.ReconnectIvl == -1 {
		o.terminate()
		return
	}

	o.startConnecting(true)

	// Subscriber sockets replay their subscriptions on hiccup.
	if o.pipe != nil {
		t := o.options.sockType
		if t == TypeSub || t == TypeXSub {
			o.pipe.Hiccup()
		}
	}
}

func (o *session) startConnecting(wait bool) {
	t := o.chooseIOThread()
	if t == nil {
		return
	}

	c := newStreamConnecter(o.ctx, t, o, o.options, o.addr, o.uri, wait)
	o.launchChild(c.base())
}

// command reactions.

func (o *session) processPlug() {
	o.plugIOThread(o.ioThread)
	if o.active {
		o.startConnecting(false)
	}
}

func (o *session) processAttach(e engineAPI) {
	// The listener side has no pipe yet: build it now and hand the
	// socket end over.
	if o.pipe == nil && !o.isTerminating() {
		p0, p1 := libpip.NewPair(o.options.RcvHWM, o.options.SndHWM)
		p0.SetTid(o.socket.getTid())
		p0.SetCommander(o.ctx.commander)
		p1.SetTid(o.getTid())
		p1.SetCommander(o.ctx.commander)

		p1.SetEventSink(o)
		o.pipe = p1

		o.sendBind(o.socket, p0, true)
	}

	o.engine = e
	e.plug(o.ioThread, o)
}

func (o *session) processTerm(linger int) {
	if o.pipe == nil && len(o.terminatingPipes) == 0 {
		o.own.processTerm(0)
		return
	}

	o.pending = true

	if o.pipe != nil {
		if linger > 0 {
			o.addTimer(time.Duration(linger)*time.Millisecond, o, lingerTimerID)
			o.hasLingerTimer = true
		}

		o.pipe.Terminate(linger != 0)

		// Without an engine nothing drains the pipe; surface a lone
		// delimiter immediately.
		if o.engine == nil {
			o.pipe.CheckRead()
		}
	}
}

func (o *session) processDestroyed() {
	if o.engine != nil {
		o.engine.terminate()
		o.engine = nil
	}
	o.unplugIOThread()
}

// poller.Events: only the linger timer lands here.

func (o *session) InEvent()  {}
func (o *session) OutEvent() {}

func (o *session) TimerEvent(id int) {
	if id != lingerTimerID {
		return
	}

	o.hasLingerTimer = false
	if o.pipe != nil {
		o.pipe.Terminate(false)
	}
}
