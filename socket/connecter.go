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
	"math/rand"
	"time"

	libepd "github/sabouaram/gomq/endpoint"
	libpol "github/sabouaram/gomq/poller"
	"golang.org/x/sys/unix"
)

const (
	connectTimerID   = 1
	reconnectTimerID = 2
)

// streamConnecter establishes one outgoing tcp or ipc connection with
// non-blocking connect, exponential reconnect backoff and an optional
// connect timeout. On success it hands the descriptor to a fresh engine and
// retires.
type streamConnecter struct {
	own
	ioObject

	addr libepd.Endpoint
	uri  string

	fd        int
	handle    libpol.Handle
	hasHandle bool

	delayedStart          bool
	connectTimerStarted   bool
	reconnectTimerStarted bool

	session  *session
	socket   *SocketBase
	ioThread *ioThread

	currentReconnectIvl int
}

func newStreamConnecter(ctx *Context, t *ioThread, sess *session, opts *Options, addr libepd.Endpoint, uri string, delayedStart bool) *streamConnecter {
	c := &streamConnecter{
		addr:                addr,
		uri:                 uri,
		fd:                  -1,
		delayedStart:        delayedStart,
		session:             sess,
		socket:              sess.socket,
		ioThread:            t,
		currentReconnectIvl: opts.ReconnectIvl,
	}
	c.initOwn(ctx, t.getTid(), opts, c)
	return c
}

func (o *streamConnecter) processPlug() {
	o.plugIOThread(o.ioThread)

	if o.delayedStart {
		o.addReconnectTimer()
	} else {
		o.startConnecting()
	}
}

func (o *streamConnecter) processTerm(linger int) {
	if o.connectTimerStarted {
		o.cancelTimer(o, connectTimerID)
		o.connectTimerStarted = false
	}

	if o.reconnectTimerStarted {
		o.cancelTimer(o, reconnectTimerID)
		o.reconnectTimerStarted = false
	}

	o.rmHandle()

	if o.fd >= 0 {
		_ = unix.Close(o.fd)
		o.fd = -1
	}

	o.own.processTerm(linger)
}

func (o *streamConnecter) rmHandle() {
	if o.hasHandle {
		o.rmFd(o.handle)
		o.hasHandle = false
	}
}

// InEvent only fires on error conditions while connecting; handled the same
// way as writability.
func (o *streamConnecter) InEvent() {
	o.OutEvent()
}

func (o *streamConnecter) OutEvent() {
	if o.connectTimerStarted {
		o.cancelTimer(o, connectTimerID)
		o.connectTimerStarted = false
	}

	o.rmHandle()

	fd, ok := o.finishConnect()
	if !ok {
		o.closeSocket()
		o.addReconnectTimer()
		return
	}

	tuneConnected(fd, o.options, o.family())

	engine := newStreamEngine(fd, o.options, o.uri)

	o.sendAttach(o.session, engine, true)

	o.terminate()

	o.socket.event(EventConnected, o.uri, fd)
}

func (o *streamConnecter) TimerEvent(id int) {
	switch id {
	case connectTimerID:
		o.connectTimerStarted = false
		o.rmHandle()
		o.closeSocket()
		o.addReconnectTimer()

	case reconnectTimerID:
		o.reconnectTimerStarted = false
		o.startConnecting()
	}
}

func (o *streamConnecter) startConnecting() {
	switch err := o.open(); {
	case err == nil:
		// Synchronous success.
		o.handle = o.addFd(o.fd, o)
		o.hasHandle = true
		o.OutEvent()

	case err == unix.EINPROGRESS:
		o.handle = o.addFd(o.fd, o)
		o.hasHandle = true
		o.setPollOut(o.handle)
		o.socket.event(EventConnectDelayed, o.uri, 0)
		o.addConnectTimer()

	default:
		o.closeSocket()
		o.addReconnectTimer()
	}
}

func (o *streamConnecter) family() int {
	if o.addr.Transport == libepd.TransportIPC {
		return unix.AF_UNIX
	}
	if o.options.IPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

// open resolves the address and launches a non-blocking connect. It returns
// nil on synchronous success, EINPROGRESS when the connect is in flight, or
// the failure.
func (o *streamConnecter) open() error {
	var (
		family int
		sa     unix.Sockaddr
	)

	switch o.addr.Transport {
	case libepd.TransportIPC:
		family = unix.AF_UNIX
		sa = &unix.SockaddrUnix{Name: o.addr.Address}

	default:
		res, err := libepd.ResolveTCP(o.addr.Address, o.options.IPv6)
		if err != nil {
			return unix.EINVAL
		}
		family = res.Family
		sa = res.Sockaddr
	}

	fd, err := openStreamSocket(family)
	if err != nil {
		return unix.EMFILE
	}
	o.fd = fd

	if family != unix.AF_UNIX {
		tuneTOS(fd, o.options, family)
		tuneBuffers(fd, o.options)
	}

	err = unix.Connect(fd, sa)
	if err == nil {
		return nil
	}
	if err == unix.EINTR || err == unix.EINPROGRESS {
		return unix.EINPROGRESS
	}

	return err
}

// finishConnect harvests the asynchronous connect outcome.
func (o *streamConnecter) finishConnect() (int, bool) {
	soerr, err := unix.GetsockoptInt(o.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || soerr != 0 {
		return -1, false
	}

	fd := o.fd
	o.fd = -1
	return fd, true
}

func (o *streamConnecter) closeSocket() {
	if o.fd >= 0 {
		_ = unix.Close(o.fd)
		o.socket.event(EventClosed, o.uri, o.fd)
		o.fd = -1
	}
}

func (o *streamConnecter) addConnectTimer() {
	if o.options.ConnectTimeout > 0 {
		o.addTimer(time.Duration(o.options.ConnectTimeout)*time.Millisecond, o, connectTimerID)
		o.connectTimerStarted = true
	}
}

func (o *streamConnecter) addReconnectTimer() {
	if o.options.ReconnectIvl == -1 {
		return
	}

	ivl := o.newReconnectIvl()
	o.addTimer(time.Duration(ivl)*time.Millisecond, o, reconnectTimerID)
	o.socket.event(EventConnectRetried, o.uri, ivl)
	o.reconnectTimerStarted = true
}

// newReconnectIvl returns the next backoff delay: the current interval plus
// jitter, doubling the current interval up to the configured ceiling.
func (o *streamConnecter) newReconnectIvl() int {
	jitter := 0
	if o.options.ReconnectIvl > 0 {
		jitter = rand.Intn(o.options.ReconnectIvl)
	}

	ivl := o.currentReconnectIvl + jitter

	if o.options.ReconnectIvlMax > 0 && o.options.ReconnectIvlMax > o.options.ReconnectIvl {
		next := o.currentReconnectIvl * 2
		if next > o.options.ReconnectIvlMax {
			next = o.options.ReconnectIvlMax
		}
		o.currentReconnectIvl = next
	}

	return ivl
}
