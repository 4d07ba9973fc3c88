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
	libepd "github/sabouaram/gomq/endpoint"
	libpol "github/sabouaram/gomq/poller"
	"golang.org/x/sys/unix"
)

// streamListener accepts tcp or ipc connections and spawns one passive
// session per peer on the least-loaded I/O thread.
type streamListener struct {
	own
	ioObject

	fd        int
	handle    libpol.Handle
	hasHandle bool

	socket   *SocketBase
	ioThread *ioThread

	transport libepd.Transport
	boundURI  string
	ipcPath   string
}

func newStreamListener(ctx *Context, t *ioThread, s *SocketBase, opts *Options) *streamListener {
	l := &streamListener{
		fd:       -1,
		socket:   s,
		ioThread: t,
	}
	l.initOwn(ctx, t.getTid(), opts, l)
	return l
}

// setAddress opens, binds and listens synchronously so bind errors surface
// to the caller.
func (o *streamListener) setAddress(ep libepd.Endpoint) error {
	o.transport = ep.Transport

	switch ep.Transport {
	case libepd.TransportIPC:
		fd, err := openStreamSocket(unix.AF_UNIX)
		if err != nil {
			return err
		}

		sa := &unix.SockaddrUnix{Name: ep.Address}
		if e := unix.Bind(fd, sa); e != nil {
			_ = unix.Close(fd)
			return ErrorAddressInUse.Error(e)
		}
		if e := unix.Listen(fd, o.options.Backlog); e != nil {
			_ = unix.Close(fd)
			return ErrorAddressNotAvailable.Error(e)
		}

		o.fd = fd
		o.ipcPath = ep.Address
		o.boundURI = ep.String()

	default:
		res, err := libepd.ResolveTCP(ep.Address, o.options.IPv6)
		if err != nil {
			return err
		}

		fd, err := openStreamSocket(res.Family)
		if err != nil {
			return err
		}

		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		tuneTOS(fd, o.options, res.Family)

		if e := unix.Bind(fd, res.Sockaddr); e != nil {
			_ = unix.Close(fd)
			return ErrorAddressInUse.Error(e)
		}
		if e := unix.Listen(fd, o.options.Backlog); e != nil {
			_ = unix.Close(fd)
			return ErrorAddressNotAvailable.Error(e)
		}

		o.fd = fd

		// Report the effective address: an ephemeral bind resolves to
		// its assigned port.
		if sa, e := unix.Getsockname(fd); e == nil {
			o.boundURI = libepd.TransportTCP.Scheme() + "://" + libepd.SockaddrString(sa)
		} else {
			o.boundURI = ep.String()
		}
	}

	o.socket.event(EventListening, o.boundURI, o.fd)
	return nil
}

func (o *streamListener) endpointURI() string {
	return o.boundURI
}

func (o *streamListener) processPlug() {
	o.plugIOThread(o.ioThread)
	o.handle = o.addFd(o.fd, o)
	o.hasHandle = true
	o.setPollIn(o.handle)
}

func (o *streamListener) processTerm(linger int) {
	if o.hasHandle {
		o.rmFd(o.handle)
		o.hasHandle = false
	}

	if o.fd >= 0 {
		_ = unix.Close(o.fd)
		o.socket.event(EventClosed, o.boundURI, o.fd)
		o.fd = -1
	}

	if o.ipcPath != "" {
		_ = unix.Unlink(o.ipcPath)
	}

	o.own.processTerm(linger)
}

// InEvent accepts one incoming connection.
func (o *streamListener) InEvent() {
	nfd, sa, err := unix.Accept4(o.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR || err == unix.ECONNABORTED {
			return
		}
		// Resource exhaustion refuses the connection, never the
		// listener.
		o.socket.event(EventAcceptFailed, o.boundURI, 0)
		return
	}

	if o.transport == libepd.TransportTCP && len(o.options.AcceptFilters) > 0 {
		if !libepd.MatchCIDR(sa, o.options.AcceptFilters) {
			_ = unix.Close(nfd)
			o.socket.event(EventAcceptFailed, o.boundURI, nfd)
			return
		}
	}

	family := unix.AF_UNIX
	switch sa.(type) {
	case *unix.SockaddrInet4:
		family = unix.AF_INET
	case *unix.SockaddrInet6:
		family = unix.AF_INET6
	}
	tuneConnected(nfd, o.options, family)

	engine := newStreamEngine(nfd, o.options, o.boundURI)

	t := o.chooseIOThread()
	if t == nil {
		_ = unix.Close(nfd)
		return
	}

	sess := newSession(o.ctx, t, false, o.socket, o.options, libepd.Endpoint{}, o.boundURI)
	sess.incSeqnum()
	o.launchChild(sess.base())
	o.sendAttach(sess, engine, false)

	o.socket.event(EventAccepted, o.boundURI, nfd)
}

func (o *streamListener) OutEvent() {}

func (o *streamListener) TimerEvent(int) {}
