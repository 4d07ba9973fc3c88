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
	"encoding/binary"

	libepd "github/sabouaram/gomq/endpoint"
	libmsg "github/sabouaram/gomq/message"
)

// EventType is the bitmask of socket lifecycle events streamed over the
// monitor endpoint.
type EventType uint16

const (
	EventConnected EventType = 1 << iota
	EventConnectDelayed
	EventConnectRetried
	EventListening
	EventBindFailed
	EventAccepted
	EventAcceptFailed
	EventClosed
	EventCloseFailed
	EventDisconnected
	EventMonitorStopped
	EventHandshakeFailedNoDetail
	EventHandshakeSucceeded
	EventHandshakeFailedProtocol
	EventHandshakeFailedAuth

	// EventAll subscribes to every event.
	EventAll EventType = 0x7fff
)

// Monitor streams the selected lifecycle events of this socket to the given
// inproc endpoint as two-frame messages: a fixed header of event id and
// value, then the endpoint string. An empty uri stops monitoring.
func (o *SocketBase) Monitor(uri string, events EventType) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	o.monitorSync.Lock()
	defer o.monitorSync.Unlock()

	if uri == "" {
		o.stopMonitorLocked()
		return nil
	}

	ep, err := libepd.Parse(uri)
	if err != nil {
		return err
	}
	if ep.Transport != libepd.TransportInProc {
		return ErrorInvalidArgument.Error(nil)
	}

	s, err := o.ctx.NewSocket(TypePair)
	if err != nil {
		return err
	}

	_ = s.SetOption(OptLinger, 0)

	if err = s.Bind(uri); err != nil {
		_ = s.Close()
		return err
	}

	o.monitorSocket = s
	o.monitorEvents = events
	return nil
}

// stopMonitorLocked announces the stop and drops the monitor socket. The
// monitor mutex must be held.
func (o *SocketBase) stopMonitorLocked() {
	if o.monitorSocket == nil {
		return
	}

	if o.monitorEvents&EventMonitorStopped != 0 {
		o.emitLocked(EventMonitorStopped, "", 0)
	}

	_ = o.monitorSocket.Close()
	o.monitorSocket = nil
	o.monitorEvents = 0
}

// event emits one lifecycle event towards the monitor endpoint, if any. It
// is callable from any thread owning part of the socket.
func (o *SocketBase) event(e EventType, addr string, value int) {
	o.monitorSync.Lock()
	if o.monitorSocket != nil && o.monitorEvents&e != 0 {
		o.emitLocked(e, addr, value)
	}
	o.monitorSync.Unlock()
}

func (o *SocketBase) emitLocked(e EventType, addr string, value int) {
	var hdr [6]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(e))
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(value))

	first := libmsg.NewData(hdr[:])
	if err := o.monitorSocket.SendMsg(&first, FlagSndMore|FlagDontWait); err != nil {
		first.Close()
		return
	}

	second := libmsg.NewString(addr)
	if err := o.monitorSocket.SendMsg(&second, FlagDontWait); err != nil {
		second.Close()
	}
}
