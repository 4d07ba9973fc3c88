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

// Package socket provides brokerless messaging endpoints exchanging
// discrete, possibly multi-frame messages over tcp, ipc and inproc
// transports.
//
// A Context owns the I/O workers and the inproc namespace; sockets are
// created from it with a pattern (pair, pub/sub, push/pull, dealer/router,
// req/rep) and then bound or connected to transport URIs. Every socket is a
// distributed object: the application side runs on the caller goroutine
// while its sessions and engines live on I/O workers, and the two halves
// talk exclusively through mailbox commands and lock-free pipes.
package socket

import (
	libmsg "github/sabouaram/gomq/message"
)

// Type identifies the messaging pattern of a socket.
type Type uint8

const (
	TypePair Type = iota
	TypePub
	TypeSub
	TypeReq
	TypeRep
	TypeDealer
	TypeRouter
	TypePull
	TypePush
	TypeXPub
	TypeXSub
)

// String returns the wire name of the pattern, as announced to peers in the
// handshake metadata.
func (t Type) String() string {
	switch t {
	case TypePair:
		return "PAIR"
	case TypePub:
		return "PUB"
	case TypeSub:
		return "SUB"
	case TypeReq:
		return "REQ"
	case TypeRep:
		return "REP"
	case TypeDealer:
		return "DEALER"
	case TypeRouter:
		return "ROUTER"
	case TypePull:
		return "PULL"
	case TypePush:
		return "PUSH"
	case TypeXPub:
		return "XPUB"
	case TypeXSub:
		return "XSUB"
	}
	return ""
}

// compatible reports whether a peer pattern may talk to this one.
func (t Type) compatible(peer string) bool {
	var allowed []string

	switch t {
	case TypePair:
		allowed = []string{"PAIR"}
	case TypePub:
		allowed = []string{"SUB", "XSUB"}
	case TypeSub:
		allowed = []string{"PUB", "XPUB"}
	case TypeReq:
		allowed = []string{"REP", "ROUTER"}
	case TypeRep:
		allowed = []string{"REQ", "DEALER"}
	case TypeDealer:
		allowed = []string{"REP", "DEALER", "ROUTER"}
	case TypeRouter:
		allowed = []string{"REQ", "DEALER", "ROUTER"}
	case TypePull:
		allowed = []string{"PUSH"}
	case TypePush:
		allowed = []string{"PULL"}
	case TypeXPub:
		allowed = []string{"SUB", "XSUB"}
	case TypeXSub:
		allowed = []string{"PUB", "XPUB"}
	}

	for _, a := range allowed {
		if a == peer {
			return true
		}
	}
	return false
}

// Flag tunes one send or receive call.
type Flag uint8

const (
	// FlagNone is the default blocking behaviour.
	FlagNone Flag = 0

	// FlagDontWait returns a would-block error instead of blocking.
	FlagDontWait Flag = 1 << iota

	// FlagSndMore marks the frame as part of a longer logical message.
	FlagSndMore
)

// Readiness bits reported by the events option.
const (
	PollIn  = 1 << iota
	PollOut
)

// Socket is one messaging endpoint. Sockets are not safe for concurrent use
// by multiple goroutines, except for Close.
type Socket interface {
	// Bind attaches the socket to a local endpoint URI.
	Bind(uri string) error

	// Unbind detaches a bound endpoint.
	Unbind(uri string) error

	// Connect attaches the socket to a remote endpoint URI.
	Connect(uri string) error

	// Disconnect detaches a connected endpoint.
	Disconnect(uri string) error

	// SendMsg sends one frame. FlagSndMore keeps the logical message
	// open.
	SendMsg(m *libmsg.Message, flags Flag) error

	// RecvMsg receives one frame.
	RecvMsg(flags Flag) (libmsg.Message, error)

	// SendBytes and RecvBytes are the slice-based conveniences.
	SendBytes(data []byte, flags Flag) error
	RecvBytes(flags Flag) ([]byte, error)

	// RcvMore reports whether the last received frame has followers.
	RcvMore() bool

	// SetOption and GetOption access the socket option surface.
	SetOption(opt Option, v interface{}) error
	GetOption(opt Option) (interface{}, error)

	// Monitor streams lifecycle events to an inproc pair endpoint.
	Monitor(uri string, events EventType) error

	// Close hands the socket over to the reaper and returns immediately.
	Close() error

	// Type returns the socket pattern.
	Type() Type
}

// patternSocket is the internal face of a concrete pattern socket.
type patternSocket interface {
	Socket

	baseSocket() *SocketBase
}

// newPatternSocket builds the concrete pattern socket for a slot.
func newPatternSocket(ctx *Context, t Type, tid uint32) (patternSocket, error) {
	switch t {
	case TypePair:
		return newPair(ctx, tid)
	case TypePub:
		return newPub(ctx, tid)
	case TypeSub:
		return newSub(ctx, tid)
	case TypeReq:
		return newReq(ctx, tid)
	case TypeRep:
		return newRep(ctx, tid)
	case TypeDealer:
		return newDealer(ctx, tid)
	case TypeRouter:
		return newRouter(ctx, tid)
	case TypePull:
		return newPull(ctx, tid)
	case TypePush:
		return newPush(ctx, tid)
	case TypeXPub:
		return newXPub(ctx, tid)
	case TypeXSub:
		return newXSub(ctx, tid)
	}

	return nil, ErrorInvalidArgument.Error(nil)
}
