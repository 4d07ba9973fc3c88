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
	libuid "github.com/hashicorp/go-uuid"
	libmsg "github/sabouaram/gomq/message"
	libpip "github/sabouaram/gomq/pipe"
)

type outPipe struct {
	pipe   *libpip.Pipe
	active bool
}

// routerSock prefixes every inbound message with the peer routing identity
// and routes outbound messages by their leading identity frame.
type routerSock struct {
	patternBase

	fq fq

	outpipes map[string]*outPipe

	prefetched    bool
	routingIDSent bool
	prefetchedID  libmsg.Message
	prefetchedMsg libmsg.Message
	moreIn        bool

	currentOut *libpip.Pipe
	moreOut    bool
}

func newRouter(ctx *Context, tid uint32) (*routerSock, error) {
	s := &routerSock{outpipes: make(map[string]*outPipe)}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypeRouter)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *routerSock) initRouter(ctx *Context, tid uint32, hooks patternHooks, opts *Options) error {
	o.outpipes = make(map[string]*outPipe)
	return o.initBase(ctx, tid, hooks, opts)
}

func (o *routerSock) xSetOption(opt Option, v interface{}) error {
	if opt == OptRouterMandatory {
		if b, k := optBool(v); k {
			o.options.RouterMandatory = b
			return nil
		}
		return ErrorInvalidArgument.Error(nil)
	}

	return errUnhandledOption
}

// makeIdentity picks the routing identity of a new pipe: the peer-announced
// one when present, a generated one otherwise. Generated identities carry a
// leading zero byte, which explicit identities must not use.
func (o *routerSock) makeIdentity(p *libpip.Pipe) []byte {
	if id := p.Identity(); len(id) > 0 {
		if _, busy := o.outpipes[string(id)]; !busy {
			return id
		}
	}

	for {
		raw, err := libuid.GenerateRandomBytes(4)
		if err != nil {
			raw = []byte{0, 0, 0, 1}
		}
		id := append([]byte{0}, raw...)
		if _, busy := o.outpipes[string(id)]; !busy {
			return id
		}
	}
}

func (o *routerSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	id := o.makeIdentity(p)
	p.SetIdentity(id)
	o.outpipes[string(id)] = &outPipe{pipe: p, active: true}
	o.fq.attach(p)
}

func (o *routerSock) xReadActivated(p *libpip.Pipe) {
	o.fq.activated(p)
}

func (o *routerSock) xWriteActivated(p *libpip.Pipe) {
	for _, op := range o.outpipes {
		if op.pipe == p {
			op.active = true
			return
		}
	}
}

func (o *routerSock) xPipeTerminated(p *libpip.Pipe) {
	for id, op := range o.outpipes {
		if op.pipe == p {
			delete(o.outpipes, id)
			break
		}
	}

	o.fq.terminated(p)

	if o.currentOut == p {
		o.currentOut = nil
	}
}

func (o *routerSock) xSend(m *libmsg.Message) error {
	if !o.moreOut {
		// The first frame is the peer identity, never put on the wire.
		if !m.HasMore() {
			return ErrorInvalidState.Error(nil)
		}

		o.moreOut = true
		o.currentOut = nil

		if op, k := o.outpipes[string(m.Data())]; k {
			o.currentOut = op.pipe
			if !op.pipe.CheckWrite() {
				op.active = false
				o.currentOut = nil
				if o.options.RouterMandatory {
					o.moreOut = false
					return ErrorWouldBlock.Error(nil)
				}
			}
		} else if o.options.RouterMandatory {
			o.moreOut = false
			return ErrorHostUnreachable.Error(nil)
		}

		m.Close()
		return nil
	}

	more := m.HasMore()

	if o.currentOut != nil {
		if !o.currentOut.Write(*m) {
			o.currentOut = nil
			m.Close()
		} else {
			*m = libmsg.Message{}
			if !more {
				o.currentOut.Flush()
			}
		}
	} else {
		// Unroutable message: drop the remaining frames silently.
		m.Close()
	}

	if !more {
		o.moreOut = false
		o.currentOut = nil
	}

	return nil
}

func (o *routerSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	if o.prefetched {
		if !o.routingIDSent {
			o.routingIDSent = true
			return o.prefetchedID.Move(), nil
		}

		o.prefetched = false
		m := o.prefetchedMsg.Move()
		o.moreIn = m.HasMore()
		return m, nil
	}

	m, p, err := o.fq.recv()
	if err != nil {
		return zero, err
	}

	if o.moreIn {
		o.moreIn = m.HasMore()
		return m, nil
	}

	// Beginning of a message: withhold the payload and hand the peer
	// identity to the application first.
	o.prefetchedMsg = m
	o.prefetched = true
	o.routingIDSent = true

	id := libmsg.NewData(append([]byte(nil), p.Identity()...))
	id.SetFlags(libmsg.More)
	return id, nil
}

func (o *routerSock) xHasIn() bool {
	if o.moreIn || o.prefetched {
		return true
	}

	m, p, err := o.fq.recv()
	if err != nil {
		return false
	}

	o.prefetchedMsg = m
	o.prefetched = true
	o.routingIDSent = false

	id := libmsg.NewData(append([]byte(nil), p.Identity()...))
	id.SetFlags(libmsg.More)
	o.prefetchedID = id

	return true
}

func (o *routerSock) xHasOut() bool {
	// A router can always absorb a send attempt: unroutable traffic is
	// dropped unless the mandatory option asks for an error.
	return true
}

// rollbackOut retracts the staged frames of an incomplete outbound message.
func (o *routerSock) rollbackOut() {
	if o.currentOut != nil {
		o.currentOut.Rollback()
		o.currentOut = nil
	}
	o.moreOut = false
}
