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
	libmsg "github/sabouaram/gomq/message"
	libpip "github/sabouaram/gomq/pipe"
)

// xsubSock is the subscribe side with the subscription surface exposed:
// subscription messages sent by the application travel upstream to every
// publisher, and inbound traffic is filtered against the local trie.
type xsubSock struct {
	patternBase

	fq   fq
	dist dist

	subscriptions *trie

	hasMessage bool
	message    libmsg.Message
	moreRecv   bool
}

func newXSub(ctx *Context, tid uint32) (*xsubSock, error) {
	s := &xsubSock{subscriptions: newTrie()}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypeXSub)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *xsubSock) initXSub(ctx *Context, tid uint32, hooks patternHooks, opts *Options) error {
	o.subscriptions = newTrie()
	return o.initBase(ctx, tid, hooks, opts)
}

func (o *xsubSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	o.fq.attach(p)
	o.dist.attach(p)

	// Replay the standing subscriptions to the new publisher.
	o.subscriptions.apply(func(prefix []byte) {
		body := append([]byte{1}, prefix...)
		m := libmsg.NewData(body)
		if p.Write(m) {
			p.Flush()
		} else {
			m.Close()
		}
	})
}

func (o *xsubSock) xReadActivated(p *libpip.Pipe) {
	o.fq.activated(p)
}

func (o *xsubSock) xWriteActivated(p *libpip.Pipe) {
	o.dist.activated(p)
}

func (o *xsubSock) xHiccuped(p *libpip.Pipe) {
	// The reconnected pipe lost the upstream subscription state.
	o.subscriptions.apply(func(prefix []byte) {
		body := append([]byte{1}, prefix...)
		m := libmsg.NewData(body)
		if p.Write(m) {
			p.Flush()
		} else {
			m.Close()
		}
	})
}

func (o *xsubSock) xPipeTerminated(p *libpip.Pipe) {
	o.fq.terminated(p)
	o.dist.terminated(p)
}

func (o *xsubSock) xSend(m *libmsg.Message) error {
	data := m.Data()

	if len(data) > 0 && data[0] == 1 {
		// Only the first subscription per prefix travels upstream.
		if o.subscriptions.add(data[1:]) {
			return o.dist.sendToAll(m)
		}
		m.Close()
		return nil
	}

	if len(data) > 0 && data[0] == 0 {
		if o.subscriptions.remove(data[1:]) {
			return o.dist.sendToAll(m)
		}
		m.Close()
		return nil
	}

	// Upstream-bound user traffic is forwarded as-is; the publish side
	// ignores what it does not understand.
	return o.dist.sendToAll(m)
}

func (o *xsubSock) xHasOut() bool {
	return true
}

func (o *xsubSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	// A message prefetched by the readiness probe goes out first.
	if o.hasMessage {
		o.hasMessage = false
		m := o.message.Move()
		o.moreRecv = m.HasMore()
		return m, nil
	}

	for {
		m, _, err := o.fq.recv()
		if err != nil {
			return zero, err
		}

		// Inside a multi-frame message every frame passes.
		if o.moreRecv {
			o.moreRecv = m.HasMore()
			return m, nil
		}

		if o.match(&m) {
			o.moreRecv = m.HasMore()
			return m, nil
		}

		// Skip the unmatched message whole.
		for m.HasMore() {
			m.Close()
			if m, _, err = o.fq.recv(); err != nil {
				return zero, err
			}
		}
		m.Close()
	}
}

func (o *xsubSock) xHasIn() bool {
	if o.moreRecv || o.hasMessage {
		return true
	}

	for {
		m, _, err := o.fq.recv()
		if err != nil {
			return false
		}

		if o.match(&m) {
			o.hasMessage = true
			o.message = m
			return true
		}

		for m.HasMore() {
			m.Close()
			if m, _, err = o.fq.recv(); err != nil {
				return false
			}
		}
		m.Close()
	}
}

func (o *xsubSock) match(m *libmsg.Message) bool {
	return o.subscriptions.check(m.Data())
}
