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

// xpubSock matches outbound messages against the subscription trie fed by
// its peers. Subscription traffic surfaces to the application as messages.
type xpubSock struct {
	patternBase

	subscriptions *mtrie
	dist          dist

	pending [][]byte
}

func newXPub(ctx *Context, tid uint32) (*xpubSock, error) {
	s := &xpubSock{subscriptions: newMtrie()}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypeXPub)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *xpubSock) initXPub(ctx *Context, tid uint32, hooks patternHooks, opts *Options) error {
	o.subscriptions = newMtrie()
	return o.initBase(ctx, tid, hooks, opts)
}

func (o *xpubSock) xSetOption(opt Option, v interface{}) error {
	if opt == OptXPubVerbose {
		if b, k := optBool(v); k {
			o.options.XPubVerbose = b
			return nil
		}
		return ErrorInvalidArgument.Error(nil)
	}

	return errUnhandledOption
}

func (o *xpubSock) xAttachPipe(p *libpip.Pipe, subscribeToAll, _ bool) {
	o.dist.attach(p)

	// Locally initiated pub-side pipes deliver everything without
	// waiting for an upstream subscription.
	if subscribeToAll {
		o.subscriptions.add(nil, p)
	}

	o.xReadActivated(p)
}

func (o *xpubSock) xReadActivated(p *libpip.Pipe) {
	// Subscription traffic is consumed here, on the socket thread, the
	// moment the pipe wakes up.
	for {
		m, k := p.Read()
		if !k {
			return
		}

		data := m.Data()
		if len(data) == 0 {
			m.Close()
			continue
		}

		var unique bool
		switch data[0] {
		case 1:
			unique = o.subscriptions.add(data[1:], p)
		case 0:
			unique = o.subscriptions.remove(data[1:], p)
		default:
			m.Close()
			continue
		}

		if unique || o.options.XPubVerbose {
			o.pending = append(o.pending, append([]byte(nil), data...))
		}

		m.Close()
	}
}

func (o *xpubSock) xWriteActivated(p *libpip.Pipe) {
	o.dist.activated(p)
}

func (o *xpubSock) xPipeTerminated(p *libpip.Pipe) {
	// Prefixes losing their last subscriber surface as synthesised
	// unsubscriptions.
	o.subscriptions.removePipe(p, func(prefix []byte) {
		body := append([]byte{0}, prefix...)
		o.pending = append(o.pending, body)
	})

	o.dist.terminated(p)
}

func (o *xpubSock) xSend(m *libmsg.Message) error {
	if !o.dist.more {
		o.subscriptions.match(m.Data(), func(p *libpip.Pipe) {
			o.dist.match(p)
		})
	}

	msgMore := m.HasMore()
	err := o.dist.sendToMatching(m)
	if err == nil && !msgMore {
		o.dist.unmatch()
	}
	*m = libmsg.Message{}
	return err
}

func (o *xpubSock) xHasOut() bool {
	return o.dist.hasOut()
}

func (o *xpubSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	if len(o.pending) == 0 {
		return zero, ErrorWouldBlock.Error(nil)
	}

	body := o.pending[0]
	o.pending = o.pending[1:]

	return libmsg.NewData(body), nil
}

func (o *xpubSock) xHasIn() bool {
	return len(o.pending) > 0
}
