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
)

// repSock binds the reply side: the request envelope read by the router is
// staged straight back onto the reply pipe, so the application only sees and
// sends payload frames.
type repSock struct {
	routerSock

	sendingReply  bool
	requestBegins bool
}

func newRep(ctx *Context, tid uint32) (*repSock, error) {
	s := &repSock{requestBegins: true}
	if err := s.initRouter(ctx, tid, s, defaultOptions(TypeRep)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *repSock) xSend(m *libmsg.Message) error {
	if !o.sendingReply {
		return ErrorInvalidState.Error(nil)
	}

	more := m.HasMore()

	if err := o.routerSock.xSend(m); err != nil {
		return err
	}

	if !more {
		o.sendingReply = false
	}

	return nil
}

func (o *repSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	if o.sendingReply {
		return zero, ErrorInvalidState.Error(nil)
	}

	if o.requestBegins {
		// Copy the envelope, delimiter included, onto the reply pipe
		// as staged frames.
		for {
			m, err := o.routerSock.xRecv()
			if err != nil {
				return zero, err
			}

			if m.HasMore() {
				bottom := m.Size() == 0
				if err = o.routerSock.xSend(&m); err != nil {
					return zero, err
				}
				if bottom {
					break
				}
				continue
			}

			// Malformed request: no delimiter before the payload.
			m.Close()
			o.routerSock.rollbackOut()
			return zero, ErrorWouldBlock.Error(nil)
		}

		o.requestBegins = false
	}

	m, err := o.routerSock.xRecv()
	if err != nil {
		return zero, err
	}

	if !m.HasMore() {
		o.sendingReply = true
		o.requestBegins = true
	}

	return m, nil
}

func (o *repSock) xHasIn() bool {
	if o.sendingReply {
		return false
	}
	return o.routerSock.xHasIn()
}

func (o *repSock) xHasOut() bool {
	if !o.sendingReply {
		return false
	}
	return o.routerSock.xHasOut()
}
