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

// reqSock enforces the strict send/receive alternation of the request side
// and manages the empty delimiter framing the reply envelope.
type reqSock struct {
	dealerSock

	receivingReply bool
	messageBegins  bool
}

func newReq(ctx *Context, tid uint32) (*reqSock, error) {
	s := &reqSock{messageBegins: true}
	if err := s.initDealer(ctx, tid, s, defaultOptions(TypeReq)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *reqSock) xSend(m *libmsg.Message) error {
	// A request cannot start while its reply is pending.
	if o.receivingReply {
		return ErrorInvalidState.Error(nil)
	}

	if o.messageBegins {
		bottom := libmsg.NewData(nil)
		bottom.SetFlags(libmsg.More)
		if err := o.dealerSock.xSend(&bottom); err != nil {
			return err
		}
		o.messageBegins = false
	}

	more := m.HasMore()

	if err := o.dealerSock.xSend(m); err != nil {
		return err
	}

	if !more {
		o.receivingReply = true
		o.messageBegins = true
	}

	return nil
}

func (o *reqSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	if !o.receivingReply {
		return zero, ErrorInvalidState.Error(nil)
	}

	if o.messageBegins {
		// Strip the envelope delimiter; a malformed reply is dropped
		// whole.
		m, err := o.dealerSock.xRecv()
		if err != nil {
			return zero, err
		}

		if m.Size() != 0 || !m.HasMore() {
			for m.HasMore() {
				m.Close()
				if m, err = o.dealerSock.xRecv(); err != nil {
					return zero, err
				}
			}
			m.Close()
			return zero, ErrorWouldBlock.Error(nil)
		}

		m.Close()
		o.messageBegins = false
	}

	m, err := o.dealerSock.xRecv()
	if err != nil {
		return zero, err
	}

	if !m.HasMore() {
		o.receivingReply = false
		o.messageBegins = true
	}

	return m, nil
}

func (o *reqSock) xHasIn() bool {
	if !o.receivingReply {
		return false
	}
	return o.dealerSock.xHasIn()
}

func (o *reqSock) xHasOut() bool {
	if o.receivingReply {
		return false
	}
	return o.dealerSock.xHasOut()
}
