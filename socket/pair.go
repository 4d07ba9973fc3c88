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

// pairSock talks to exactly one peer; extra pipes are refused.
type pairSock struct {
	patternBase

	pipe *libpip.Pipe
}

func newPair(ctx *Context, tid uint32) (*pairSock, error) {
	s := &pairSock{}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypePair)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *pairSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	if o.pipe == nil {
		o.pipe = p
		return
	}

	p.Terminate(false)
}

func (o *pairSock) xPipeTerminated(p *libpip.Pipe) {
	if o.pipe == p {
		o.pipe = nil
	}
}

func (o *pairSock) xSend(m *libmsg.Message) error {
	if o.pipe == nil || !o.pipe.Write(*m) {
		return ErrorWouldBlock.Error(nil)
	}

	if !m.HasMore() {
		o.pipe.Flush()
	}

	*m = libmsg.Message{}
	return nil
}

func (o *pairSock) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message

	if o.pipe == nil {
		return zero, ErrorWouldBlock.Error(nil)
	}

	m, k := o.pipe.Read()
	if !k {
		return zero, ErrorWouldBlock.Error(nil)
	}

	return m, nil
}

func (o *pairSock) xHasIn() bool {
	return o.pipe != nil && o.pipe.CheckRead()
}

func (o *pairSock) xHasOut() bool {
	return o.pipe != nil && o.pipe.CheckWrite()
}
