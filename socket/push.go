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

// pushSock load-balances outbound messages over its peers.
type pushSock struct {
	patternBase

	lb lb
}

func newPush(ctx *Context, tid uint32) (*pushSock, error) {
	s := &pushSock{}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypePush)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *pushSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	o.lb.attach(p)
}

func (o *pushSock) xWriteActivated(p *libpip.Pipe) {
	o.lb.activated(p)
}

func (o *pushSock) xPipeTerminated(p *libpip.Pipe) {
	o.lb.terminated(p)
}

func (o *pushSock) xSend(m *libmsg.Message) error {
	return o.lb.send(m)
}

func (o *pushSock) xHasOut() bool {
	return o.lb.hasOut()
}
