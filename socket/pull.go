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

// pullSock fair-queues inbound messages from its peers.
type pullSock struct {
	patternBase

	fq fq
}

func newPull(ctx *Context, tid uint32) (*pullSock, error) {
	s := &pullSock{}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypePull)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *pullSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	o.fq.attach(p)
}

func (o *pullSock) xReadActivated(p *libpip.Pipe) {
	o.fq.activated(p)
}

func (o *pullSock) xPipeTerminated(p *libpip.Pipe) {
	o.fq.terminated(p)
}

func (o *pullSock) xRecv() (libmsg.Message, error) {
	m, _, err := o.fq.recv()
	return m, err
}

func (o *pullSock) xHasIn() bool {
	return o.fq.hasIn()
}
