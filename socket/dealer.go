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

// dealerSock load-balances outbound and fair-queues inbound messages.
type dealerSock struct {
	patternBase

	fq fq
	lb lb
}

func newDealer(ctx *Context, tid uint32) (*dealerSock, error) {
	s := &dealerSock{}
	if err := s.initBase(ctx, tid, s, defaultOptions(TypeDealer)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *dealerSock) initDealer(ctx *Context, tid uint32, hooks patternHooks, opts *Options) error {
	return o.initBase(ctx, tid, hooks, opts)
}

func (o *dealerSock) xAttachPipe(p *libpip.Pipe, _, _ bool) {
	o.fq.attach(p)
	o.lb.attach(p)
}

func (o *dealerSock) xReadActivated(p *libpip.Pipe) {
	o.fq.activated(p)
}

func (o *dealerSock) xWriteActivated(p *libpip.Pipe) {
	o.lb.activated(p)
}

func (o *dealerSock) xPipeTerminated(p *libpip.Pipe) {
	o.fq.terminated(p)
	o.lb.terminated(p)
}

func (o *dealerSock) xSend(m *libmsg.Message) error {
	return o.lb.send(m)
}

func (o *dealerSock) xRecv() (libmsg.Message, error) {
	m, _, err := o.fq.recv()
	return m, err
}

func (o *dealerSock) xHasIn() bool {
	return o.fq.hasIn()
}

func (o *dealerSock) xHasOut() bool {
	return o.lb.hasOut()
}
