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
	liberr "github.com/nabbar/golib/errors"
	libmbx "github/sabouaram/gomq/mailbox"
	libpol "github/sabouaram/gomq/poller"
)

// ioThread is one worker: a reactor bound to a mailbox. The mailbox
// descriptor is registered in the reactor, so command traffic and transport
// traffic wake the same loop.
type ioThread struct {
	object

	mailbox       libmbx.Mailbox[command]
	mailboxHandle libpol.Handle
	poller        libpol.Poller
}

func newIOThread(ctx *Context, tid uint32) (*ioThread, error) {
	p, err := libpol.New()
	if err != nil {
		return nil, err
	}

	m, err := libmbx.New[command](commandPipeGranularity)
	if err != nil {
		p.Stop()
		return nil, err
	}

	t := &ioThread{
		object:  object{ctx: ctx, tid: tid},
		mailbox: m,
		poller:  p,
	}

	t.mailboxHandle = p.AddFd(m.Fd(), t)
	p.SetPollIn(t.mailboxHandle)

	return t, nil
}

func (o *ioThread) start() {
	o.poller.Start()
}

// stop asks the worker loop to shut down once the context has terminated
// every object living on it.
func (o *ioThread) stop() {
	o.mailbox.Send(command{destObj: o, typ: cmdStop})
}

// join waits for the worker loop to exit.
func (o *ioThread) join() {
	o.poller.Stop()
	_ = o.mailbox.Close()
}

func (o *ioThread) load() int {
	return o.poller.Load()
}

// processCommand implements commandSink for the stop verb.
func (o *ioThread) processCommand(cmd command) {
	if cmd.typ == cmdStop {
		o.poller.RmFd(o.mailboxHandle)
	}
}

// InEvent drains the mailbox, executing each command on this worker.
func (o *ioThread) InEvent() {
	for {
		cmd, err := o.mailbox.Recv(0)
		if err != nil {
			if e, k := err.(liberr.Error); k && e.IsCode(libmbx.ErrorWouldBlock) {
				return
			}
			return
		}

		cmd.execute()
	}
}

// OutEvent is never fired: the mailbox descriptor is watched for input only.
func (o *ioThread) OutEvent() {}

// TimerEvent is never fired for the thread itself.
func (o *ioThread) TimerEvent(int) {}
