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

// reaper collects closed sockets: a closed socket's mailbox moves onto the
// reaper's poller so its termination protocol keeps running after the
// application dropped it. Once every socket is reaped and the context is
// terminating, the reaper reports done and exits.
type reaper struct {
	object

	mailbox       libmbx.Mailbox[command]
	mailboxHandle libpol.Handle
	poller        libpol.Poller

	sockets     int
	terminating bool
}

func newReaper(ctx *Context, tid uint32) (*reaper, error) {
	p, err := libpol.New()
	if err != nil {
		return nil, err
	}

	m, err := libmbx.New[command](commandPipeGranularity)
	if err != nil {
		p.Stop()
		return nil, err
	}

	r := &reaper{
		object:  object{ctx: ctx, tid: tid},
		mailbox: m,
		poller:  p,
	}

	r.mailboxHandle = p.AddFd(m.Fd(), r)
	p.SetPollIn(r.mailboxHandle)

	return r, nil
}

func (o *reaper) start() {
	o.poller.Start()
}

func (o *reaper) stop() {
	o.mailbox.Send(command{destObj: o, typ: cmdStop})
}

func (o *reaper) join() {
	o.poller.Stop()
	_ = o.mailbox.Close()
}

func (o *reaper) processCommand(cmd command) {
	switch cmd.typ {
	case cmdStop:
		o.terminating = true
		if o.sockets == 0 {
			o.sendDone()
			o.poller.RmFd(o.mailboxHandle)
		}

	case cmdReap:
		o.sockets++
		cmd.socket.startReaping(o.poller)

	case cmdReaped:
		o.sockets--
		if o.sockets == 0 && o.terminating {
			o.sendDone()
			o.poller.RmFd(o.mailboxHandle)
		}
	}
}

func (o *reaper) InEvent() {
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

func (o *reaper) OutEvent() {}

func (o *reaper) TimerEvent(int) {}
