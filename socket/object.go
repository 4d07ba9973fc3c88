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
	liblog "github.com/nabbar/golib/logger"
	libpip "github/sabouaram/gomq/pipe"
)

// object is the base of every distributed part of the core: it knows its
// owning context and the thread slot whose mailbox receives its commands.
type object struct {
	ctx *Context
	tid uint32
}

func (o *object) getTid() uint32 {
	return o.tid
}

func (o *object) setTid(tid uint32) {
	o.tid = tid
}

func (o *object) logger() liblog.Logger {
	return o.ctx.logger()
}

// chooseIOThread returns the least-loaded I/O thread of the context.
func (o *object) chooseIOThread() *ioThread {
	return o.ctx.chooseIOThread()
}

func (o *object) sendPlug(dest *own, incSeqnum bool) {
	if incSeqnum {
		dest.incSeqnum()
	}
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdPlug})
}

func (o *object) sendOwn(dest *own, obj *own) {
	dest.incSeqnum()
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdOwn, object: obj})
}

func (o *object) sendAttach(dest *session, engine engineAPI, incSeqnum bool) {
	if incSeqnum {
		dest.incSeqnum()
	}
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdAttach, engine: engine})
}

func (o *object) sendBind(dest *SocketBase, p *libpip.Pipe, incSeqnum bool) {
	if incSeqnum {
		dest.incSeqnum()
	}
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdBind, pipe: p})
}

func (o *object) sendTermReq(dest *own, obj *own) {
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdTermReq, object: obj})
}

func (o *object) sendTerm(dest *own, linger int) {
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdTerm, linger: linger})
}

func (o *object) sendTermAck(dest *own) {
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdTermAck})
}

func (o *object) sendReap(s *SocketBase) {
	o.ctx.sendCommand(tidReaper, command{destObj: o.ctx.reaper, typ: cmdReap, socket: s})
}

func (o *object) sendReaped() {
	o.ctx.sendCommand(tidReaper, command{destObj: o.ctx.reaper, typ: cmdReaped})
}

func (o *object) sendInprocConnected(dest *SocketBase) {
	dest.incSeqnum()
	o.ctx.sendCommand(dest.getTid(), command{destObj: dest.self, typ: cmdInprocConnected})
}

func (o *object) sendDone() {
	o.ctx.termMailbox.Send(command{typ: cmdDone})
}

// pipeCommander routes pipe endpoint verbs through the destination owner's
// mailbox. One instance per context serves every pipe.
type pipeCommander struct {
	ctx *Context
}

func (o pipeCommander) ActivateRead(dest *libpip.Pipe) {
	o.ctx.sendCommand(dest.Tid(), command{destPipe: dest, typ: cmdActivateRead})
}

func (o pipeCommander) ActivateWrite(dest *libpip.Pipe, msgsRead uint64) {
	o.ctx.sendCommand(dest.Tid(), command{destPipe: dest, typ: cmdActivateWrite, msgsRead: msgsRead})
}

func (o pipeCommander) Hiccup(dest *libpip.Pipe, pipe interface{}) {
	o.ctx.sendCommand(dest.Tid(), command{destPipe: dest, typ: cmdHiccup, hiccupPipe: pipe})
}

func (o pipeCommander) PipeTerm(dest *libpip.Pipe) {
	o.ctx.sendCommand(dest.Tid(), command{destPipe: dest, typ: cmdPipeTerm})
}

func (o pipeCommander) PipeTermAck(dest *libpip.Pipe) {
	o.ctx.sendCommand(dest.Tid(), command{destPipe: dest, typ: cmdPipeTermAck})
}
