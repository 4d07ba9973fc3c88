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
	libpip "github/sabouaram/gomq/pipe"
)

type commandType uint8

const (
	cmdStop commandType = iota
	cmdPlug
	cmdOwn
	cmdAttach
	cmdBind
	cmdActivateRead
	cmdActivateWrite
	cmdHiccup
	cmdPipeTerm
	cmdPipeTermAck
	cmdTermReq
	cmdTerm
	cmdTermAck
	cmdReap
	cmdReaped
	cmdInprocConnected
	cmdDone
)

// commandSink is implemented by every object that can be the destination of
// a command.
type commandSink interface {
	processCommand(cmd command)
}

// command is the one-shot control message routed between objects through
// mailboxes. Exactly one of destObj and destPipe is set: pipe endpoints are
// not full objects but still receive their five control verbs on the
// goroutine owning them.
type command struct {
	destObj  commandSink
	destPipe *libpip.Pipe

	typ commandType

	// arguments, by type
	object     *own          // own, termReq
	engine     engineAPI     // attach
	pipe       *libpip.Pipe  // bind
	msgsRead   uint64        // activateWrite
	hiccupPipe interface{}   // hiccup
	linger     int           // term
	socket     *SocketBase   // reap, bind origin
}

// execute runs the command on the current goroutine, which must be the one
// owning the destination.
func (o command) execute() {
	if o.destPipe != nil {
		switch o.typ {
		case cmdActivateRead:
			o.destPipe.ProcessActivateRead()
		case cmdActivateWrite:
			o.destPipe.ProcessActivateWrite(o.msgsRead)
		case cmdHiccup:
			o.destPipe.ProcessHiccup(o.hiccupPipe)
		case cmdPipeTerm:
			o.destPipe.ProcessPipeTerm()
		case cmdPipeTermAck:
			o.destPipe.ProcessPipeTermAck()
		}
		return
	}

	if o.destObj != nil {
		o.destObj.processCommand(o)
	}
}
