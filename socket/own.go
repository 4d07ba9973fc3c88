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
	"sync/atomic"

	libpip "github/sabouaram/gomq/pipe"
)

// commandHandler is the set of command reactions an owned object may
// implement. own provides safe defaults; concrete objects shadow the verbs
// they care about and are wired in through the self pointer.
type commandHandler interface {
	commandSink

	processStop()
	processPlug()
	processAttach(e engineAPI)
	processBind(p *libpip.Pipe)
	processTerm(linger int)
	processDestroyed()
	processInprocConnected()
}

// own implements the ownership and termination discipline shared by every
// long-lived object. Objects form a tree: a parent launches children onto
// their I/O threads, and termination flows down the tree as term commands and
// back up as term acks. An object refuses to die until every command it was
// sent has been processed: senders bump sentSeqnum before posting, the
// receiving thread bumps processedSeqnum as it dequeues, and the object only
// completes termination once the two counters close and no ack is
// outstanding.
type own struct {
	object

	self commandHandler

	terminating     bool
	sentSeqnum      atomic.Uint64
	processedSeqnum uint64

	owner *own
	owned map[*own]struct{}

	termAcks int

	options *Options
}

func (o *own) initOwn(ctx *Context, tid uint32, opts *Options, self commandHandler) {
	o.ctx = ctx
	o.tid = tid
	o.options = opts
	o.self = self
	o.owned = make(map[*own]struct{})
}

// base returns the own node itself; concrete objects expose it so that
// parents can hold heterogeneous children.
func (o *own) base() *own {
	return o
}

func (o *own) incSeqnum() {
	o.sentSeqnum.Add(1)
}

func (o *own) processSeqnum() {
	o.processedSeqnum++
	o.checkTermAcks()
}

// launchChild hands obj to its I/O thread and records the ownership link on
// this object's thread.
func (o *own) launchChild(obj *own) {
	obj.owner = o
	o.sendPlug(obj, true)
	o.sendOwn(o, obj)
}

// termChild asks for the asynchronous destruction of one child.
func (o *own) termChild(obj *own) {
	o.processTermReq(obj)
}

func (o *own) processTermReq(obj *own) {
	// Granted asynchronously, so the child may race with a term of the
	// whole tree; when it does, the tree term wins.
	if o.terminating {
		return
	}

	if _, k := o.owned[obj]; !k {
		return
	}

	delete(o.owned, obj)
	o.registerTermAcks(1)
	o.sendTerm(obj, o.options.Linger)
}

func (o *own) processOwn(obj *own) {
	// The child of a dying parent is terminated straight away.
	if o.terminating {
		o.registerTermAcks(1)
		o.sendTerm(obj, 0)
		return
	}

	o.owned[obj] = struct{}{}
}

// terminate starts the shutdown of this object and its subtree.
func (o *own) terminate() {
	if o.terminating {
		return
	}

	if o.owner == nil {
		o.self.processTerm(o.options.Linger)
		return
	}

	o.sendTermReq(o.owner, o)
}

// isTerminating reports whether shutdown has started.
func (o *own) isTerminating() bool {
	return o.terminating
}

// processTerm is the default term reaction: cascade to children and wait for
// their acks. Overriding objects do their own teardown first and call this
// at the end.
func (o *own) processTerm(linger int) {
	for obj := range o.owned {
		o.registerTermAcks(1)
		o.sendTerm(obj, linger)
	}
	o.owned = make(map[*own]struct{})

	o.terminating = true
	o.checkTermAcks()
}

func (o *own) processTermAck() {
	o.unregisterTermAck()
}

func (o *own) registerTermAcks(count int) {
	o.termAcks += count
}

func (o *own) unregisterTermAck() {
	o.termAcks--
	o.checkTermAcks()
}

func (o *own) checkTermAcks() {
	if !o.terminating || o.termAcks != 0 {
		return
	}

	if o.processedSeqnum != o.sentSeqnum.Load() {
		return
	}

	// The subtree is gone and no command can be in flight towards this
	// object any more.
	if o.owner != nil {
		o.sendTermAck(o.owner)
	}

	o.self.processDestroyed()
}

// Default command reactions.

func (o *own) processStop()            {}
func (o *own) processPlug()            {}
func (o *own) processAttach(engineAPI) {}
func (o *own) processBind(*libpip.Pipe) {
}
func (o *own) processDestroyed()       {}
func (o *own) processInprocConnected() {}

// processCommand dispatches one dequeued command on the owner goroutine.
func (o *own) processCommand(cmd command) {
	switch cmd.typ {
	case cmdStop:
		o.self.processStop()

	case cmdPlug:
		o.self.processPlug()
		o.processSeqnum()

	case cmdOwn:
		o.processOwn(cmd.object)
		o.processSeqnum()

	case cmdAttach:
		o.self.processAttach(cmd.engine)
		o.processSeqnum()

	case cmdBind:
		o.self.processBind(cmd.pipe)
		o.processSeqnum()

	case cmdTermReq:
		o.processTermReq(cmd.object)

	case cmdTerm:
		o.self.processTerm(cmd.linger)

	case cmdTermAck:
		o.processTermAck()

	case cmdInprocConnected:
		o.self.processInprocConnected()
		o.processSeqnum()
	}
}
