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

package pipe

import (
	libmsg "github/sabouaram/gomq/message"
	libque "github/sabouaram/gomq/queue"
)

type msgPipe = libque.Pipe[libmsg.Message]

func newMsgPipe() msgPipe {
	return libque.NewPipe[libmsg.Message](messagePipeGranularity)
}

type pipeState uint8

const (
	stateActive pipeState = iota
	stateDelimiterReceived
	stateWaitingForDelimiter
	stateTermAckSent
	stateTermReqSent1
	stateTermReqSent2
)

// Pipe is one endpoint of a duplex pipe. All methods, the Process calls
// included, must run on the owner goroutine; the peer reaches the Process
// calls only through the Commander.
type Pipe struct {
	in  msgPipe
	out msgPipe

	inActive  bool
	outActive bool

	// hwm bounds the outbound direction; lwm is the credit step of the
	// inbound direction.
	hwm int
	lwm int

	msgsRead      uint64
	msgsWritten   uint64
	peersMsgsRead uint64

	peer  *Pipe
	sink  Events
	cmd   Commander
	state pipeState

	// delay keeps the endpoint draining inbound traffic up to the
	// delimiter when terminating.
	delay bool

	routingID uint32
	identity  []byte

	// tid is the mailbox slot of the owner goroutine, used by the
	// Commander to route the peer's control verbs.
	tid uint32
}

func newPipe(in, out msgPipe, inHWM, outHWM int) *Pipe {
	return &Pipe{
		in:        in,
		out:       out,
		inActive:  true,
		outActive: true,
		hwm:       outHWM,
		lwm:       computeLWM(inHWM),
		state:     stateActive,
		delay:     true,
	}
}

// computeLWM derives the credit step from a high-water mark. Half the mark
// keeps the sender busy while the credit command crosses the thread
// boundary.
func computeLWM(hwm int) int {
	return (hwm + 1) / 2
}

// Peer returns the opposite endpoint.
func (o *Pipe) Peer() *Pipe {
	return o.peer
}

// SetEventSink installs the owner callbacks.
func (o *Pipe) SetEventSink(sink Events) {
	o.sink = sink
}

// SetCommander installs the cross-goroutine command router.
func (o *Pipe) SetCommander(cmd Commander) {
	o.cmd = cmd
}

// SetNoDelay makes a later Terminate drop queued inbound traffic instead of
// draining to the delimiter.
func (o *Pipe) SetNoDelay() {
	o.delay = false
}

// RoutingID returns the numeric routing id attached to the endpoint.
func (o *Pipe) RoutingID() uint32 {
	return o.routingID
}

// SetRoutingID attaches a numeric routing id to the endpoint.
func (o *Pipe) SetRoutingID(id uint32) {
	o.routingID = id
}

// Identity returns the routing identity blob attached by a router socket.
func (o *Pipe) Identity() []byte {
	return o.identity
}

// SetIdentity attaches a routing identity blob.
func (o *Pipe) SetIdentity(id []byte) {
	o.identity = id
}

// Tid returns the owner mailbox slot of the endpoint.
func (o *Pipe) Tid() uint32 {
	return o.tid
}

// SetTid assigns the endpoint to an owner mailbox slot.
func (o *Pipe) SetTid(tid uint32) {
	o.tid = tid
}

// SetHWMs replaces the water marks of the endpoint.
func (o *Pipe) SetHWMs(inHWM, outHWM int) {
	o.hwm = outHWM
	o.lwm = computeLWM(inHWM)
}

// CheckRead reports whether at least one complete message is readable.
func (o *Pipe) CheckRead() bool {
	if !o.inActive {
		return false
	}
	if o.state != stateActive && o.state != stateWaitingForDelimiter {
		return false
	}

	if !o.in.CheckRead() {
		o.inActive = false
		return false
	}

	// A delimiter parked at the head means the peer is terminating: eat it
	// and run the termination step.
	if o.in.Probe(func(m libmsg.Message) bool { return m.IsDelimiter() }) {
		if m, k := o.in.Read(); k {
			m.Close()
		}
		o.processDelimiter()
		return false
	}

	return true
}

// Read pops the next frame.
func (o *Pipe) Read() (libmsg.Message, bool) {
	var zero libmsg.Message

	if !o.inActive {
		return zero, false
	}
	if o.state != stateActive && o.state != stateWaitingForDelimiter {
		return zero, false
	}

	for {
		m, k := o.in.Read()
		if !k {
			o.inActive = false
			return zero, false
		}

		if m.IsCredential() {
			m.Close()
			continue
		}

		if m.IsDelimiter() {
			o.processDelimiter()
			return zero, false
		}

		if !m.HasMore() {
			o.msgsRead++
			if o.lwm > 0 && o.msgsRead%uint64(o.lwm) == 0 {
				o.cmd.ActivateWrite(o.peer, o.msgsRead)
			}
		}

		return m, true
	}
}

// CheckWrite reports whether a message can be written without breaching the
// high-water mark.
func (o *Pipe) CheckWrite() bool {
	if !o.outActive || o.state != stateActive {
		return false
	}

	if o.hwm > 0 && o.msgsWritten-o.peersMsgsRead == uint64(o.hwm) {
		o.outActive = false
		return false
	}

	return true
}

// Write stores one frame. Frames of one logical message are staged together
// and published by Flush.
func (o *Pipe) Write(m libmsg.Message) bool {
	if !o.CheckWrite() {
		return false
	}

	more := m.HasMore()
	o.out.Write(m, more)

	if !more {
		o.msgsWritten++
	}

	return true
}

// Rollback retracts all unflushed frames.
func (o *Pipe) Rollback() {
	if o.out == nil {
		return
	}

	for {
		m, k := o.out.Unwrite()
		if !k {
			return
		}
		if !m.HasMore() {
			o.msgsWritten--
		}
		m.Close()
	}
}

// Flush publishes the staged frames, waking the peer when it is parked.
func (o *Pipe) Flush() {
	if o.state == stateTermAckSent {
		return
	}

	if o.out != nil && !o.out.Flush() {
		o.cmd.ActivateRead(o.peer)
	}
}

// ProcessActivateRead handles the peer's wake-up on the inbound direction.
// It must run on the owner goroutine.
func (o *Pipe) ProcessActivateRead() {
	if o.inActive || (o.state != stateActive && o.state != stateWaitingForDelimiter) {
		return
	}

	o.inActive = true
	if o.sink != nil {
		o.sink.ReadActivated(o)
	}
}

// ProcessActivateWrite handles a credit update from the peer. It must run on
// the owner goroutine.
func (o *Pipe) ProcessActivateWrite(msgsRead uint64) {
	o.peersMsgsRead = msgsRead

	if !o.outActive && o.state == stateActive {
		o.outActive = true
		if o.sink != nil {
			o.sink.WriteActivated(o)
		}
	}
}

// Hiccup rebuilds the inbound pipe after a connection break and hands the
// fresh one to the peer, which reclaims the abandoned one. It must run on
// the owner goroutine.
func (o *Pipe) Hiccup() {
	if o.state != stateActive {
		return
	}

	o.in = newMsgPipe()
	o.inActive = true

	o.cmd.Hiccup(o.peer, o.in)
}

// ProcessHiccup swaps the outbound pipe for the fresh one built by the peer,
// reclaiming whatever the peer abandoned. It must run on the owner
// goroutine.
func (o *Pipe) ProcessHiccup(pipe interface{}) {
	// Drain the abandoned pipe: the peer no longer reads it.
	o.out.Flush()
	for {
		m, k := o.out.Read()
		if !k {
			break
		}
		if !m.HasMore() {
			o.msgsWritten--
		}
		m.Close()
	}

	if np, k := pipe.(msgPipe); k {
		o.out = np
	}

	if o.state == stateActive && o.sink != nil {
		o.sink.Hiccuped(o)
	}
}

// Terminate starts the two-phase shutdown of the endpoint. With delay the
// inbound direction keeps draining until the peer's delimiter arrives.
func (o *Pipe) Terminate(delay bool) {
	o.delay = delay

	switch o.state {
	case stateTermReqSent1, stateTermReqSent2, stateTermAckSent:
		return

	case stateActive:
		o.cmd.PipeTerm(o.peer)
		o.state = stateTermReqSent1

	case stateWaitingForDelimiter:
		if !o.delay {
			o.Rollback()
			o.out = nil
			o.cmd.PipeTermAck(o.peer)
			o.state = stateTermAckSent
		}

	case stateDelimiterReceived:
		o.cmd.PipeTerm(o.peer)
		o.state = stateTermReqSent1
	}

	o.outActive = false

	if o.out != nil {
		// Push the delimiter so the peer can tell drained from dropped.
		o.Rollback()
		o.out.Flush()
		o.out.Write(libmsg.NewDelimiter(), false)
		o.Flush()
	}
}

// ProcessPipeTerm handles the peer's termination request. It must run on the
// owner goroutine.
func (o *Pipe) ProcessPipeTerm() {
	switch o.state {
	case stateActive:
		if o.delay {
			o.state = stateWaitingForDelimiter
			return
		}
		o.state = stateTermAckSent
		o.out = nil
		o.cmd.PipeTermAck(o.peer)

	case stateDelimiterReceived:
		o.state = stateTermAckSent
		o.out = nil
		o.cmd.PipeTermAck(o.peer)

	case stateTermReqSent1:
		o.state = stateTermReqSent2
		o.out = nil
		o.cmd.PipeTermAck(o.peer)
	}
}

// ProcessPipeTermAck finishes the termination handshake and releases queued
// inbound traffic. It must run on the owner goroutine.
func (o *Pipe) ProcessPipeTermAck() {
	if o.sink != nil {
		o.sink.Terminated(o)
	}

	if o.state == stateTermReqSent1 {
		o.out = nil
		o.cmd.PipeTermAck(o.peer)
	}

	for {
		m, k := o.in.Read()
		if !k {
			break
		}
		m.Close()
	}

	o.in = nil
}

func (o *Pipe) processDelimiter() {
	switch o.state {
	case stateActive:
		o.state = stateDelimiterReceived
	case stateWaitingForDelimiter:
		o.Rollback()
		o.out = nil
		o.cmd.PipeTermAck(o.peer)
		o.state = stateTermAckSent
	}
}
