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

// Package pipe provides the duplex, flow-controlled message channel between
// two objects living on different goroutines.
//
// A pair of endpoints shares two lock-free SPSC pipes, one per direction.
// Each endpoint is owned by exactly one goroutine; the endpoints talk to each
// other exclusively through commands routed by the Commander the owner
// installs, so the only word the two goroutines contend on is the handshake
// pointer inside each underlying pipe.
//
// Flow control is credit-based: an endpoint may write while
// msgsWritten-peersMsgsRead stays below its outbound high-water mark, and a
// reader returns credit by sending its msgsRead counter once per low-water
// mark worth of messages. Termination is a two-phase protocol exchanging a
// synthetic delimiter frame so queued traffic can drain cleanly.
package pipe

// Events is implemented by the owner of a pipe endpoint to learn about state
// transitions. All callbacks fire on the owner's goroutine.
type Events interface {
	ReadActivated(p *Pipe)
	WriteActivated(p *Pipe)
	Hiccuped(p *Pipe)
	Terminated(p *Pipe)
}

// Commander routes endpoint-to-endpoint control traffic through the
// destination owner's mailbox. The socket layer installs one implementation
// per process; dest's matching Process method must be invoked on dest's
// owner goroutine.
type Commander interface {
	ActivateRead(dest *Pipe)
	ActivateWrite(dest *Pipe, msgsRead uint64)
	Hiccup(dest *Pipe, pipe interface{})
	PipeTerm(dest *Pipe)
	PipeTermAck(dest *Pipe)
}

// granularity of the underlying message pipes.
const messagePipeGranularity = 256

// NewPair returns the two endpoints of a duplex pipe. The first endpoint
// reads at most hwm0in queued messages and writes against a hwm0out limit;
// the second endpoint sees the mirrored limits.
func NewPair(hwm0in, hwm0out int) (*Pipe, *Pipe) {
	up01 := newMsgPipe()
	up10 := newMsgPipe()

	p0 := newPipe(up10, up01, hwm0in, hwm0out)
	p1 := newPipe(up01, up10, hwm0out, hwm0in)

	p0.peer = p1
	p1.peer = p0

	return p0, p1
}
