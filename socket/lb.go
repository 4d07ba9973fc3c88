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

// lb is the load-balancing outbound scheduler: round-robin over writable
// pipes, sticky to the current pipe until the multi-frame message in
// progress is complete.
type lb struct {
	pipes   []*libpip.Pipe
	active  int
	current int
	more    bool
}

func (o *lb) indexOf(p *libpip.Pipe) int {
	for i := range o.pipes {
		if o.pipes[i] == p {
			return i
		}
	}
	return -1
}

func (o *lb) swap(a, b int) {
	o.pipes[a], o.pipes[b] = o.pipes[b], o.pipes[a]
}

func (o *lb) attach(p *libpip.Pipe) {
	o.pipes = append(o.pipes, p)
	o.activated(p)
}

func (o *lb) terminated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 {
		return
	}

	// The sticky pipe cannot die in the middle of a multi-frame send.
	if index < o.active {
		o.active--
		o.swap(index, o.active)
		if o.current == o.active {
			o.current = 0
		}
		index = o.active
	}

	o.pipes[index] = o.pipes[len(o.pipes)-1]
	o.pipes = o.pipes[:len(o.pipes)-1]
}

func (o *lb) activated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 || index < o.active {
		return
	}

	o.swap(index, o.active)
	o.active++
}

func (o *lb) hasOut() bool {
	if o.more {
		return true
	}

	for o.active > 0 {
		if o.pipes[o.current].CheckWrite() {
			return true
		}

		o.active--
		if o.current < o.active {
			o.swap(o.current, o.active)
		} else {
			o.current = 0
		}
	}

	return false
}

func (o *lb) send(m *libmsg.Message) error {
	more := m.HasMore()

	for o.active > 0 {
		if o.pipes[o.current].Write(*m) {
			*m = libmsg.Message{}
			break
		}

		// A full pipe is only ever hit on the first frame: the water
		// mark counts whole messages, so a started message always
		// completes on its sticky pipe.
		o.active--
		if o.current < o.active {
			o.swap(o.current, o.active)
		} else {
			o.current = 0
		}
	}

	if o.active == 0 {
		return ErrorWouldBlock.Error(nil)
	}

	o.more = more
	if !more {
		o.pipes[o.current].Flush()
		o.current++
		if o.current >= o.active {
			o.current = 0
		}
	}

	return nil
}
