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

// fq is the fair-queueing inbound scheduler: a round-robin over the active
// pipes that never splits a multi-frame message. Pipes found dry move out of
// the active region until their read side reactivates them.
type fq struct {
	pipes   []*libpip.Pipe
	active  int
	current int
	more    bool
}

func (o *fq) indexOf(p *libpip.Pipe) int {
	for i := range o.pipes {
		if o.pipes[i] == p {
			return i
		}
	}
	return -1
}

func (o *fq) swap(a, b int) {
	o.pipes[a], o.pipes[b] = o.pipes[b], o.pipes[a]
}

func (o *fq) attach(p *libpip.Pipe) {
	o.pipes = append(o.pipes, p)
	o.swap(len(o.pipes)-1, o.active)
	o.active++
}

func (o *fq) terminated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 {
		return
	}

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

func (o *fq) activated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 || index < o.active {
		return
	}

	o.swap(index, o.active)
	o.active++
}

func (o *fq) hasIn() bool {
	// Inside a multi-frame message the rest is guaranteed readable.
	if o.more {
		return true
	}

	for o.active > 0 {
		if o.pipes[o.current].CheckRead() {
			return true
		}

		o.active--
		o.swap(o.current, o.active)
		if o.current == o.active {
			o.current = 0
		}
	}

	return false
}

func (o *fq) recv() (libmsg.Message, *libpip.Pipe, error) {
	for o.active > 0 {
		m, k := o.pipes[o.current].Read()
		if k {
			p := o.pipes[o.current]
			o.more = m.HasMore()
			if !o.more {
				o.current++
				if o.current >= o.active {
					o.current = 0
				}
			}
			return m, p, nil
		}

		o.active--
		o.swap(o.current, o.active)
		if o.current == o.active {
			o.current = 0
		}
	}

	var zero libmsg.Message
	return zero, nil, ErrorWouldBlock.Error(nil)
}
