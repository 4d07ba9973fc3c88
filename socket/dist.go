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

// dist fans one message out to a set of pipes. The pipe list is split into
// four regions: [0..matching) receives the message in progress,
// [matching..active) is writable but not matched, [active..eligible) is
// eligible but blocked by a multi-frame message in flight, and the tail is
// passive until reactivated.
type dist struct {
	pipes    []*libpip.Pipe
	matching int
	active   int
	eligible int
	more     bool
}

func (o *dist) indexOf(p *libpip.Pipe) int {
	for i := range o.pipes {
		if o.pipes[i] == p {
			return i
		}
	}
	return -1
}

func (o *dist) swap(a, b int) {
	o.pipes[a], o.pipes[b] = o.pipes[b], o.pipes[a]
}

func (o *dist) attach(p *libpip.Pipe) {
	if o.more {
		o.pipes = append(o.pipes, p)
		o.swap(len(o.pipes)-1, o.eligible)
		o.eligible++
	} else {
		o.pipes = append(o.pipes, p)
		o.swap(len(o.pipes)-1, o.active)
		o.active++
		o.eligible++
	}
}

// match moves one pipe into the matching region.
func (o *dist) match(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 || index < o.matching || index >= o.eligible {
		return
	}

	o.swap(index, o.matching)
	o.matching++
}

// unmatch clears the matching region.
func (o *dist) unmatch() {
	o.matching = 0
}

func (o *dist) terminated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 {
		return
	}

	if index < o.matching {
		o.swap(index, o.matching-1)
		index = o.matching - 1
		o.matching--
	}
	if index < o.active {
		o.swap(index, o.active-1)
		index = o.active - 1
		o.active--
	}
	if index < o.eligible {
		o.swap(index, o.eligible-1)
		index = o.eligible - 1
		o.eligible--
	}

	o.pipes[index] = o.pipes[len(o.pipes)-1]
	o.pipes = o.pipes[:len(o.pipes)-1]
}

func (o *dist) activated(p *libpip.Pipe) {
	index := o.indexOf(p)
	if index < 0 || index < o.eligible {
		return
	}

	o.swap(index, o.eligible)
	o.eligible++

	// A multi-frame message in flight keeps the pipe out of the run; it
	// joins once the run completes.
	if !o.more {
		o.swap(o.eligible-1, o.active)
		o.active++
	}
}

// sendToAll distributes the message to every active pipe.
func (o *dist) sendToAll(m *libmsg.Message) error {
	o.matching = o.active
	return o.sendToMatching(m)
}

// sendToMatching distributes the message to the matched pipes.
func (o *dist) sendToMatching(m *libmsg.Message) error {
	msgMore := m.HasMore()

	o.distribute(m)

	if !msgMore {
		o.active = o.eligible
	}
	o.more = msgMore

	return nil
}

func (o *dist) distribute(m *libmsg.Message) {
	if o.matching == 0 {
		m.Close()
		return
	}

	for i := 0; i < o.matching; {
		if o.write(o.pipes[i], m) {
			i++
		}
	}

	m.Close()
}

func (o *dist) write(p *libpip.Pipe, m *libmsg.Message) bool {
	c := m.Copy()

	if !p.Write(c) {
		c.Close()

		// The pipe is full: pull it out of the run and out of the
		// writable regions.
		index := o.indexOf(p)
		o.swap(index, o.matching-1)
		o.matching--
		o.swap(o.matching, o.active-1)
		o.active--
		o.swap(o.active, o.eligible-1)
		o.eligible--

		return false
	}

	if !m.HasMore() {
		p.Flush()
	}

	return true
}

func (o *dist) hasOut() bool {
	return true
}
