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

package pipe_test

import (
	libmsg "github/sabouaram/gomq/message"
	libpip "github/sabouaram/gomq/pipe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// queueCommander queues endpoint verbs the way mailboxes do and executes
// them when the test drains it, so command ordering matches the real
// system without threads.
type queueCommander struct {
	queue []func()
}

func (o *queueCommander) ActivateRead(dest *libpip.Pipe) {
	o.queue = append(o.queue, func() { dest.ProcessActivateRead() })
}

func (o *queueCommander) ActivateWrite(dest *libpip.Pipe, msgsRead uint64) {
	o.queue = append(o.queue, func() { dest.ProcessActivateWrite(msgsRead) })
}

func (o *queueCommander) Hiccup(dest *libpip.Pipe, pipe interface{}) {
	o.queue = append(o.queue, func() { dest.ProcessHiccup(pipe) })
}

func (o *queueCommander) PipeTerm(dest *libpip.Pipe) {
	o.queue = append(o.queue, func() { dest.ProcessPipeTerm() })
}

func (o *queueCommander) PipeTermAck(dest *libpip.Pipe) {
	o.queue = append(o.queue, func() { dest.ProcessPipeTermAck() })
}

func (o *queueCommander) drain() {
	for len(o.queue) > 0 {
		next := o.queue[0]
		o.queue = o.queue[1:]
		next()
	}
}

// eventRec records sink callbacks.
type eventRec struct {
	readActivated  int
	writeActivated int
	hiccuped       int
	terminated     int
}

func (o *eventRec) ReadActivated(*libpip.Pipe)  { o.readActivated++ }
func (o *eventRec) WriteActivated(*libpip.Pipe) { o.writeActivated++ }
func (o *eventRec) Hiccuped(*libpip.Pipe)       { o.hiccuped++ }
func (o *eventRec) Terminated(*libpip.Pipe)     { o.terminated++ }

func newPairQ(hwmIn, hwmOut int) (*libpip.Pipe, *libpip.Pipe, *eventRec, *eventRec, *queueCommander) {
	p0, p1 := libpip.NewPair(hwmIn, hwmOut)

	e0 := &eventRec{}
	e1 := &eventRec{}
	cq := &queueCommander{}

	p0.SetEventSink(e0)
	p1.SetEventSink(e1)
	p0.SetCommander(cq)
	p1.SetCommander(cq)

	return p0, p1, e0, e1, cq
}

func msg(s string) libmsg.Message {
	return libmsg.NewString(s)
}

var _ = Describe("Pipe", func() {
	Context("transfer", func() {
		It("should move messages end to end in order", func() {
			p0, p1, _, _, cq := newPairQ(100, 100)

			for _, s := range []string{"a", "b", "c"} {
				Expect(p0.Write(msg(s))).To(BeTrue())
			}
			p0.Flush()
			cq.drain()

			for _, s := range []string{"a", "b", "c"} {
				m, k := p1.Read()
				Expect(k).To(BeTrue())
				Expect(string(m.Data())).To(Equal(s))
			}

			_, k := p1.Read()
			Expect(k).To(BeFalse())
		})

		It("should wake a parked reader through the commander", func() {
			p0, p1, _, e1, cq := newPairQ(100, 100)

			// The reader drains and parks.
			Expect(p1.CheckRead()).To(BeFalse())

			Expect(p0.Write(msg("wake"))).To(BeTrue())
			p0.Flush()
			cq.drain()

			Expect(e1.readActivated).To(Equal(1))

			m, k := p1.Read()
			Expect(k).To(BeTrue())
			Expect(string(m.Data())).To(Equal("wake"))
		})

		It("should preserve the more run across the hop", func() {
			p0, p1, _, _, cq := newPairQ(100, 100)

			m1 := msg("part1")
			m1.SetFlags(libmsg.More)
			m2 := msg("part2")

			Expect(p0.Write(m1)).To(BeTrue())
			Expect(p0.Write(m2)).To(BeTrue())
			p0.Flush()
			cq.drain()

			r1, k := p1.Read()
			Expect(k).To(BeTrue())
			Expect(r1.HasMore()).To(BeTrue())

			r2, k := p1.Read()
			Expect(k).To(BeTrue())
			Expect(r2.HasMore()).To(BeFalse())
		})
	})

	Context("high-water mark", func() {
		It("should refuse the write one past the mark", func() {
			p0, _, _, _, _ := newPairQ(10, 10)

			for i := 0; i < 10; i++ {
				Expect(p0.Write(msg("m"))).To(BeTrue())
			}
			p0.Flush()

			Expect(p0.CheckWrite()).To(BeFalse())
			Expect(p0.Write(msg("over"))).To(BeFalse())
		})

		It("should reopen after the reader drains to the low mark", func() {
			p0, p1, e0, _, cq := newPairQ(10, 10)

			for i := 0; i < 10; i++ {
				Expect(p0.Write(msg("m"))).To(BeTrue())
			}
			p0.Flush()
			Expect(p0.CheckWrite()).To(BeFalse())

			// Credit returns once a low-water mark worth was read.
			for i := 0; i < 5; i++ {
				_, k := p1.Read()
				Expect(k).To(BeTrue())
			}
			cq.drain()

			Expect(e0.writeActivated).To(Equal(1))
			for i := 0; i < 5; i++ {
				Expect(p0.Write(msg("m"))).To(BeTrue())
			}
			Expect(p0.CheckWrite()).To(BeFalse())
		})

		It("should not count frames of one message separately", func() {
			p0, _, _, _, _ := newPairQ(2, 2)

			m1 := msg("a")
			m1.SetFlags(libmsg.More)
			Expect(p0.Write(m1)).To(BeTrue())

			m2 := msg("b")
			m2.SetFlags(libmsg.More)
			Expect(p0.Write(m2)).To(BeTrue())

			m3 := msg("c")
			Expect(p0.Write(m3)).To(BeTrue())

			Expect(p0.CheckWrite()).To(BeTrue())
		})
	})

	Context("rollback", func() {
		It("should retract unflushed frames", func() {
			p0, p1, _, _, cq := newPairQ(10, 10)

			m := msg("dropme")
			m.SetFlags(libmsg.More)
			Expect(p0.Write(m)).To(BeTrue())

			p0.Rollback()
			p0.Flush()
			cq.drain()

			Expect(p1.CheckRead()).To(BeFalse())
		})
	})

	Context("termination", func() {
		It("should complete the two-phase shutdown", func() {
			p0, p1, e0, e1, cq := newPairQ(10, 10)

			p0.Terminate(false)
			cq.drain()

			// The peer waits for the delimiter; seeing it closes the
			// handshake on both ends.
			Expect(p1.CheckRead()).To(BeFalse())
			cq.drain()

			Expect(e0.terminated).To(Equal(1))
			Expect(e1.terminated).To(Equal(1))
		})

		It("should drain queued traffic up to the delimiter", func() {
			p0, p1, e0, e1, cq := newPairQ(10, 10)

			Expect(p0.Write(msg("last words"))).To(BeTrue())
			p0.Flush()

			p0.Terminate(true)
			cq.drain()

			m, k := p1.Read()
			Expect(k).To(BeTrue())
			Expect(string(m.Data())).To(Equal("last words"))

			// The delimiter then finishes the handshake.
			Expect(p1.CheckRead()).To(BeFalse())
			cq.drain()

			Expect(e0.terminated).To(Equal(1))
			Expect(e1.terminated).To(Equal(1))
		})
	})
})
