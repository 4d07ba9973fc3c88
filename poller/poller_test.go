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

package poller_test

import (
	"time"

	libpol "github/sabouaram/gomq/poller"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// readSink counts readable events on a pipe descriptor and retires itself
// after a target count.
type readSink struct {
	p      libpol.Poller
	h      libpol.Handle
	fd     int
	target int
	count  int
	seen   chan int
}

func (o *readSink) InEvent() {
	var buf [16]byte
	for {
		if _, err := unix.Read(o.fd, buf[:]); err != nil {
			break
		}
	}

	o.count++
	o.seen <- o.count

	if o.count >= o.target {
		o.p.RmFd(o.h)
	}
}

func (o *readSink) OutEvent() {}

func (o *readSink) TimerEvent(int) {}

// timerSink records timer firings in order.
type timerSink struct {
	fired chan int
}

func (o *timerSink) InEvent()  {}
func (o *timerSink) OutEvent() {}

func (o *timerSink) TimerEvent(id int) {
	o.fired <- id
}

var _ = Describe("Poller", func() {
	Context("descriptor readiness", func() {
		It("should dispatch readable events until the handler retires", func() {
			var fds [2]int
			Expect(unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC)).ToNot(HaveOccurred())
			defer func() {
				_ = unix.Close(fds[0])
				_ = unix.Close(fds[1])
			}()

			p, err := libpol.New()
			Expect(err).ToNot(HaveOccurred())

			sink := &readSink{p: p, fd: fds[0], target: 3, seen: make(chan int, 8)}
			sink.h = p.AddFd(fds[0], sink)
			p.SetPollIn(sink.h)

			p.Start()

			for i := 0; i < 3; i++ {
				_, err = unix.Write(fds[1], []byte{1})
				Expect(err).ToNot(HaveOccurred())
				Eventually(sink.seen, 2*time.Second).Should(Receive(Equal(i + 1)))
			}

			// The handler removed its descriptor: the loop drains to
			// idle and exits.
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				p.Stop()
				close(done)
			}()
			Eventually(done, 2*time.Second).Should(BeClosed())
		})
	})

	Context("timers", func() {
		It("should fire timers ordered by expiration", func() {
			p, err := libpol.New()
			Expect(err).ToNot(HaveOccurred())

			sink := &timerSink{fired: make(chan int, 4)}
			p.AddTimer(60*time.Millisecond, sink, 1)
			p.AddTimer(20*time.Millisecond, sink, 2)

			p.Start()

			Eventually(sink.fired, 2*time.Second).Should(Receive(Equal(2)))
			Eventually(sink.fired, 2*time.Second).Should(Receive(Equal(1)))

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				p.Stop()
				close(done)
			}()
			Eventually(done, 2*time.Second).Should(BeClosed())
		})
	})

	Context("load accounting", func() {
		It("should count registered descriptors", func() {
			var fds [2]int
			Expect(unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC)).ToNot(HaveOccurred())
			defer func() {
				_ = unix.Close(fds[0])
				_ = unix.Close(fds[1])
			}()

			p, err := libpol.New()
			Expect(err).ToNot(HaveOccurred())

			Expect(p.Load()).To(Equal(0))

			sink := &readSink{p: p, fd: fds[0], target: 1, seen: make(chan int, 1)}
			sink.h = p.AddFd(fds[0], sink)
			Expect(p.Load()).To(Equal(1))

			p.RmFd(sink.h)
			Expect(p.Load()).To(Equal(0))
		})
	})
})
