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

package mailbox_test

import (
	"sync"
	"time"

	liberr "github.com/nabbar/golib/errors"
	libmbx "github/sabouaram/gomq/mailbox"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mailbox", func() {
	var m libmbx.Mailbox[int]

	BeforeEach(func() {
		var err error
		m, err = libmbx.New[int](16)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = m.Close()
	})

	It("should report would-block on an empty mailbox", func() {
		_, err := m.Recv(0)

		e, k := err.(liberr.Error)
		Expect(k).To(BeTrue())
		Expect(e.IsCode(libmbx.ErrorWouldBlock)).To(BeTrue())
	})

	It("should deliver commands in FIFO order per sender", func() {
		for i := 0; i < 10; i++ {
			m.Send(i)
		}

		for i := 0; i < 10; i++ {
			v, err := m.Recv(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(v).To(Equal(i))
		}
	})

	It("should unblock a waiting reader", func() {
		got := make(chan int, 1)

		go func() {
			defer GinkgoRecover()
			v, err := m.Recv(-1)
			Expect(err).ToNot(HaveOccurred())
			got <- v
		}()

		time.Sleep(20 * time.Millisecond)
		m.Send(99)

		Eventually(got, 2*time.Second).Should(Receive(Equal(99)))
	})

	It("should time out a bounded wait", func() {
		start := time.Now()
		_, err := m.Recv(50 * time.Millisecond)

		Expect(err).To(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically(">=", 40*time.Millisecond))
	})

	It("should accept many concurrent senders", func() {
		const senders = 8
		const each = 500

		var wg sync.WaitGroup
		wg.Add(senders)

		for s := 0; s < senders; s++ {
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := 0; i < each; i++ {
					m.Send(i)
				}
			}()
		}

		received := 0
		done := make(chan struct{})

		go func() {
			defer GinkgoRecover()
			defer close(done)
			for received < senders*each {
				if _, err := m.Recv(time.Second); err == nil {
					received++
				}
			}
		}()

		wg.Wait()
		Eventually(done, 10*time.Second).Should(BeClosed())
		Expect(received).To(Equal(senders * each))
	})
})
