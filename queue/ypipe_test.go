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

package queue_test

import (
	"sync"

	libque "github/sabouaram/gomq/queue"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("YPipe", func() {
	var p libque.Pipe[int]

	BeforeEach(func() {
		p = libque.NewPipe[int](16)
	})

	Context("basic flow", func() {
		It("should be seen empty before any flush", func() {
			p.Write(1, false)

			_, ok := p.Read()
			Expect(ok).To(BeFalse())
		})

		It("should deliver flushed values in order", func() {
			p.Write(1, false)
			p.Write(2, false)
			Expect(p.Flush()).To(BeTrue())

			v, ok := p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))

			v, ok = p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(2))
		})

		It("should report the parked reader through flush", func() {
			// The reader drains and parks.
			Expect(p.CheckRead()).To(BeFalse())

			p.Write(7, false)
			Expect(p.Flush()).To(BeFalse())

			// The unilateral republication makes the value visible.
			v, ok := p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(7))
		})
	})

	Context("incomplete writes", func() {
		It("should withhold an incomplete run from flush", func() {
			p.Write(1, true)
			p.Write(2, true)
			Expect(p.Flush()).To(BeTrue())

			_, ok := p.Read()
			Expect(ok).To(BeFalse())
		})

		It("should publish the whole run atomically", func() {
			p.Write(1, true)
			p.Write(2, false)
			p.Flush()

			v, ok := p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))

			v, ok = p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(2))
		})

		It("should retract unflushed values with unwrite", func() {
			p.Write(1, false)
			p.Write(2, true)

			v, ok := p.Unwrite()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(2))

			_, ok = p.Unwrite()
			Expect(ok).To(BeFalse())
		})
	})

	Context("probe", func() {
		It("should expose the head value without popping", func() {
			p.Write(9, false)
			p.Flush()

			seen := -1
			ok := p.Probe(func(v int) bool {
				seen = v
				return true
			})

			Expect(ok).To(BeTrue())
			Expect(seen).To(Equal(9))

			v, ok := p.Read()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(9))
		})
	})

	Context("two goroutines", func() {
		It("should deliver every value gap-free under churn", func() {
			const count = 100000

			var wg sync.WaitGroup
			wg.Add(2)

			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				for i := 0; i < count; i++ {
					p.Write(i, false)
					p.Flush()
				}
			}()

			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				want := 0
				for want < count {
					if v, ok := p.Read(); ok {
						Expect(v).To(Equal(want))
						want++
					}
				}
			}()

			wg.Wait()
		})
	})
})
