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
	libque "github/sabouaram/gomq/queue"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("YQueue", func() {
	var q libque.Queue[int]

	BeforeEach(func() {
		q = libque.NewQueue[int](4)
		// Open the first back cell.
		q.Push()
	})

	Context("push and pop", func() {
		It("should keep FIFO order across chunk boundaries", func() {
			for i := 0; i < 100; i++ {
				*q.Back() = i
				q.Push()
			}

			for i := 0; i < 100; i++ {
				Expect(*q.Front()).To(Equal(i))
				q.Pop()
			}
		})

		It("should survive interleaved push and pop churn", func() {
			next := 0
			want := 0

			for round := 0; round < 50; round++ {
				for i := 0; i < 3; i++ {
					*q.Back() = next
					q.Push()
					next++
				}
				for i := 0; i < 3; i++ {
					Expect(*q.Front()).To(Equal(want))
					q.Pop()
					want++
				}
			}
		})
	})

	Context("unpush", func() {
		It("should retract the last pushed value", func() {
			*q.Back() = 1
			q.Push()
			*q.Back() = 2
			q.Push()

			q.Unpush()

			Expect(*q.Front()).To(Equal(1))
			q.Pop()
		})

		It("should retract across a chunk boundary", func() {
			for i := 0; i < 5; i++ {
				*q.Back() = i
				q.Push()
			}

			q.Unpush()

			for i := 0; i < 4; i++ {
				Expect(*q.Front()).To(Equal(i))
				q.Pop()
			}
		})
	})
})
