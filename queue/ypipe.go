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

package queue

import (
	"sync/atomic"
)

// yPipe is the internal implementation of Pipe[T].
//
// Three private pointers discriminate the regions of the underlying queue:
// cells left of r have been read, [r..w) is readable, [w..f) is written but
// not yet flushed, and cells at f and beyond are staged incomplete. The
// shared atomic c is the reader's frontier: when the reader drains the pipe
// it swaps c to nil to declare itself parked, and the next Flush observes the
// failed compare-and-swap, republishes the frontier unilaterally and reports
// that a wake-up is required.
//
// Invariants: the writer never mutates cells left of w, the reader never
// inspects cells at or beyond c, and the park/unpark decision travels through
// the single word c.
type yPipe[T any] struct {
	queue *yQueue[T]

	// writer side
	w *T
	f *T

	// reader side
	r *T

	c atomic.Pointer[T]
}

func newYPipe[T any](granularity int) *yPipe[T] {
	p := &yPipe[T]{queue: newYQueue[T](granularity)}

	// Insert the terminator cell: the pipe always keeps one uncommitted
	// cell so that every region pointer refers to a live cell.
	p.queue.Push()

	b := p.queue.Back()
	p.w = b
	p.f = b
	p.r = b
	p.c.Store(b)

	return p
}

func (o *yPipe[T]) Write(value T, incomplete bool) {
	*o.queue.Back() = value
	o.queue.Push()

	if !incomplete {
		o.f = o.queue.Back()
	}
}

func (o *yPipe[T]) Unwrite() (T, bool) {
	var zero T

	if o.f == o.queue.Back() {
		return zero, false
	}

	o.queue.Unpush()
	return *o.queue.Back(), true
}

func (o *yPipe[T]) Flush() bool {
	if o.w == o.f {
		return true
	}

	if !o.c.CompareAndSwap(o.w, o.f) {
		// The reader drained the pipe and parked (c is nil): it is
		// quiescent, so the frontier can be republished without a race.
		o.c.Store(o.f)
		o.w = o.f
		return false
	}

	o.w = o.f
	return true
}

func (o *yPipe[T]) CheckRead() bool {
	front := o.queue.Front()

	if front != o.r && o.r != nil {
		return true
	}

	// Nothing prefetched: try to park by swapping c to nil. A failed swap
	// reveals the writer's latest frontier and cancels the park.
	if o.c.CompareAndSwap(front, nil) {
		o.r = front
		return false
	}

	o.r = o.c.Load()

	if o.r == front || o.r == nil {
		return false
	}

	return true
}

func (o *yPipe[T]) Read() (T, bool) {
	var zero T

	if !o.CheckRead() {
		return zero, false
	}

	value := *o.queue.Front()
	o.queue.Pop()
	return value, true
}

func (o *yPipe[T]) Probe(fn func(T) bool) bool {
	if !o.CheckRead() {
		return false
	}

	return fn(*o.queue.Front())
}
