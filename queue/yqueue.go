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

// chunk is one allocation unit of the queue: a fixed run of cells linked to
// its neighbours.
type chunk[T any] struct {
	values []T
	prev   *chunk[T]
	next   *chunk[T]
}

// yQueue is the internal implementation of Queue[T].
//
// The writer owns backChunk/backPos and endChunk/endPos, the reader owns
// beginChunk/beginPos. The two sides meet only on the spare chunk, a single
// atomically-exchanged slot that recycles the most recently drained chunk so
// that steady traffic does not allocate.
type yQueue[T any] struct {
	n int

	beginChunk *chunk[T]
	beginPos   int
	backChunk  *chunk[T]
	backPos    int
	endChunk   *chunk[T]
	endPos     int

	spareChunk atomic.Pointer[chunk[T]]
}

func newYQueue[T any](granularity int) *yQueue[T] {
	q := &yQueue[T]{n: granularity}
	q.beginChunk = q.allocateChunk()
	q.endChunk = q.beginChunk
	return q
}

func (o *yQueue[T]) allocateChunk() *chunk[T] {
	return &chunk[T]{values: make([]T, o.n)}
}

func (o *yQueue[T]) Front() *T {
	return &o.beginChunk.values[o.beginPos]
}

func (o *yQueue[T]) Back() *T {
	return &o.backChunk.values[o.backPos]
}

func (o *yQueue[T]) Push() {
	o.backChunk = o.endChunk
	o.backPos = o.endPos

	o.endPos++
	if o.endPos != o.n {
		return
	}

	// End chunk is full: link a fresh one, preferring the spare slot over
	// a new allocation.
	if sc := o.spareChunk.Swap(nil); sc != nil {
		o.endChunk.next = sc
		sc.prev = o.endChunk
	} else {
		o.endChunk.next = o.allocateChunk()
		o.endChunk.next.prev = o.endChunk
	}

	o.endChunk = o.endChunk.next
	o.endPos = 0
}

func (o *yQueue[T]) Unpush() {
	if o.backPos > 0 {
		o.backPos--
	} else {
		o.backPos = o.n - 1
		o.backChunk = o.backChunk.prev
	}

	if o.endPos > 0 {
		o.endPos--
	} else {
		o.endPos = o.n - 1
		o.endChunk = o.endChunk.prev
		o.endChunk.next = nil
	}
}

func (o *yQueue[T]) Pop() {
	o.beginPos++
	if o.beginPos != o.n {
		return
	}

	old := o.beginChunk
	o.beginChunk = o.beginChunk.next
	o.beginChunk.prev = nil
	o.beginPos = 0

	// Offer the drained chunk to the spare slot; whatever was there is
	// dropped for the collector.
	old.next = nil
	var zero T
	for i := range old.values {
		old.values[i] = zero
	}
	o.spareChunk.Swap(old)
}
