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

// Package queue provides the single-producer single-consumer plumbing used to
// move values between two goroutines without locks.
//
// Queue is an unbounded chunked FIFO restricted to one writer and one reader.
// Pipe wraps a Queue with a three-pointer publication protocol: the writer
// stages values, publishes them with Flush, and learns from the Flush return
// value whether the reader has gone to sleep and must be woken through an
// out-of-band signal. The only word shared between both sides is a single
// atomic pointer, so neither side ever blocks the other.
//
// The interface intentionally excludes a length accessor: accurate counts in
// lock-free structures require cross-core synchronization that the hot path
// cannot afford. Callers track counts in their own accounting when needed.
package queue

// Queue is a chunked unbounded FIFO of T.
//
// All methods except the internal spare-chunk exchange are wait-free. Push,
// Back and Unpush may only be called by the writer goroutine; Pop and Front
// may only be called by the reader goroutine.
type Queue[T any] interface {
	// Front returns the cell at the read position. Valid only when the
	// queue is known non-empty by the caller's own accounting.
	Front() *T

	// Back returns the cell at the write position. The value stored there
	// becomes visible to the reader on the next Push. A fresh queue has no
	// write position until its first Push.
	Back() *T

	// Push commits the value stored in Back and opens a new back cell.
	Push()

	// Unpush retracts the last Push. The caller must know the retracted
	// cell was not yet released to the reader.
	Unpush()

	// Pop releases the front cell. The caller must know the queue is
	// non-empty.
	Pop()
}

// Pipe is a lock-free SPSC pipe with explicit publication.
//
// Writer side: Write, Unwrite, Flush. Reader side: CheckRead, Read, Probe.
// A false return from Flush is not an error: it reports that the reader has
// parked and the owner must deliver a wake-up signal.
type Pipe[T any] interface {
	// Write stores a value into the pipe. When incomplete is true the
	// value is staged but withheld from the next Flush, allowing a run of
	// values to be published atomically.
	Write(value T, incomplete bool)

	// Unwrite retracts the last unflushed value, returning it.
	Unwrite() (T, bool)

	// Flush publishes all completed writes to the reader. It returns false
	// when the reader was found asleep, in which case the caller must wake
	// it through its mailbox signaler.
	Flush() bool

	// CheckRead reports whether at least one value is readable. When the
	// pipe is drained it parks the reader as a side effect.
	CheckRead() bool

	// Read pops the next value. It returns false when the pipe is empty.
	Read() (T, bool)

	// Probe applies fn to the next readable value without popping it.
	// It returns false when the pipe is empty.
	Probe(fn func(T) bool) bool
}

// DefaultGranularity is the chunk size used when the caller passes a
// non-positive value to the constructors.
const DefaultGranularity = 256

// NewQueue returns a Queue of T backed by chunks of the given granularity.
func NewQueue[T any](granularity int) Queue[T] {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return newYQueue[T](granularity)
}

// NewPipe returns a Pipe of T backed by chunks of the given granularity.
func NewPipe[T any](granularity int) Pipe[T] {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return newYPipe[T](granularity)
}
