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

// Package signaler provides the cross-goroutine wake primitive used by
// mailboxes: an eventfd exposing a pollable descriptor whose readiness means
// a signal was sent and not yet consumed.
package signaler

import (
	"time"
)

// Signaler is a one-shot wake channel between a sender and a waiter.
// Send is idempotent until the next Recv; Recv drains all pending sends.
type Signaler interface {
	// Fd returns the pollable descriptor.
	Fd() int

	// Send posts a wake-up. It never blocks.
	Send()

	// Wait blocks until a signal is pending or the timeout elapses. A
	// negative timeout blocks forever. At the deadline it returns a
	// would-block error.
	Wait(timeout time.Duration) error

	// Recv consumes a pending signal, blocking until one is present.
	Recv() error

	// RecvFailable consumes a pending signal or returns a would-block
	// error when none is pending.
	RecvFailable() error

	// Close releases the descriptor.
	Close() error
}

// New returns an eventfd-backed Signaler.
func New() (Signaler, error) {
	return newSignaler()
}
