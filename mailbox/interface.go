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

// Package mailbox provides the command queue attached to every long-lived
// object of the transport core.
//
// A mailbox combines a lock-free pipe of commands with a signaler, a
// cross-goroutine wake primitive backed by an eventfd so that the owning
// reactor can poll it together with its transport descriptors. Any number of
// goroutines may send into one mailbox; exactly one goroutine receives.
package mailbox

import (
	"time"

	libsgn "github/sabouaram/gomq/mailbox/signaler"
)

// Mailbox is a many-writer single-reader command queue of T.
type Mailbox[T any] interface {
	// Fd returns the pollable descriptor whose readiness means at least
	// one unseen command is queued.
	Fd() int

	// Send enqueues a command and wakes the reader when it is parked.
	Send(cmd T)

	// Recv dequeues one command. A negative timeout blocks until a
	// command arrives; a zero or positive timeout returns a would-block
	// error at the deadline.
	Recv(timeout time.Duration) (T, error)

	// Close releases the signaler descriptors. Pending commands are
	// dropped.
	Close() error
}

// New returns a Mailbox of T with the given pipe granularity.
func New[T any](granularity int) (Mailbox[T], error) {
	s, e := libsgn.New()
	if e != nil {
		return nil, e
	}

	return newMailbox[T](granularity, s), nil
}
