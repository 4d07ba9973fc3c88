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

// Package poller provides the worker event loop driving every I/O goroutine:
// an epoll reactor dispatching descriptor readiness and timers to registered
// handlers.
//
// All registration calls (AddFd, RmFd, the poll toggles, the timer calls)
// must be made from the reactor's own goroutine, which is guaranteed when
// they are issued from handler callbacks. Handlers run serialised within one
// reactor and must never block. Load is the count of registered descriptors;
// it is readable from any goroutine and is used both for the idle-exit
// condition and to balance new objects across I/O goroutines.
package poller

import (
	"time"
)

// Events is the handler contract for one registered descriptor or timer
// owner.
type Events interface {
	// InEvent is fired when the descriptor is readable, or on error/hangup
	// conditions.
	InEvent()

	// OutEvent is fired when the descriptor is writable.
	OutEvent()

	// TimerEvent is fired when a timer registered with the given id
	// expires.
	TimerEvent(id int)
}

// Handle identifies one registered descriptor.
type Handle interface {
	// Fd returns the registered descriptor, or a negative value once the
	// handle is retired.
	Fd() int
}

// Poller is the reactor.
type Poller interface {
	// AddFd registers a descriptor with its handler. The descriptor is
	// watched for nothing until a poll toggle enables a direction.
	AddFd(fd int, events Events) Handle

	// RmFd retires a registered descriptor. Events already harvested for
	// it in the current dispatch batch are dropped.
	RmFd(h Handle)

	SetPollIn(h Handle)
	ResetPollIn(h Handle)
	SetPollOut(h Handle)
	ResetPollOut(h Handle)

	// AddTimer arms a timer owned by sink. Expired timers fire ordered by
	// expiration then insertion.
	AddTimer(timeout time.Duration, sink Events, id int)

	// CancelTimer disarms the timer registered by sink under id. It may
	// only be called from the reactor goroutine.
	CancelTimer(sink Events, id int)

	// Load returns the number of registered descriptors.
	Load() int

	// AdjustLoad shifts the load metric for descriptors owned by the
	// reactor but registered out of band.
	AdjustLoad(amount int)

	// Start launches the worker goroutine.
	Start()

	// Stop waits for the worker goroutine to exit. The loop exits on its
	// own once the load drops to zero and no timer is pending.
	Stop()
}

// New returns an epoll-backed Poller.
func New() (Poller, error) {
	return newEpoll()
}
