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

package signaler

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	liberr "github.com/nabbar/golib/errors"
	"golang.org/x/sys/unix"
)

// sgn is the internal implementation of Signaler, backed by a non-blocking
// eventfd. The counter semantics of eventfd give the idempotent-until-recv
// contract for free: concurrent sends accumulate, one read drains them all.
type sgn struct {
	fd     int
	closed atomic.Bool
}

func newSignaler() (*sgn, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, ErrorCreate.Error(err)
	}

	return &sgn{fd: fd}, nil
}

func (o *sgn) Fd() int {
	return o.fd
}

func (o *sgn) Send() {
	if o.closed.Load() {
		return
	}

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)

	for {
		_, err := unix.Write(o.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the counter is saturated, which still leaves the
		// descriptor readable: the wake-up is already guaranteed.
		return
	}
}

func (o *sgn) Wait(timeout time.Duration) error {
	if o.closed.Load() {
		return ErrorClosed.Error(nil)
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	fds := []unix.PollFd{{Fd: int32(o.fd), Events: unix.POLLIN}}

	n, err := unix.Poll(fds, ms)
	if err == unix.EINTR {
		return ErrorInterrupted.Error(nil)
	} else if err != nil {
		return ErrorClosed.Error(err)
	} else if n == 0 {
		return ErrorWouldBlock.Error(nil)
	}

	return nil
}

func (o *sgn) Recv() error {
	for {
		err := o.RecvFailable()
		if err == nil {
			return nil
		}

		if e, k := err.(liberr.Error); !k || !e.IsCode(ErrorWouldBlock) {
			return err
		}

		if err = o.Wait(-1); err != nil {
			if e, k := err.(liberr.Error); k && e.IsCode(ErrorInterrupted) {
				continue
			}
			return err
		}
	}
}

func (o *sgn) RecvFailable() error {
	if o.closed.Load() {
		return ErrorClosed.Error(nil)
	}

	var buf [8]byte

	for {
		_, err := unix.Read(o.fd, buf[:])
		if err == unix.EINTR {
			continue
		} else if err == unix.EAGAIN {
			return ErrorWouldBlock.Error(nil)
		} else if err != nil {
			return ErrorClosed.Error(err)
		}
		return nil
	}
}

func (o *sgn) Close() error {
	if o.closed.Swap(true) {
		return nil
	}

	if err := unix.Close(o.fd); err != nil {
		return ErrorClosed.Error(err)
	}

	return nil
}
