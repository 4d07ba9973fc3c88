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

package mailbox

import (
	"sync"
	"time"

	liberr "github.com/nabbar/golib/errors"
	libque "github/sabouaram/gomq/queue"
	libsgn "github/sabouaram/gomq/mailbox/signaler"
)

// mbx is the internal implementation of Mailbox[T]: a lock-free pipe of
// commands, a mutex serialising the arbitrary number of senders, and a
// signaler crossing the wake-up to the single reader.
type mbx[T any] struct {
	cpipe libque.Pipe[T]
	sgn   libsgn.Signaler
	wrt   sync.Mutex

	// active is owned by the reader: true while commands may be read
	// without consuming a signal first.
	active bool
}

func newMailbox[T any](granularity int, s libsgn.Signaler) *mbx[T] {
	o := &mbx[T]{
		cpipe:  libque.NewPipe[T](granularity),
		sgn:    s,
		active: false,
	}

	// Park the reader so that the first Send finds it asleep and posts a
	// signal.
	_ = o.cpipe.CheckRead()

	return o
}

func (o *mbx[T]) Fd() int {
	return o.sgn.Fd()
}

func (o *mbx[T]) Send(cmd T) {
	o.wrt.Lock()
	o.cpipe.Write(cmd, false)
	ok := o.cpipe.Flush()
	o.wrt.Unlock()

	if !ok {
		o.sgn.Send()
	}
}

func (o *mbx[T]) Recv(timeout time.Duration) (T, error) {
	var zero T

	// Fast path: the reader holds the pipe open from a previous signal.
	if o.active {
		if cmd, ok := o.cpipe.Read(); ok {
			return cmd, nil
		}
		o.active = false
	}

	if err := o.sgn.Wait(timeout); err != nil {
		if e, k := err.(liberr.Error); k && e.IsCode(libsgn.ErrorWouldBlock) {
			return zero, ErrorWouldBlock.Error(nil)
		}
		return zero, err
	}

	// Drain exactly one signal; by the pipe invariants a command is now
	// readable.
	if err := o.sgn.RecvFailable(); err != nil {
		if e, k := err.(liberr.Error); !k || !e.IsCode(libsgn.ErrorWouldBlock) {
			return zero, err
		}
	}

	o.active = true

	cmd, ok := o.cpipe.Read()
	if !ok {
		o.active = false
		return zero, ErrorWouldBlock.Error(nil)
	}

	return cmd, nil
}

func (o *mbx[T]) Close() error {
	return o.sgn.Close()
}
