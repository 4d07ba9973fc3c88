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

package poller

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

const (
	maxIOEvents = 256
	retiredFd   = -1
)

// pollEntry is the registration record of one descriptor. The reactor keeps
// a map from descriptor to entry; retiring an entry removes its map slot and
// marks it, so that readiness already harvested for it in the current batch
// is dropped, and the retired list is cleared after dispatch.
type pollEntry struct {
	fd     int
	evmask uint32
	events Events
}

func (o *pollEntry) Fd() int {
	return o.fd
}

// epl is the internal implementation of Poller.
type epl struct {
	epfd    int
	entries map[int]*pollEntry
	retired []*pollEntry
	timers  timerSet
	load    atomic.Int32
	done    chan struct{}
}

func newEpoll() (*epl, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, ErrorCreate.Error(err)
	}

	return &epl{
		epfd:    fd,
		entries: make(map[int]*pollEntry),
		done:    make(chan struct{}),
	}, nil
}

func (o *epl) AddFd(fd int, events Events) Handle {
	pe := &pollEntry{fd: fd, events: events}
	o.entries[fd] = pe

	ev := unix.EpollEvent{Events: 0, Fd: int32(fd)}
	_ = unix.EpollCtl(o.epfd, unix.EPOLL_CTL_ADD, fd, &ev)

	o.AdjustLoad(1)
	return pe
}

func (o *epl) RmFd(h Handle) {
	pe, k := h.(*pollEntry)
	if !k || pe.fd == retiredFd {
		return
	}

	ev := unix.EpollEvent{Events: pe.evmask, Fd: int32(pe.fd)}
	_ = unix.EpollCtl(o.epfd, unix.EPOLL_CTL_DEL, pe.fd, &ev)

	delete(o.entries, pe.fd)
	pe.fd = retiredFd
	o.retired = append(o.retired, pe)

	o.AdjustLoad(-1)
}

func (o *epl) mod(pe *pollEntry) {
	ev := unix.EpollEvent{Events: pe.evmask, Fd: int32(pe.fd)}
	_ = unix.EpollCtl(o.epfd, unix.EPOLL_CTL_MOD, pe.fd, &ev)
}

func (o *epl) SetPollIn(h Handle) {
	if pe, k := h.(*pollEntry); k && pe.fd != retiredFd {
		pe.evmask |= unix.EPOLLIN
		o.mod(pe)
	}
}

func (o *epl) ResetPollIn(h Handle) {
	if pe, k := h.(*pollEntry); k && pe.fd != retiredFd {
		pe.evmask &^= unix.EPOLLIN
		o.mod(pe)
	}
}

func (o *epl) SetPollOut(h Handle) {
	if pe, k := h.(*pollEntry); k && pe.fd != retiredFd {
		pe.evmask |= unix.EPOLLOUT
		o.mod(pe)
	}
}

func (o *epl) ResetPollOut(h Handle) {
	if pe, k := h.(*pollEntry); k && pe.fd != retiredFd {
		pe.evmask &^= unix.EPOLLOUT
		o.mod(pe)
	}
}

func (o *epl) AddTimer(timeout time.Duration, sink Events, id int) {
	o.timers.add(timeout, sink, id)
}

func (o *epl) CancelTimer(sink Events, id int) {
	o.timers.cancel(sink, id)
}

func (o *epl) Load() int {
	return int(o.load.Load())
}

func (o *epl) AdjustLoad(amount int) {
	o.load.Add(int32(amount))
}

func (o *epl) Start() {
	go o.loop()
}

func (o *epl) Stop() {
	<-o.done
	_ = unix.Close(o.epfd)
}

func (o *epl) loop() {
	// The loop blocks raw in epoll_wait: pin the goroutine so the runtime
	// does not shuffle it while a syscall is parked.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(o.done)

	var evbuf [maxIOEvents]unix.EpollEvent

	for {
		//  Execute any due timers and learn how long the reactor may
		//  sleep.
		timeout := o.timers.execute()

		if o.Load() == 0 {
			if timeout == 0 {
				break
			}
			time.Sleep(timeout)
			continue
		}

		ms := -1
		if timeout > 0 {
			ms = int(timeout / time.Millisecond)
			if ms <= 0 {
				ms = 1
			}
		}

		n, err := unix.EpollWait(o.epfd, evbuf[:], ms)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			break
		}

		for i := 0; i < n; i++ {
			pe, k := o.entries[int(evbuf[i].Fd)]
			if !k || pe.fd == retiredFd {
				continue
			}

			if evbuf[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				pe.events.InEvent()
			}
			if pe.fd == retiredFd {
				continue
			}

			if evbuf[i].Events&unix.EPOLLOUT != 0 {
				pe.events.OutEvent()
			}
			if pe.fd == retiredFd {
				continue
			}

			if evbuf[i].Events&unix.EPOLLIN != 0 {
				pe.events.InEvent()
			}
		}

		//  Drop the entries retired during dispatch.
		o.retired = o.retired[:0]
	}
}
