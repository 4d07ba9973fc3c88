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

package socket

import (
	"time"

	libpol "github/sabouaram/gomq/poller"
)

// ioObject gives an object plugged into an I/O thread direct access to that
// thread's reactor. The plug must happen on the owning I/O thread.
type ioObject struct {
	poller libpol.Poller
}

func (o *ioObject) plugIOThread(t *ioThread) {
	o.poller = t.poller
}

func (o *ioObject) unplugIOThread() {
	o.poller = nil
}

func (o *ioObject) addFd(fd int, events libpol.Events) libpol.Handle {
	return o.poller.AddFd(fd, events)
}

func (o *ioObject) rmFd(h libpol.Handle) {
	o.poller.RmFd(h)
}

func (o *ioObject) setPollIn(h libpol.Handle) {
	o.poller.SetPollIn(h)
}

func (o *ioObject) resetPollIn(h libpol.Handle) {
	o.poller.ResetPollIn(h)
}

func (o *ioObject) setPollOut(h libpol.Handle) {
	o.poller.SetPollOut(h)
}

func (o *ioObject) resetPollOut(h libpol.Handle) {
	o.poller.ResetPollOut(h)
}

func (o *ioObject) addTimer(timeout time.Duration, sink libpol.Events, id int) {
	o.poller.AddTimer(timeout, sink, id)
}

func (o *ioObject) cancelTimer(sink libpol.Events, id int) {
	o.poller.CancelTimer(sink, id)
}
