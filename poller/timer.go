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
	"sort"
	"time"
)

type timerInfo struct {
	expiration time.Time
	seq        uint64
	sink       Events
	id         int
}

// timerSet keeps armed timers ordered by expiration then insertion. It is
// only touched from the reactor goroutine.
type timerSet struct {
	timers []timerInfo
	seq    uint64
}

func (o *timerSet) add(timeout time.Duration, sink Events, id int) {
	o.seq++
	info := timerInfo{
		expiration: time.Now().Add(timeout),
		seq:        o.seq,
		sink:       sink,
		id:         id,
	}

	i := sort.Search(len(o.timers), func(i int) bool {
		if o.timers[i].expiration.Equal(info.expiration) {
			return o.timers[i].seq > info.seq
		}
		return o.timers[i].expiration.After(info.expiration)
	})

	o.timers = append(o.timers, timerInfo{})
	copy(o.timers[i+1:], o.timers[i:])
	o.timers[i] = info
}

func (o *timerSet) cancel(sink Events, id int) {
	for i := range o.timers {
		if o.timers[i].sink == sink && o.timers[i].id == id {
			o.timers = append(o.timers[:i], o.timers[i+1:]...)
			return
		}
	}
}

// execute fires all due timers and returns the delay until the next armed
// timer, or zero when none is armed.
func (o *timerSet) execute() time.Duration {
	if len(o.timers) == 0 {
		return 0
	}

	now := time.Now()

	i := 0
	for ; i < len(o.timers); i++ {
		if o.timers[i].expiration.After(now) {
			break
		}
	}

	due := make([]timerInfo, i)
	copy(due, o.timers[:i])
	o.timers = o.timers[i:]

	for _, t := range due {
		t.sink.TimerEvent(t.id)
	}

	if len(o.timers) == 0 {
		return 0
	}

	d := time.Until(o.timers[0].expiration)
	if d < time.Millisecond {
		d = time.Millisecond
	}

	return d
}
