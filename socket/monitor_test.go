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

package socket_test

import (
	"encoding/binary"
	"time"

	libsck "github/sabouaram/gomq/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// recvEvent reads one two-frame monitor message.
func recvEvent(s libsck.Socket, d time.Duration) (libsck.EventType, int, string, error) {
	hdr, err := recvWithin(s, d)
	if err != nil {
		return 0, 0, "", err
	}

	ev := libsck.EventType(binary.LittleEndian.Uint16(hdr[0:2]))
	value := int(binary.LittleEndian.Uint32(hdr[2:6]))

	addr, err := recvWithin(s, d)
	if err != nil {
		return 0, 0, "", err
	}

	return ev, value, string(addr), nil
}

var _ = Describe("Monitor", func() {
	var ctx *libsck.Context

	BeforeEach(func() {
		ctx = newCtx()
	})

	AfterEach(func() {
		Expect(ctx.Term()).ToNot(HaveOccurred())
	})

	It("should stream connect retries with a backing-off interval", func() {
		deadAddr := getTestAddr()
		monAddr := getInprocAddr()

		d, err := ctx.NewSocket(libsck.TypeDealer)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = d.Close() }()

		Expect(d.SetOption(libsck.OptReconnectIvl, 50)).ToNot(HaveOccurred())
		Expect(d.SetOption(libsck.OptReconnectIvlMax, 400)).ToNot(HaveOccurred())
		Expect(d.Monitor(monAddr, libsck.EventConnectRetried)).ToNot(HaveOccurred())

		mon, err := ctx.NewSocket(libsck.TypePair)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = mon.Close() }()
		Expect(mon.Connect(monAddr)).ToNot(HaveOccurred())

		// Nobody listens on the endpoint: every attempt reschedules.
		Expect(d.Connect(deadAddr)).ToNot(HaveOccurred())

		var intervals []int
		for len(intervals) < 3 {
			ev, value, addr, e := recvEvent(mon, 10*time.Second)
			Expect(e).ToNot(HaveOccurred())
			Expect(ev).To(Equal(libsck.EventConnectRetried))
			Expect(addr).To(Equal(deadAddr))
			intervals = append(intervals, value)
		}

		for _, ivl := range intervals {
			Expect(ivl).To(BeNumerically(">=", 50))
			Expect(ivl).To(BeNumerically("<=", 450))
		}
		Expect(intervals[len(intervals)-1]).To(BeNumerically(">=", intervals[0]))
	})

	It("should emit listening and accepted events", func() {
		addr := getTestAddr()
		monAddr := getInprocAddr()

		b, err := ctx.NewSocket(libsck.TypeDealer)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = b.Close() }()

		Expect(b.Monitor(monAddr, libsck.EventListening|libsck.EventAccepted)).ToNot(HaveOccurred())

		mon, err := ctx.NewSocket(libsck.TypePair)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = mon.Close() }()
		Expect(mon.Connect(monAddr)).ToNot(HaveOccurred())

		Expect(b.Bind(addr)).ToNot(HaveOccurred())

		ev, _, evAddr, e := recvEvent(mon, 5*time.Second)
		Expect(e).ToNot(HaveOccurred())
		Expect(ev).To(Equal(libsck.EventListening))
		Expect(evAddr).To(Equal(addr))

		a, err := ctx.NewSocket(libsck.TypeDealer)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = a.Close() }()
		Expect(a.Connect(addr)).ToNot(HaveOccurred())

		ev, _, _, e = recvEvent(mon, 5*time.Second)
		Expect(e).ToNot(HaveOccurred())
		Expect(ev).To(Equal(libsck.EventAccepted))
	})
})
