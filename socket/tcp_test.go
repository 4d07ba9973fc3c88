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

// tcp_test.go drives the full stack over loopback tcp: connecter and
// listener state machines, greeting and security handshake, framing and the
// flow-controlled pump.
package socket_test

import (
	"fmt"
	"strings"
	"time"

	libsck "github/sabouaram/gomq/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TCP transport", func() {
	var ctx *libsck.Context

	BeforeEach(func() {
		ctx = newCtx()
	})

	AfterEach(func() {
		Expect(ctx.Term()).ToNot(HaveOccurred())
	})

	Context("dealer ping pong", func() {
		It("should echo one thousand messages without loss or reorder", func() {
			addr := getTestAddr()

			b, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = b.Close() }()
			Expect(b.Bind(addr)).ToNot(HaveOccurred())

			a, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = a.Close() }()
			Expect(a.Connect(addr)).ToNot(HaveOccurred())

			echoDone := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(echoDone)

				for i := 0; i < 1000; i++ {
					m, e := recvWithin(b, 10*time.Second)
					Expect(e).ToNot(HaveOccurred())
					Expect(b.SendBytes(m, libsck.FlagNone)).ToNot(HaveOccurred())
				}
			}()

			for i := 0; i < 1000; i++ {
				msg := fmt.Sprintf("hello world : %d", i)
				Expect(a.SendBytes([]byte(msg), libsck.FlagNone)).ToNot(HaveOccurred())

				got, e := recvWithin(a, 10*time.Second)
				Expect(e).ToNot(HaveOccurred())
				Expect(string(got)).To(Equal(msg))
			}

			Eventually(echoDone, 10*time.Second).Should(BeClosed())
		})
	})

	Context("multipart atomicity", func() {
		It("should deliver the frame run with identical flags", func() {
			addr := getTestAddr()

			b, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = b.Close() }()
			Expect(b.Bind(addr)).ToNot(HaveOccurred())

			a, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = a.Close() }()
			Expect(a.Connect(addr)).ToNot(HaveOccurred())

			Expect(a.SendBytes([]byte("first"), libsck.FlagSndMore)).ToNot(HaveOccurred())
			Expect(a.SendBytes([]byte("second"), libsck.FlagSndMore)).ToNot(HaveOccurred())
			Expect(a.SendBytes([]byte("third"), libsck.FlagNone)).ToNot(HaveOccurred())

			wantMore := []bool{true, true, false}
			wantBody := []string{"first", "second", "third"}

			for i := range wantBody {
				got, e := recvWithin(b, 5*time.Second)
				Expect(e).ToNot(HaveOccurred())
				Expect(string(got)).To(Equal(wantBody[i]))
				Expect(b.RcvMore()).To(Equal(wantMore[i]))
			}
		})
	})

	Context("publish and subscribe", func() {
		It("should filter on the topic prefix and keep the feed consistent", func() {
			addr := getTestAddr()

			pub, err := ctx.NewSocket(libsck.TypePub)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = pub.Close() }()
			Expect(pub.Bind(addr)).ToNot(HaveOccurred())

			sub, err := ctx.NewSocket(libsck.TypeSub)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = sub.Close() }()
			Expect(sub.SetOption(libsck.OptSubscribe, "10001 ")).ToNot(HaveOccurred())
			Expect(sub.Connect(addr)).ToNot(HaveOccurred())

			stop := make(chan struct{})
			defer close(stop)

			go func() {
				defer GinkgoRecover()

				n := 0
				for {
					select {
					case <-stop:
						return
					default:
					}

					zip := 10000 + n%3
					line := fmt.Sprintf("%5d %d %d", zip, 20+n%10, 50+n%20)
					_ = pub.SendBytes([]byte(line), libsck.FlagDontWait)
					n++
					time.Sleep(time.Millisecond)
				}
			}()

			sum := 0
			for count := 0; count < 100; count++ {
				got, e := recvWithin(sub, 10*time.Second)
				Expect(e).ToNot(HaveOccurred())
				Expect(strings.HasPrefix(string(got), "10001 ")).To(BeTrue())

				var zip, temp, hum int
				_, e = fmt.Sscanf(string(got), "%d %d %d", &zip, &temp, &hum)
				Expect(e).ToNot(HaveOccurred())
				Expect(zip).To(Equal(10001))
				sum += temp
			}

			// Temperatures cycle deterministically; the mean of any 100
			// matched samples stays within the generated band.
			avg := sum / 100
			Expect(avg).To(BeNumerically(">=", 20))
			Expect(avg).To(BeNumerically("<=", 29))
		})
	})

	Context("linger", func() {
		It("should drain queued messages before the connection drops", func() {
			addr := getTestAddr()

			pull, err := ctx.NewSocket(libsck.TypePull)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = pull.Close() }()
			Expect(pull.Bind(addr)).ToNot(HaveOccurred())

			push, err := ctx.NewSocket(libsck.TypePush)
			Expect(err).ToNot(HaveOccurred())
			Expect(push.SetOption(libsck.OptLinger, 500)).ToNot(HaveOccurred())
			Expect(push.Connect(addr)).ToNot(HaveOccurred())

			for i := 0; i < 5; i++ {
				Expect(push.SendBytes([]byte{byte(i)}, libsck.FlagNone)).ToNot(HaveOccurred())
			}

			Expect(push.Close()).ToNot(HaveOccurred())

			for i := 0; i < 5; i++ {
				got, e := recvWithin(pull, 5*time.Second)
				Expect(e).ToNot(HaveOccurred())
				Expect(got).To(Equal([]byte{byte(i)}))
			}
		})
	})

	Context("ipv6 option surface", func() {
		It("should accept an ipv6 wildcard bind when enabled", func() {
			s, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = s.Close() }()

			Expect(s.SetOption(libsck.OptIPv6, true)).ToNot(HaveOccurred())

			err = s.Bind("tcp://[::1]:*")
			if err != nil {
				Skip("ipv6 loopback unavailable")
			}

			last, err := s.GetOption(libsck.OptLastEndpoint)
			Expect(err).ToNot(HaveOccurred())
			Expect(last.(string)).To(HavePrefix("tcp://"))
		})
	})
})
