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

// inproc_test.go validates the in-process transport: direct pipe pairs
// through the context registry, connect-before-bind staging, pattern
// behaviour and back-pressure without any descriptor involved.
package socket_test

import (
	"time"

	libsck "github/sabouaram/gomq/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Inproc transport", func() {
	var ctx *libsck.Context

	BeforeEach(func() {
		ctx = newCtx()
	})

	AfterEach(func() {
		Expect(ctx.Term()).ToNot(HaveOccurred())
	})

	Context("pair", func() {
		It("should exchange messages both ways", func() {
			addr := getInprocAddr()

			a, err := ctx.NewSocket(libsck.TypePair)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = a.Close() }()

			b, err := ctx.NewSocket(libsck.TypePair)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = b.Close() }()

			Expect(a.Bind(addr)).ToNot(HaveOccurred())
			Expect(b.Connect(addr)).ToNot(HaveOccurred())

			Expect(b.SendBytes([]byte("ping"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err := recvWithin(a, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("ping"))

			Expect(a.SendBytes([]byte("pong"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err = recvWithin(b, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("pong"))
		})

		It("should stage a connect issued before the bind", func() {
			addr := getInprocAddr()

			b, err := ctx.NewSocket(libsck.TypePair)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = b.Close() }()

			Expect(b.Connect(addr)).ToNot(HaveOccurred())
			Expect(b.SendBytes([]byte("early"), libsck.FlagNone)).ToNot(HaveOccurred())

			a, err := ctx.NewSocket(libsck.TypePair)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = a.Close() }()

			Expect(a.Bind(addr)).ToNot(HaveOccurred())

			got, err := recvWithin(a, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("early"))
		})
	})

	Context("push and pull back-pressure", func() {
		It("should refuse the send past the mark and reopen on drain", func() {
			addr := getInprocAddr()

			pull, err := ctx.NewSocket(libsck.TypePull)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = pull.Close() }()
			Expect(pull.SetOption(libsck.OptRcvHWM, 5)).ToNot(HaveOccurred())
			Expect(pull.Bind(addr)).ToNot(HaveOccurred())

			push, err := ctx.NewSocket(libsck.TypePush)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = push.Close() }()
			Expect(push.SetOption(libsck.OptSndHWM, 5)).ToNot(HaveOccurred())
			Expect(push.Connect(addr)).ToNot(HaveOccurred())

			// The combined mark of the inproc pipe is ten messages.
			for i := 0; i < 10; i++ {
				Expect(push.SendBytes([]byte{byte(i)}, libsck.FlagDontWait)).ToNot(HaveOccurred())
			}

			err = push.SendBytes([]byte{99}, libsck.FlagDontWait)
			Expect(libsck.IsWouldBlock(err)).To(BeTrue())

			// Draining half returns enough credit for half more.
			for i := 0; i < 5; i++ {
				_, err = recvWithin(pull, 2*time.Second)
				Expect(err).ToNot(HaveOccurred())
			}

			sent := 0
			deadline := time.Now().Add(2 * time.Second)
			for sent < 5 && time.Now().Before(deadline) {
				if e := push.SendBytes([]byte{byte(sent)}, libsck.FlagDontWait); e == nil {
					sent++
				} else {
					time.Sleep(time.Millisecond)
				}
			}
			Expect(sent).To(Equal(5))

			err = push.SendBytes([]byte{99}, libsck.FlagDontWait)
			Expect(libsck.IsWouldBlock(err)).To(BeTrue())
		})
	})

	Context("request and reply", func() {
		It("should run the envelope protocol", func() {
			addr := getInprocAddr()

			rep, err := ctx.NewSocket(libsck.TypeRep)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = rep.Close() }()
			Expect(rep.Bind(addr)).ToNot(HaveOccurred())

			req, err := ctx.NewSocket(libsck.TypeReq)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = req.Close() }()
			Expect(req.Connect(addr)).ToNot(HaveOccurred())

			Expect(req.SendBytes([]byte("question"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err := recvWithin(rep, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("question"))

			Expect(rep.SendBytes([]byte("answer"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err = recvWithin(req, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("answer"))
		})

		It("should refuse out-of-turn operations", func() {
			addr := getInprocAddr()

			req, err := ctx.NewSocket(libsck.TypeReq)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = req.Close() }()
			Expect(req.Connect(addr)).ToNot(HaveOccurred())

			_, err = req.RecvBytes(libsck.FlagDontWait)
			Expect(err).To(HaveOccurred())
			Expect(libsck.IsWouldBlock(err)).To(BeFalse())
		})
	})

	Context("publish and subscribe", func() {
		It("should deliver only matching topics", func() {
			addr := getInprocAddr()

			pub, err := ctx.NewSocket(libsck.TypePub)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = pub.Close() }()
			Expect(pub.Bind(addr)).ToNot(HaveOccurred())

			sub, err := ctx.NewSocket(libsck.TypeSub)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = sub.Close() }()
			Expect(sub.SetOption(libsck.OptSubscribe, "10001 ")).ToNot(HaveOccurred())
			Expect(sub.Connect(addr)).ToNot(HaveOccurred())

			// Let the subscription reach the publisher trie.
			Eventually(func() int {
				ev, e := pub.GetOption(libsck.OptEvents)
				if e != nil {
					return 0
				}
				return ev.(int) & libsck.PollOut
			}, 2*time.Second, 5*time.Millisecond).ShouldNot(BeZero())

			Expect(pub.SendBytes([]byte("10002 21 40"), libsck.FlagNone)).ToNot(HaveOccurred())
			Expect(pub.SendBytes([]byte("10001 20 55"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err := recvWithin(sub, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("10001 20 55"))

			_, err = sub.RecvBytes(libsck.FlagDontWait)
			Expect(libsck.IsWouldBlock(err)).To(BeTrue())
		})
	})

	Context("multipart", func() {
		It("should keep the more pattern intact", func() {
			addr := getInprocAddr()

			a, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = a.Close() }()
			Expect(a.Bind(addr)).ToNot(HaveOccurred())

			b, err := ctx.NewSocket(libsck.TypeDealer)
			Expect(err).ToNot(HaveOccurred())
			defer func() { _ = b.Close() }()
			Expect(b.Connect(addr)).ToNot(HaveOccurred())

			Expect(b.SendBytes([]byte("f1"), libsck.FlagSndMore)).ToNot(HaveOccurred())
			Expect(b.SendBytes([]byte("f2"), libsck.FlagSndMore)).ToNot(HaveOccurred())
			Expect(b.SendBytes([]byte("f3"), libsck.FlagNone)).ToNot(HaveOccurred())

			got, err := recvWithin(a, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("f1"))
			Expect(a.RcvMore()).To(BeTrue())

			got, err = recvWithin(a, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("f2"))
			Expect(a.RcvMore()).To(BeTrue())

			got, err = recvWithin(a, 2*time.Second)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(got)).To(Equal("f3"))
			Expect(a.RcvMore()).To(BeFalse())
		})
	})
})
