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
	"fmt"
	"os"
	"path/filepath"
	"time"

	libsck "github/sabouaram/gomq/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IPC transport", func() {
	var (
		ctx  *libsck.Context
		path string
	)

	BeforeEach(func() {
		ctx = newCtx()
		path = filepath.Join(os.TempDir(), fmt.Sprintf("gomq-ipc-%d-%d", os.Getpid(), inprocSeq.Add(1)))
	})

	AfterEach(func() {
		Expect(ctx.Term()).ToNot(HaveOccurred())
		_ = os.Remove(path)
	})

	It("should run a request over a unix socket", func() {
		addr := "ipc://" + path

		rep, err := ctx.NewSocket(libsck.TypeRep)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = rep.Close() }()
		Expect(rep.Bind(addr)).ToNot(HaveOccurred())

		req, err := ctx.NewSocket(libsck.TypeReq)
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = req.Close() }()
		Expect(req.Connect(addr)).ToNot(HaveOccurred())

		Expect(req.SendBytes([]byte("over ipc"), libsck.FlagNone)).ToNot(HaveOccurred())

		got, err := recvWithin(rep, 5*time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(got)).To(Equal("over ipc"))

		Expect(rep.SendBytes([]byte("ack"), libsck.FlagNone)).ToNot(HaveOccurred())

		got, err = recvWithin(req, 5*time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(got)).To(Equal("ack"))
	})
})
