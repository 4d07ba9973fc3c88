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

package message_test

import (
	libmsg "github/sabouaram/gomq/message"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Message", func() {
	Context("construction", func() {
		It("should hold the given payload", func() {
			m := libmsg.NewString("hello world : 0")
			Expect(m.Size()).To(Equal(15))
			Expect(string(m.Data())).To(Equal("hello world : 0"))
		})

		It("should treat the zero value as an empty frame", func() {
			var m libmsg.Message
			Expect(m.Size()).To(Equal(0))
			Expect(m.IsVoid()).To(BeTrue())
		})

		It("should mark delimiters as such", func() {
			m := libmsg.NewDelimiter()
			Expect(m.IsDelimiter()).To(BeTrue())
			Expect(m.Size()).To(Equal(0))
		})
	})

	Context("flags", func() {
		It("should set and clear the more flag", func() {
			m := libmsg.NewString("x")
			Expect(m.HasMore()).To(BeFalse())

			m.SetFlags(libmsg.More)
			Expect(m.HasMore()).To(BeTrue())

			m.ResetFlags(libmsg.More)
			Expect(m.HasMore()).To(BeFalse())
		})

		It("should keep flag bits independent", func() {
			m := libmsg.NewString("x")
			m.SetFlags(libmsg.More | libmsg.Command)

			m.ResetFlags(libmsg.More)
			Expect(m.IsCommand()).To(BeTrue())
			Expect(m.HasMore()).To(BeFalse())
		})
	})

	Context("copy and move", func() {
		It("should share the payload between copies", func() {
			m := libmsg.NewData([]byte{1, 2, 3})
			c := m.Copy()

			Expect(c.Data()).To(Equal(m.Data()))

			m.Close()
			Expect(c.Data()).To(Equal([]byte{1, 2, 3}))
			c.Close()
		})

		It("should leave the source empty after move", func() {
			m := libmsg.NewString("payload")
			v := m.Move()

			Expect(m.IsVoid()).To(BeTrue())
			Expect(string(v.Data())).To(Equal("payload"))
		})
	})

	Context("metadata", func() {
		It("should expose peer properties", func() {
			md := libmsg.NewMetadata(map[string]string{"Socket-Type": "DEALER"})

			m := libmsg.NewString("x")
			m.SetMetadata(md)

			v, k := m.Metadata().Get("Socket-Type")
			Expect(k).To(BeTrue())
			Expect(v).To(Equal("DEALER"))
		})

		It("should share one dictionary between frames", func() {
			md := libmsg.NewMetadata(map[string]string{"a": "b"})

			m1 := libmsg.NewString("x")
			m1.SetMetadata(md)
			m2 := m1.Copy()

			m1.Close()

			v, k := m2.Metadata().Get("a")
			Expect(k).To(BeTrue())
			Expect(v).To(Equal("b"))
		})

		It("should set routing ids per frame", func() {
			m := libmsg.NewString("x")
			m.SetRoutingID(42)
			Expect(m.RoutingID()).To(Equal(uint32(42)))
		})
	})
})
