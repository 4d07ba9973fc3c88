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

package wire_test

import (
	"bytes"
	"encoding/binary"

	libmsg "github/sabouaram/gomq/message"
	libwir "github/sabouaram/gomq/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// encodeWhole drains one loaded frame through an encoder.
func encodeWhole(e *libwir.Encoder, m libmsg.Message) []byte {
	e.LoadMsg(m)

	var out []byte
	buf := make([]byte, 4096)

	for e.HasData() {
		n := e.Encode(buf)
		out = append(out, buf[:n]...)
	}

	return out
}

var _ = Describe("Framing codec", func() {
	Context("encoding widths", func() {
		It("should use the short length for bodies up to 255 bytes", func() {
			for _, size := range []int{0, 1, 254, 255} {
				m := libmsg.NewData(make([]byte, size))
				out := encodeWhole(libwir.NewEncoder(), m)

				Expect(out[0] & libwir.FlagLong).To(BeZero())
				Expect(int(out[1])).To(Equal(size))
				Expect(out).To(HaveLen(2 + size))
			}
		})

		It("should use the long length beyond 255 bytes", func() {
			for _, size := range []int{256, 65535} {
				m := libmsg.NewData(make([]byte, size))
				out := encodeWhole(libwir.NewEncoder(), m)

				Expect(out[0] & libwir.FlagLong).ToNot(BeZero())
				Expect(binary.BigEndian.Uint64(out[1:9])).To(Equal(uint64(size)))
				Expect(out).To(HaveLen(9 + size))
			}
		})

		It("should carry the more and command bits", func() {
			m := libmsg.NewData([]byte("x"))
			m.SetFlags(libmsg.More)
			out := encodeWhole(libwir.NewEncoder(), m)
			Expect(out[0] & libwir.FlagMore).ToNot(BeZero())

			c := libmsg.NewData([]byte("y"))
			c.SetFlags(libmsg.Command)
			out = encodeWhole(libwir.NewEncoder(), c)
			Expect(out[0] & libwir.FlagCommand).ToNot(BeZero())
		})
	})

	Context("round trip", func() {
		It("should be the identity on a frame sequence", func() {
			bodies := [][]byte{
				[]byte("hello world : 0"),
				{},
				bytes.Repeat([]byte{0xab}, 300),
				[]byte("tail"),
			}

			var wireData []byte
			for i, b := range bodies {
				m := libmsg.NewData(append([]byte(nil), b...))
				if i < len(bodies)-1 {
					m.SetFlags(libmsg.More)
				}
				wireData = append(wireData, encodeWhole(libwir.NewEncoder(), m)...)
			}

			d := libwir.NewDecoder(-1)
			var got []libmsg.Message

			for len(wireData) > 0 {
				n, m, err := d.Decode(wireData)
				Expect(err).ToNot(HaveOccurred())
				wireData = wireData[n:]
				if m != nil {
					got = append(got, *m)
				}
			}

			Expect(got).To(HaveLen(len(bodies)))
			for i, b := range bodies {
				if len(b) == 0 {
					Expect(got[i].Size()).To(Equal(0))
				} else {
					Expect(got[i].Data()).To(Equal(b))
				}
				Expect(got[i].HasMore()).To(Equal(i < len(bodies)-1))
			}
		})

		It("should decode byte by byte", func() {
			m := libmsg.NewData([]byte("fragmented"))
			wireData := encodeWhole(libwir.NewEncoder(), m)

			d := libwir.NewDecoder(-1)
			var got *libmsg.Message

			for _, b := range wireData {
				n, res, err := d.Decode([]byte{b})
				Expect(err).ToNot(HaveOccurred())
				Expect(n).To(Equal(1))
				if res != nil {
					got = res
				}
			}

			Expect(got).ToNot(BeNil())
			Expect(string(got.Data())).To(Equal("fragmented"))
		})
	})

	Context("limits and violations", func() {
		It("should reject frames beyond the size limit before allocating", func() {
			hdr := make([]byte, 9)
			hdr[0] = libwir.FlagLong
			binary.BigEndian.PutUint64(hdr[1:9], 1<<32)

			d := libwir.NewDecoder(1 << 20)
			_, _, err := d.Decode(hdr)
			Expect(err).To(HaveOccurred())
		})

		It("should reject sizes one past a power boundary the same way", func() {
			hdr := make([]byte, 9)
			hdr[0] = libwir.FlagLong
			binary.BigEndian.PutUint64(hdr[1:9], 1<<32+1)

			d := libwir.NewDecoder(1 << 20)
			_, _, err := d.Decode(hdr)
			Expect(err).To(HaveOccurred())
		})

		It("should reject unknown flag bits", func() {
			d := libwir.NewDecoder(-1)
			_, _, err := d.Decode([]byte{0x80, 0x00})
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Greeting", func() {
	It("should round trip", func() {
		g := libwir.BuildGreeting("NULL", false)
		Expect(g).To(HaveLen(libwir.GreetingSize))

		parsed, err := libwir.ParseGreeting(g)
		Expect(err).ToNot(HaveOccurred())
		Expect(parsed.Mechanism).To(Equal("NULL"))
		Expect(parsed.VersionMajor).To(Equal(byte(3)))
		Expect(parsed.AsServer).To(BeFalse())
	})

	It("should carry the as-server flag", func() {
		g := libwir.BuildGreeting("PLAIN", true)
		parsed, err := libwir.ParseGreeting(g)
		Expect(err).ToNot(HaveOccurred())
		Expect(parsed.Mechanism).To(Equal("PLAIN"))
		Expect(parsed.AsServer).To(BeTrue())
	})

	It("should refuse a legacy peer on the first byte", func() {
		Expect(libwir.CheckSignature([]byte{0x01})).To(HaveOccurred())
	})

	It("should refuse an unsupported version", func() {
		g := libwir.BuildGreeting("NULL", false)
		g[libwir.SignatureSize] = 2

		_, err := libwir.ParseGreeting(g)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Mechanisms", func() {
	// drive exchanges commands between two mechanisms until both settle.
	drive := func(a, b libwir.Mechanism) {
		for i := 0; i < 16; i++ {
			progressed := false

			if m, k := a.NextHandshakeCommand(); k {
				Expect(b.ProcessHandshakeCommand(m)).ToNot(HaveOccurred())
				progressed = true
			}
			if m, k := b.NextHandshakeCommand(); k {
				Expect(a.ProcessHandshakeCommand(m)).ToNot(HaveOccurred())
				progressed = true
			}

			if !progressed {
				return
			}
		}
	}

	It("should complete the null handshake and exchange metadata", func() {
		a := libwir.NewNull(map[string]string{libwir.PropSocketType: "DEALER"})
		b := libwir.NewNull(map[string]string{libwir.PropSocketType: "ROUTER"})

		drive(a, b)

		Expect(a.Status()).To(Equal(libwir.StatusReady))
		Expect(b.Status()).To(Equal(libwir.StatusReady))

		st, k := a.PeerMetadata().Get(libwir.PropSocketType)
		Expect(k).To(BeTrue())
		Expect(st).To(Equal("ROUTER"))
	})

	It("should complete the plain handshake with matching credentials", func() {
		c := libwir.NewPlainClient("admin", "secret", map[string]string{libwir.PropSocketType: "REQ"})
		s := libwir.NewPlainServer("admin", "secret", map[string]string{libwir.PropSocketType: "REP"})

		drive(c, s)

		Expect(c.Status()).To(Equal(libwir.StatusReady))
		Expect(s.Status()).To(Equal(libwir.StatusReady))
	})

	It("should fail the plain handshake on wrong credentials", func() {
		c := libwir.NewPlainClient("admin", "wrong", nil)
		s := libwir.NewPlainServer("admin", "secret", nil)

		m, k := c.NextHandshakeCommand()
		Expect(k).To(BeTrue())
		Expect(s.ProcessHandshakeCommand(m)).To(HaveOccurred())
		Expect(s.Status()).To(Equal(libwir.StatusError))
	})
})
