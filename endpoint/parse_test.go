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

package endpoint_test

import (
	libepd "github/sabouaram/gomq/endpoint"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parse", func() {
	It("should parse tcp endpoints", func() {
		ep, err := libepd.Parse("tcp://127.0.0.1:5555")
		Expect(err).ToNot(HaveOccurred())
		Expect(ep.Transport).To(Equal(libepd.TransportTCP))
		Expect(ep.Address).To(Equal("127.0.0.1:5555"))
	})

	It("should parse the source interface suffix", func() {
		ep, err := libepd.Parse("tcp://host:1234;eth0")
		Expect(err).ToNot(HaveOccurred())
		Expect(ep.Address).To(Equal("host:1234"))
		Expect(ep.Iface).To(Equal("eth0"))
	})

	It("should parse ipc and inproc endpoints", func() {
		ep, err := libepd.Parse("ipc:///tmp/sock")
		Expect(err).ToNot(HaveOccurred())
		Expect(ep.Transport).To(Equal(libepd.TransportIPC))
		Expect(ep.Address).To(Equal("/tmp/sock"))

		ep, err = libepd.Parse("inproc://name")
		Expect(err).ToNot(HaveOccurred())
		Expect(ep.Transport).To(Equal(libepd.TransportInProc))
		Expect(ep.Address).To(Equal("name"))
	})

	It("should recognise but refuse udp, tipc and pgm", func() {
		for _, uri := range []string{"udp://h:1", "tipc://1.2.3", "pgm://eth0;1.2.3.4:5"} {
			_, err := libepd.Parse(uri)
			Expect(err).To(HaveOccurred())
		}
	})

	It("should refuse malformed uris without mutating state", func() {
		for _, uri := range []string{"", "tcp", "tcp://", "tcp://nohost", "foo://x"} {
			_, err := libepd.Parse(uri)
			Expect(err).To(HaveOccurred())
		}
	})

	It("should reassemble the canonical uri", func() {
		ep, err := libepd.Parse("tcp://127.0.0.1:80")
		Expect(err).ToNot(HaveOccurred())
		Expect(ep.String()).To(Equal("tcp://127.0.0.1:80"))
	})
})

var _ = Describe("ResolveTCP", func() {
	It("should resolve literal addresses", func() {
		a, err := libepd.ResolveTCP("127.0.0.1:5555", false)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family).To(Equal(unix.AF_INET))

		sa, k := a.Sockaddr.(*unix.SockaddrInet4)
		Expect(k).To(BeTrue())
		Expect(sa.Port).To(Equal(5555))
	})

	It("should resolve the any wildcard", func() {
		a, err := libepd.ResolveTCP("*:5555", false)
		Expect(err).ToNot(HaveOccurred())

		sa, k := a.Sockaddr.(*unix.SockaddrInet4)
		Expect(k).To(BeTrue())
		Expect(sa.Addr).To(Equal([4]byte{0, 0, 0, 0}))
	})

	It("should map the ephemeral port markers to zero", func() {
		for _, p := range []string{"*", "!"} {
			a, err := libepd.ResolveTCP("127.0.0.1:"+p, false)
			Expect(err).ToNot(HaveOccurred())

			sa, k := a.Sockaddr.(*unix.SockaddrInet4)
			Expect(k).To(BeTrue())
			Expect(sa.Port).To(Equal(0))
		}
	})

	It("should refuse ipv6 literals without the ipv6 option", func() {
		_, err := libepd.ResolveTCP("[::1]:5555", false)
		Expect(err).To(HaveOccurred())
	})

	It("should resolve ipv6 literals with the ipv6 option", func() {
		a, err := libepd.ResolveTCP("[::1]:5555", true)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Family).To(Equal(unix.AF_INET6))
	})
})

var _ = Describe("MatchCIDR", func() {
	peer4 := func(ip [4]byte) unix.Sockaddr {
		return &unix.SockaddrInet4{Addr: ip, Port: 1}
	}

	It("should accept everything without filters", func() {
		Expect(libepd.MatchCIDR(peer4([4]byte{10, 0, 0, 1}), nil)).To(BeTrue())
	})

	It("should match plain addresses and cidr ranges", func() {
		filters := []string{"192.168.1.0/24", "10.0.0.7"}

		Expect(libepd.MatchCIDR(peer4([4]byte{192, 168, 1, 20}), filters)).To(BeTrue())
		Expect(libepd.MatchCIDR(peer4([4]byte{10, 0, 0, 7}), filters)).To(BeTrue())
		Expect(libepd.MatchCIDR(peer4([4]byte{10, 0, 0, 8}), filters)).To(BeFalse())
	})

	It("should match strictly on the observed family", func() {
		filters := []string{"::/0"}
		Expect(libepd.MatchCIDR(peer4([4]byte{1, 2, 3, 4}), filters)).To(BeFalse())
	})
})
