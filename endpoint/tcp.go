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

package endpoint

import (
	"net"
	"strconv"
	"strings"

	libptc "github.com/nabbar/golib/network/protocol"
	"golang.org/x/sys/unix"
)

// TCPAddr is a resolved tcp endpoint ready for the raw socket calls.
type TCPAddr struct {
	Family   int
	Sockaddr unix.Sockaddr
}

// ResolveTCP resolves host:port of a tcp endpoint into a socket address.
// The wildcard host * binds every interface; port * and ! request an
// ephemeral port. When ipv6 is false only IPv4 addresses are accepted.
func ResolveTCP(address string, ipv6 bool) (*TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, ErrorInvalidURI.Error(err)
	}

	var port int
	switch portStr {
	case "*", "!":
		port = 0
	default:
		if port, err = strconv.Atoi(portStr); err != nil || port < 0 || port > 65535 {
			return nil, ErrorInvalidURI.Error(nil)
		}
	}

	var ip net.IP
	switch {
	case host == "*" && ipv6:
		ip = net.IPv6unspecified
	case host == "*":
		ip = net.IPv4zero
	default:
		if ip = net.ParseIP(host); ip == nil {
			netw := libptc.NetworkTCP4.Code()
			if ipv6 {
				netw = libptc.NetworkTCP.Code()
			}
			a, e := net.ResolveTCPAddr(netw, net.JoinHostPort(host, strconv.Itoa(port)))
			if e != nil {
				return nil, ErrorResolve.Error(e)
			}
			ip = a.IP
		}
	}

	if v4 := ip.To4(); v4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], v4)
		return &TCPAddr{Family: unix.AF_INET, Sockaddr: sa}, nil
	}

	if !ipv6 {
		return nil, ErrorResolve.Error(nil)
	}

	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return &TCPAddr{Family: unix.AF_INET6, Sockaddr: sa}, nil
}

// SockaddrString formats a bound socket address back into the host:port
// form, used to report the effective endpoint after an ephemeral bind.
func SockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrUnix:
		return a.Name
	}
	return ""
}

// MatchCIDR reports whether the peer address of an accepted connection
// matches one of the given filters. Filters use the from/mask form of
// net.ParseCIDR; the match is strict on the address family actually
// observed.
func MatchCIDR(sa unix.Sockaddr, filters []string) bool {
	if len(filters) == 0 {
		return true
	}

	var ip net.IP
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		ip = net.IP(a.Addr[:])
	case *unix.SockaddrInet6:
		ip = net.IP(a.Addr[:])
	default:
		return false
	}

	for _, f := range filters {
		if !strings.Contains(f, "/") {
			if o := net.ParseIP(f); o != nil && o.Equal(ip) {
				return true
			}
			continue
		}
		if _, ipnet, err := net.ParseCIDR(f); err == nil {
			if (ipnet.IP.To4() == nil) != (ip.To4() == nil) {
				continue
			}
			if ipnet.Contains(ip) {
				return true
			}
		}
	}

	return false
}
