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
	"golang.org/x/sys/unix"
)

// openStreamSocket creates a non-blocking stream socket of the given
// family.
func openStreamSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, ErrorAddressNotAvailable.Error(err)
	}
	return fd, nil
}

// tuneBuffers applies the socket buffer limits.
func tuneBuffers(fd int, opts *Options) {
	if opts.SndBuf >= 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SndBuf)
	}
	if opts.RcvBuf >= 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, opts.RcvBuf)
	}
}

// tuneTOS applies the type-of-service priority.
func tuneTOS(fd int, opts *Options, family int) {
	if opts.TOS == 0 {
		return
	}

	switch family {
	case unix.AF_INET:
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, opts.TOS)
	case unix.AF_INET6:
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, opts.TOS)
	}
}

// tuneConnected applies the per-connection tcp settings on a freshly
// connected or accepted descriptor.
func tuneConnected(fd int, opts *Options, family int) {
	if family == unix.AF_UNIX {
		return
	}

	// Batching is done in the engine buffers; Nagle only adds latency.
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	if opts.KeepAlive != -1 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, opts.KeepAlive)

		if opts.KeepAlive == 1 {
			if opts.KeepAliveCnt > 0 {
				_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, opts.KeepAliveCnt)
			}
			if opts.KeepAliveIdle > 0 {
				_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, opts.KeepAliveIdle)
			}
			if opts.KeepAliveIntvl > 0 {
				_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, opts.KeepAliveIntvl)
			}
		}
	}

	tuneTOS(fd, opts, family)
	tuneBuffers(fd, opts)
}
