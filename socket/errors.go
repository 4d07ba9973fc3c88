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
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const (
	// ErrorWouldBlock is the would-block indication: not a failure, only
	// a deadline or non-blocking flag outcome.
	ErrorWouldBlock liberr.CodeError = iota + liberr.MinAvailable + 220
	// ErrorTerminated is returned by every operation once the owning
	// context started its shutdown.
	ErrorTerminated
	ErrorInvalidArgument
	ErrorInvalidState
	ErrorNotSupported
	ErrorAddressInUse
	ErrorAddressNotAvailable
	ErrorEndpointNotFound
	ErrorConnectionRefused
	ErrorTooManySockets
	ErrorHostUnreachable
	ErrorSocketClosed
	ErrorMoreExpected
)

func init() {
	if liberr.ExistInMapMessage(ErrorWouldBlock) {
		panic(fmt.Errorf("error code collision gomq/socket"))
	}
	liberr.RegisterIdFctMessage(ErrorWouldBlock, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorWouldBlock:
		return "operation cannot complete before deadline"
	case ErrorTerminated:
		return "context was terminated"
	case ErrorInvalidArgument:
		return "argument is not valid"
	case ErrorInvalidState:
		return "operation cannot be performed in current socket state"
	case ErrorNotSupported:
		return "operation is not supported by socket pattern"
	case ErrorAddressInUse:
		return "endpoint address already in use"
	case ErrorAddressNotAvailable:
		return "endpoint address is not available"
	case ErrorEndpointNotFound:
		return "endpoint is not bound or connected"
	case ErrorConnectionRefused:
		return "connection refused by peer"
	case ErrorTooManySockets:
		return "maximum count of sockets reached"
	case ErrorHostUnreachable:
		return "peer routing id is not reachable"
	case ErrorSocketClosed:
		return "socket is closed"
	case ErrorMoreExpected:
		return "multipart message is incomplete"
	}

	return liberr.NullMessage
}

// IsWouldBlock reports whether err is the would-block indication.
func IsWouldBlock(err error) bool {
	if e, k := err.(liberr.Error); k {
		return e.IsCode(ErrorWouldBlock)
	}
	return false
}

// IsTerminated reports whether err is the context-terminated indication.
func IsTerminated(err error) bool {
	if e, k := err.(liberr.Error); k {
		return e.IsCode(ErrorTerminated)
	}
	return false
}
