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
	libmsg "github/sabouaram/gomq/message"
)

// subSock is the subscribe side with the subscription surface folded into
// the option interface.
type subSock struct {
	xsubSock
}

func newSub(ctx *Context, tid uint32) (*subSock, error) {
	s := &subSock{}
	if err := s.initXSub(ctx, tid, s, defaultOptions(TypeSub)); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *subSock) xSetOption(opt Option, v interface{}) error {
	if opt != OptSubscribe && opt != OptUnsubscribe {
		return errUnhandledOption
	}

	topic, k := optBytes(v)
	if !k {
		return ErrorInvalidArgument.Error(nil)
	}

	lead := byte(0)
	if opt == OptSubscribe {
		lead = 1
	}

	body := make([]byte, 0, 1+len(topic))
	body = append(body, lead)
	body = append(body, topic...)

	m := libmsg.NewData(body)
	return o.xsubSock.xSend(&m)
}

func (o *subSock) xSend(*libmsg.Message) error {
	return ErrorNotSupported.Error(nil)
}

func (o *subSock) xHasOut() bool {
	return false
}
