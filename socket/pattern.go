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
	libpip "github/sabouaram/gomq/pipe"
)

// patternBase supplies the neutral pattern hooks; each pattern shadows the
// ones it implements.
type patternBase struct {
	SocketBase
}

func (o *patternBase) xAttachPipe(*libpip.Pipe, bool, bool) {}

func (o *patternBase) xSend(*libmsg.Message) error {
	return ErrorNotSupported.Error(nil)
}

func (o *patternBase) xRecv() (libmsg.Message, error) {
	var zero libmsg.Message
	return zero, ErrorNotSupported.Error(nil)
}

func (o *patternBase) xHasIn() bool  { return false }
func (o *patternBase) xHasOut() bool { return false }

func (o *patternBase) xReadActivated(*libpip.Pipe)  {}
func (o *patternBase) xWriteActivated(*libpip.Pipe) {}
func (o *patternBase) xHiccuped(*libpip.Pipe)       {}
func (o *patternBase) xPipeTerminated(*libpip.Pipe) {}

func (o *patternBase) xSetOption(Option, interface{}) error {
	return errUnhandledOption
}
