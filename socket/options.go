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

// errUnhandledOption routes a tag that a pattern does not own back to the
// generic option block.
var errUnhandledOption = ErrorInvalidArgument.Error(nil)

func isOptionUnhandled(err error) bool {
	return err == errUnhandledOption
}

// Option is the integer tag identifying one socket option.
type Option int

const (
	OptSndHWM Option = iota + 1
	OptRcvHWM
	OptLinger
	OptReconnectIvl
	OptReconnectIvlMax
	OptConnectTimeout
	OptBacklog
	OptSndBuf
	OptRcvBuf
	OptTOS
	OptKeepAlive
	OptKeepAliveCnt
	OptKeepAliveIdle
	OptKeepAliveIntvl
	OptSndTimeo
	OptRcvTimeo
	OptMaxMsgSize
	OptImmediate
	OptIPv6
	OptRoutingID
	OptSubscribe
	OptUnsubscribe
	OptMechanism
	OptPlainServer
	OptPlainUsername
	OptPlainPassword
	OptZapDomain
	OptAcceptFilter
	OptRouterMandatory
	OptXPubVerbose
	OptLastEndpoint
	OptType
	OptRcvMore
	OptEvents
)

// Security mechanism selectors.
const (
	MechanismNull = iota
	MechanismPlain
)

// Options is the tunable state carried by every socket and inherited by the
// objects it spawns. Time values are milliseconds; -1 means infinite where a
// duration is expected.
type Options struct {
	SndHWM int
	RcvHWM int

	Linger          int
	ReconnectIvl    int
	ReconnectIvlMax int
	ConnectTimeout  int
	Backlog         int

	SndBuf int
	RcvBuf int
	TOS    int

	KeepAlive      int
	KeepAliveCnt   int
	KeepAliveIdle  int
	KeepAliveIntvl int

	SndTimeo int
	RcvTimeo int

	MaxMsgSize int64

	// Immediate delays the socket-session pipe until the connection is
	// really up.
	Immediate bool
	IPv6      bool

	RoutingID []byte

	Mechanism     int
	PlainServer   bool
	PlainUsername string
	PlainPassword string
	ZapDomain     string

	AcceptFilters []string

	RouterMandatory bool
	XPubVerbose     bool

	sockType Type
	// RecvRoutingID: router sockets learn peer identities from the
	// handshake metadata.
	recvRoutingID bool
}

func defaultOptions(t Type) *Options {
	return &Options{
		SndHWM:          1000,
		RcvHWM:          1000,
		Linger:          -1,
		ReconnectIvl:    100,
		ReconnectIvlMax: 0,
		ConnectTimeout:  0,
		Backlog:         100,
		SndBuf:          -1,
		RcvBuf:          -1,
		KeepAlive:       -1,
		KeepAliveCnt:    -1,
		KeepAliveIdle:   -1,
		KeepAliveIntvl:  -1,
		SndTimeo:        -1,
		RcvTimeo:        -1,
		MaxMsgSize:      -1,
		sockType:        t,
		recvRoutingID:   t == TypeRouter,
	}
}

func optInt(v interface{}) (int, bool) {
	switch i := v.(type) {
	case int:
		return i, true
	case int64:
		return int(i), true
	case int32:
		return int(i), true
	}
	return 0, false
}

func optBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int:
		return b != 0, true
	}
	return false, false
}

func optBytes(v interface{}) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

// set applies one option tag with validation; pattern-specific tags were
// already routed through the pattern hook by the caller.
func (o *Options) set(opt Option, v interface{}) error {
	switch opt {
	case OptSndHWM:
		if i, k := optInt(v); k && i >= 0 {
			o.SndHWM = i
			return nil
		}

	case OptRcvHWM:
		if i, k := optInt(v); k && i >= 0 {
			o.RcvHWM = i
			return nil
		}

	case OptLinger:
		if i, k := optInt(v); k && i >= -1 {
			o.Linger = i
			return nil
		}

	case OptReconnectIvl:
		if i, k := optInt(v); k && i >= -1 {
			o.ReconnectIvl = i
			return nil
		}

	case OptReconnectIvlMax:
		if i, k := optInt(v); k && i >= 0 {
			o.ReconnectIvlMax = i
			return nil
		}

	case OptConnectTimeout:
		if i, k := optInt(v); k && i >= 0 {
			o.ConnectTimeout = i
			return nil
		}

	case OptBacklog:
		if i, k := optInt(v); k && i >= 0 {
			o.Backlog = i
			return nil
		}

	case OptSndBuf:
		if i, k := optInt(v); k && i >= -1 {
			o.SndBuf = i
			return nil
		}

	case OptRcvBuf:
		if i, k := optInt(v); k && i >= -1 {
			o.RcvBuf = i
			return nil
		}

	case OptTOS:
		if i, k := optInt(v); k && i >= 0 {
			o.TOS = i
			return nil
		}

	case OptKeepAlive:
		if i, k := optInt(v); k && i >= -1 && i <= 1 {
			o.KeepAlive = i
			return nil
		}

	case OptKeepAliveCnt:
		if i, k := optInt(v); k && (i == -1 || i > 0) {
			o.KeepAliveCnt = i
			return nil
		}

	case OptKeepAliveIdle:
		if i, k := optInt(v); k && (i == -1 || i > 0) {
			o.KeepAliveIdle = i
			return nil
		}

	case OptKeepAliveIntvl:
		if i, k := optInt(v); k && (i == -1 || i > 0) {
			o.KeepAliveIntvl = i
			return nil
		}

	case OptSndTimeo:
		if i, k := optInt(v); k && i >= -1 {
			o.SndTimeo = i
			return nil
		}

	case OptRcvTimeo:
		if i, k := optInt(v); k && i >= -1 {
			o.RcvTimeo = i
			return nil
		}

	case OptMaxMsgSize:
		switch i := v.(type) {
		case int64:
			if i >= -1 {
				o.MaxMsgSize = i
				return nil
			}
		case int:
			if i >= -1 {
				o.MaxMsgSize = int64(i)
				return nil
			}
		}

	case OptImmediate:
		if b, k := optBool(v); k {
			o.Immediate = b
			return nil
		}

	case OptIPv6:
		if b, k := optBool(v); k {
			o.IPv6 = b
			return nil
		}

	case OptRoutingID:
		if b, k := optBytes(v); k && len(b) > 0 && len(b) <= 255 && b[0] != 0 {
			o.RoutingID = append([]byte(nil), b...)
			return nil
		}

	case OptMechanism:
		if i, k := optInt(v); k && (i == MechanismNull || i == MechanismPlain) {
			o.Mechanism = i
			return nil
		}

	case OptPlainServer:
		if b, k := optBool(v); k {
			o.PlainServer = b
			if b {
				o.Mechanism = MechanismPlain
			}
			return nil
		}

	case OptPlainUsername:
		if b, k := optBytes(v); k {
			o.PlainUsername = string(b)
			o.Mechanism = MechanismPlain
			return nil
		}

	case OptPlainPassword:
		if b, k := optBytes(v); k {
			o.PlainPassword = string(b)
			o.Mechanism = MechanismPlain
			return nil
		}

	case OptZapDomain:
		if b, k := optBytes(v); k {
			o.ZapDomain = string(b)
			return nil
		}

	case OptAcceptFilter:
		if b, k := optBytes(v); k {
			if len(b) == 0 {
				o.AcceptFilters = nil
			} else {
				o.AcceptFilters = append(o.AcceptFilters, string(b))
			}
			return nil
		}
	}

	return ErrorInvalidArgument.Error(nil)
}

// get reads one option tag.
func (o *Options) get(opt Option) (interface{}, error) {
	switch opt {
	case OptSndHWM:
		return o.SndHWM, nil
	case OptRcvHWM:
		return o.RcvHWM, nil
	case OptLinger:
		return o.Linger, nil
	case OptReconnectIvl:
		return o.ReconnectIvl, nil
	case OptReconnectIvlMax:
		return o.ReconnectIvlMax, nil
	case OptConnectTimeout:
		return o.ConnectTimeout, nil
	case OptBacklog:
		return o.Backlog, nil
	case OptSndBuf:
		return o.SndBuf, nil
	case OptRcvBuf:
		return o.RcvBuf, nil
	case OptTOS:
		return o.TOS, nil
	case OptKeepAlive:
		return o.KeepAlive, nil
	case OptKeepAliveCnt:
		return o.KeepAliveCnt, nil
	case OptKeepAliveIdle:
		return o.KeepAliveIdle, nil
	case OptKeepAliveIntvl:
		return o.KeepAliveIntvl, nil
	case OptSndTimeo:
		return o.SndTimeo, nil
	case OptRcvTimeo:
		return o.RcvTimeo, nil
	case OptMaxMsgSize:
		return o.MaxMsgSize, nil
	case OptImmediate:
		return o.Immediate, nil
	case OptIPv6:
		return o.IPv6, nil
	case OptRoutingID:
		return append([]byte(nil), o.RoutingID...), nil
	case OptMechanism:
		return o.Mechanism, nil
	case OptPlainServer:
		return o.PlainServer, nil
	case OptPlainUsername:
		return o.PlainUsername, nil
	case OptPlainPassword:
		return o.PlainPassword, nil
	case OptZapDomain:
		return o.ZapDomain, nil
	case OptType:
		return o.sockType, nil
	}

	return nil, ErrorInvalidArgument.Error(nil)
}
