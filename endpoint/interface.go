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

// Package endpoint parses transport URIs and resolves them to socket
// addresses.
//
// Supported forms:
//
//	tcp://host:port[;iface]   host may be * (any) or [::] ; port may be
//	                          * or ! for an ephemeral port
//	ipc://path                filesystem or abstract unix socket path
//	inproc://name             in-process endpoint name
//
// udp, tipc and pgm URIs are recognised but rejected with a dedicated code:
// those transports are outside the scope of this module.
package endpoint

import (
	"strings"
)

// Transport identifies the transport selected by a URI scheme.
type Transport uint8

const (
	TransportUnknown Transport = iota
	TransportTCP
	TransportIPC
	TransportInProc
	TransportUDP
	TransportTIPC
	TransportPGM
)

// Endpoint is one parsed transport URI.
type Endpoint struct {
	Transport Transport
	// Address is the URI remainder after the scheme: host:port for tcp,
	// the path for ipc, the name for inproc.
	Address string
	// Iface is the optional source interface of a tcp URI.
	Iface string
}

// String reassembles the canonical URI.
func (o Endpoint) String() string {
	s := o.Transport.Scheme() + "://" + o.Address
	if o.Iface != "" {
		s += ";" + o.Iface
	}
	return s
}

// Scheme returns the URI scheme of the transport.
func (o Transport) Scheme() string {
	switch o {
	case TransportTCP:
		return "tcp"
	case TransportIPC:
		return "ipc"
	case TransportInProc:
		return "inproc"
	case TransportUDP:
		return "udp"
	case TransportTIPC:
		return "tipc"
	case TransportPGM:
		return "pgm"
	}
	return ""
}

// Parse splits a transport URI into its endpoint parts. Implemented
// transports are tcp, ipc and inproc; udp, tipc and pgm parse but are
// reported unsupported; anything else is invalid.
func Parse(uri string) (Endpoint, error) {
	pos := strings.Index(uri, "://")
	if pos < 0 {
		return Endpoint{}, ErrorInvalidURI.Error(nil)
	}

	scheme := uri[:pos]
	rest := uri[pos+3:]

	if rest == "" {
		return Endpoint{}, ErrorInvalidURI.Error(nil)
	}

	switch scheme {
	case "tcp":
		ep := Endpoint{Transport: TransportTCP, Address: rest}
		if i := strings.LastIndex(rest, ";"); i >= 0 {
			ep.Address = rest[:i]
			ep.Iface = rest[i+1:]
		}
		if !strings.Contains(ep.Address, ":") {
			return Endpoint{}, ErrorInvalidURI.Error(nil)
		}
		return ep, nil

	case "ipc":
		return Endpoint{Transport: TransportIPC, Address: rest}, nil

	case "inproc":
		return Endpoint{Transport: TransportInProc, Address: rest}, nil

	case "udp":
		return Endpoint{Transport: TransportUDP, Address: rest}, ErrorUnsupportedTransport.Error(nil)

	case "tipc":
		return Endpoint{Transport: TransportTIPC, Address: rest}, ErrorUnsupportedTransport.Error(nil)

	case "pgm", "epgm":
		return Endpoint{Transport: TransportPGM, Address: rest}, ErrorUnsupportedTransport.Error(nil)
	}

	return Endpoint{}, ErrorInvalidURI.Error(nil)
}
