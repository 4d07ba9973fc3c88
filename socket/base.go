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
	"sync"
	"time"

	liberr "github.com/nabbar/golib/errors"
	loglvl "github.com/nabbar/golib/logger/level"
	libepd "github/sabouaram/gomq/endpoint"
	libmbx "github/sabouaram/gomq/mailbox"
	libmsg "github/sabouaram/gomq/message"
	libpip "github/sabouaram/gomq/pipe"
	libpol "github/sabouaram/gomq/poller"
)

// patternHooks is the extension surface a socket pattern implements over the
// generic plumbing.
type patternHooks interface {
	commandHandler

	xAttachPipe(p *libpip.Pipe, subscribeToAll, locallyInitiated bool)
	xSend(m *libmsg.Message) error
	xRecv() (libmsg.Message, error)
	xHasIn() bool
	xHasOut() bool
	xReadActivated(p *libpip.Pipe)
	xWriteActivated(p *libpip.Pipe)
	xHiccuped(p *libpip.Pipe)
	xPipeTerminated(p *libpip.Pipe)
	xSetOption(opt Option, v interface{}) error
}

type endpointRec struct {
	obj  *own
	pipe *libpip.Pipe
}

// SocketBase is the pattern-agnostic socket surface: the endpoint registry,
// the attached pipes, the app-thread command dispatch and the blocking
// machinery of send and recv. One concrete pattern embeds it and contributes
// the x-hooks.
type SocketBase struct {
	own

	hooks patternHooks

	mailbox libmbx.Mailbox[command]

	pipes []*libpip.Pipe

	endpoints map[string][]endpointRec
	inprocs   map[string][]*libpip.Pipe

	lastEndpoint string

	rcvmore       bool
	ctxTerminated bool
	closing       bool
	destroyed     bool

	reapPoller libpol.Poller
	reapHandle libpol.Handle

	monitorSync   sync.Mutex
	monitorSocket Socket
	monitorEvents EventType
}

func (o *SocketBase) initBase(ctx *Context, tid uint32, hooks patternHooks, opts *Options) error {
	m, err := libmbx.New[command](commandPipeGranularity)
	if err != nil {
		return err
	}

	o.mailbox = m
	o.hooks = hooks
	o.endpoints = make(map[string][]endpointRec)
	o.inprocs = make(map[string][]*libpip.Pipe)
	o.initOwn(ctx, tid, opts, hooks)

	return nil
}

// Type returns the socket pattern.
func (o *SocketBase) Type() Type {
	return o.options.sockType
}

func (o *SocketBase) baseSocket() *SocketBase {
	return o
}

// stop interrupts blocked callers on context shutdown.
func (o *SocketBase) stop() {
	o.ctx.sendCommand(o.getTid(), command{destObj: o.hooks, typ: cmdStop})
}

func (o *SocketBase) processStop() {
	o.monitorSync.Lock()
	o.stopMonitorLocked()
	o.monitorSync.Unlock()
	o.ctxTerminated = true
}

// processCommands drains the socket mailbox on the calling thread. A
// negative timeout blocks until at least one command arrives.
func (o *SocketBase) processCommands(timeout time.Duration, block bool) error {
	var (
		cmd command
		err error
	)

	if block {
		cmd, err = o.mailbox.Recv(timeout)
	} else {
		cmd, err = o.mailbox.Recv(0)
	}

	for err == nil {
		cmd.execute()
		cmd, err = o.mailbox.Recv(0)
	}

	if e, k := err.(liberr.Error); !k || !e.IsCode(libmbx.ErrorWouldBlock) {
		return err
	}

	if o.ctxTerminated {
		return ErrorTerminated.Error(nil)
	}

	return nil
}

// attachPipe wires one pipe endpoint into the socket on the socket thread.
func (o *SocketBase) attachPipe(p *libpip.Pipe, subscribeToAll, locallyInitiated bool) {
	p.SetEventSink(o)
	p.SetCommander(o.ctx.commander)
	p.SetTid(o.getTid())

	o.pipes = append(o.pipes, p)
	o.hooks.xAttachPipe(p, subscribeToAll, locallyInitiated)

	// A pipe arriving into a dying socket joins the shutdown directly.
	if o.isTerminating() {
		o.registerTermAcks(1)
		p.Terminate(false)
	}
}

// Bind attaches the socket to a local endpoint.
func (o *SocketBase) Bind(uri string) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	ep, err := libepd.Parse(uri)
	if err != nil {
		return err
	}

	if err = o.processCommands(0, false); err != nil {
		return err
	}

	switch ep.Transport {
	case libepd.TransportInProc:
		if err = o.ctx.registerEndpoint(ep.Address, o, o.options); err != nil {
			o.event(EventBindFailed, uri, 0)
			return err
		}
		for _, pc := range o.ctx.takePending(ep.Address) {
			o.adoptPending(pc)
		}
		o.lastEndpoint = uri
		return nil

	case libepd.TransportTCP, libepd.TransportIPC:
		t := o.chooseIOThread()
		if t == nil {
			return ErrorInvalidState.Error(nil)
		}

		l := newStreamListener(o.ctx, t, o, o.options)
		if err = l.setAddress(ep); err != nil {
			o.event(EventBindFailed, uri, 0)
			return err
		}

		o.lastEndpoint = l.endpointURI()
		o.addEndpoint(o.lastEndpoint, l.base(), nil)
		return nil
	}

	return ErrorInvalidArgument.Error(nil)
}

// Connect attaches the socket to a remote endpoint.
func (o *SocketBase) Connect(uri string) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	ep, err := libepd.Parse(uri)
	if err != nil {
		return err
	}

	if err = o.processCommands(0, false); err != nil {
		return err
	}

	if ep.Transport == libepd.TransportInProc {
		return o.connectInproc(ep, uri)
	}

	t := o.chooseIOThread()
	if t == nil {
		return ErrorInvalidState.Error(nil)
	}

	sess := newSession(o.ctx, t, true, o, o.options, ep, uri)

	var local *libpip.Pipe
	if !o.options.Immediate {
		p0, p1 := libpip.NewPair(o.options.RcvHWM, o.options.SndHWM)
		p1.SetTid(t.getTid())
		p1.SetCommander(o.ctx.commander)
		sess.adoptPipe(p1)
		local = p0
		o.attachPipe(local, o.icanhasall(), true)
	}

	o.addEndpoint(uri, sess.base(), local)
	o.lastEndpoint = uri
	return nil
}

// icanhasall reports whether locally initiated pipes subscribe to every
// message, which is the behaviour of the pub side.
func (o *SocketBase) icanhasall() bool {
	return o.options.sockType == TypePub || o.options.sockType == TypeXPub
}

func (o *SocketBase) connectInproc(ep libepd.Endpoint, uri string) error {
	entry, found := o.ctx.findEndpoint(ep.Address)

	if !found {
		p0, p1 := libpip.NewPair(o.options.RcvHWM, o.options.SndHWM)
		p0.SetTid(o.getTid())
		// Until a binder adopts it, the staged end answers on the
		// connecting socket's thread.
		p1.SetTid(o.getTid())
		p1.SetCommander(o.ctx.commander)
		o.attachPipe(p0, o.icanhasall(), true)
		o.ctx.pendConnection(ep.Address, pendingConnection{
			connectPipe: p0,
			bindPipe:    p1,
			options:     o.options,
		})
		o.inprocs[ep.Address] = append(o.inprocs[ep.Address], p0)
		o.lastEndpoint = uri
		return nil
	}

	sndhwm := 0
	if o.options.SndHWM > 0 && entry.options.RcvHWM > 0 {
		sndhwm = o.options.SndHWM + entry.options.RcvHWM
	}
	rcvhwm := 0
	if o.options.RcvHWM > 0 && entry.options.SndHWM > 0 {
		rcvhwm = o.options.RcvHWM + entry.options.SndHWM
	}

	p0, p1 := libpip.NewPair(rcvhwm, sndhwm)
	p0.SetTid(o.getTid())
	p1.SetTid(entry.socket.getTid())
	p1.SetCommander(o.ctx.commander)

	o.attachPipe(p0, o.icanhasall(), true)

	// The bound socket's sequence was pinned by findEndpoint, so the bind
	// command cannot outlive it.
	o.sendBind(entry.socket, p1, false)
	o.sendInprocConnected(entry.socket)

	o.inprocs[ep.Address] = append(o.inprocs[ep.Address], p0)
	o.lastEndpoint = uri
	return nil
}

// adoptPending wires one staged inproc connect after the local bind, on the
// binder thread.
func (o *SocketBase) adoptPending(pc pendingConnection) {
	sndhwm := 0
	if pc.options.SndHWM > 0 && o.options.RcvHWM > 0 {
		sndhwm = pc.options.SndHWM + o.options.RcvHWM
	}
	rcvhwm := 0
	if pc.options.RcvHWM > 0 && o.options.SndHWM > 0 {
		rcvhwm = pc.options.RcvHWM + o.options.SndHWM
	}

	pc.connectPipe.SetHWMs(rcvhwm, sndhwm)
	pc.bindPipe.SetHWMs(sndhwm, rcvhwm)

	pc.bindPipe.SetTid(o.getTid())
	pc.bindPipe.SetCommander(o.ctx.commander)
	o.attachPipe(pc.bindPipe, false, false)
}

func (o *SocketBase) addEndpoint(uri string, obj *own, p *libpip.Pipe) {
	o.launchChild(obj)
	o.endpoints[uri] = append(o.endpoints[uri], endpointRec{obj: obj, pipe: p})
}

// Unbind detaches a bound endpoint.
func (o *SocketBase) Unbind(uri string) error {
	return o.termEndpoint(uri)
}

// Disconnect detaches a connected endpoint.
func (o *SocketBase) Disconnect(uri string) error {
	return o.termEndpoint(uri)
}

func (o *SocketBase) termEndpoint(uri string) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	ep, err := libepd.Parse(uri)
	if err != nil {
		return err
	}

	if err = o.processCommands(0, false); err != nil {
		return err
	}

	if ep.Transport == libepd.TransportInProc {
		pipes, k := o.inprocs[ep.Address]
		if !k {
			return ErrorEndpointNotFound.Error(nil)
		}
		for _, p := range pipes {
			p.Terminate(true)
		}
		delete(o.inprocs, ep.Address)
		o.ctx.unregisterEndpoints(o)
		return nil
	}

	recs, k := o.endpoints[uri]
	if !k || len(recs) == 0 {
		return ErrorEndpointNotFound.Error(nil)
	}

	for _, r := range recs {
		o.termChild(r.obj)
		if r.pipe != nil {
			r.pipe.Terminate(false)
		}
	}
	delete(o.endpoints, uri)
	return nil
}

// SendMsg sends one frame, honouring the pattern, the high-water marks and
// the send timeout.
func (o *SocketBase) SendMsg(m *libmsg.Message, flags Flag) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	if err := o.processCommands(0, false); err != nil {
		return err
	}

	m.ResetFlags(libmsg.More)
	if flags&FlagSndMore != 0 {
		m.SetFlags(libmsg.More)
	}

	err := o.hooks.xSend(m)
	if err == nil {
		return nil
	}
	if !IsWouldBlock(err) {
		return err
	}

	if flags&FlagDontWait != 0 || o.options.SndTimeo == 0 {
		return err
	}

	timeout := o.options.SndTimeo
	var end time.Time
	if timeout > 0 {
		end = time.Now().Add(time.Duration(timeout) * time.Millisecond)
	}

	for {
		wait := time.Duration(-1)
		if timeout > 0 {
			wait = time.Until(end)
			if wait <= 0 {
				return ErrorWouldBlock.Error(nil)
			}
		}

		if err = o.processCommands(wait, true); err != nil {
			return err
		}

		err = o.hooks.xSend(m)
		if err == nil {
			return nil
		}
		if !IsWouldBlock(err) {
			return err
		}
	}
}

// RecvMsg receives one frame, honouring the pattern and the receive
// timeout.
func (o *SocketBase) RecvMsg(flags Flag) (libmsg.Message, error) {
	var zero libmsg.Message

	if o.closing {
		return zero, ErrorSocketClosed.Error(nil)
	}

	if err := o.processCommands(0, false); err != nil {
		return zero, err
	}

	m, err := o.hooks.xRecv()
	if err == nil {
		o.extractFlags(&m)
		return m, nil
	}
	if !IsWouldBlock(err) {
		return zero, err
	}

	if flags&FlagDontWait != 0 || o.options.RcvTimeo == 0 {
		return zero, err
	}

	timeout := o.options.RcvTimeo
	var end time.Time
	if timeout > 0 {
		end = time.Now().Add(time.Duration(timeout) * time.Millisecond)
	}

	for {
		wait := time.Duration(-1)
		if timeout > 0 {
			wait = time.Until(end)
			if wait <= 0 {
				return zero, ErrorWouldBlock.Error(nil)
			}
		}

		if err = o.processCommands(wait, true); err != nil {
			return zero, err
		}

		m, err = o.hooks.xRecv()
		if err == nil {
			o.extractFlags(&m)
			return m, nil
		}
		if !IsWouldBlock(err) {
			return zero, err
		}
	}
}

// SendBytes sends one frame built from a byte slice.
func (o *SocketBase) SendBytes(data []byte, flags Flag) error {
	m := libmsg.NewData(data)
	return o.SendMsg(&m, flags)
}

// RecvBytes receives one frame body.
func (o *SocketBase) RecvBytes(flags Flag) ([]byte, error) {
	m, err := o.RecvMsg(flags)
	if err != nil {
		return nil, err
	}
	return m.Data(), nil
}

func (o *SocketBase) extractFlags(m *libmsg.Message) {
	o.rcvmore = m.HasMore()
}

// RcvMore reports whether the last received frame has followers.
func (o *SocketBase) RcvMore() bool {
	return o.rcvmore
}

// SetOption applies one option. Pattern tags route through the pattern
// hook; everything else mutates the shared option block.
func (o *SocketBase) SetOption(opt Option, v interface{}) error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	if err := o.hooks.xSetOption(opt, v); err == nil {
		return nil
	} else if !isOptionUnhandled(err) {
		return err
	}

	return o.options.set(opt, v)
}

// GetOption reads one option.
func (o *SocketBase) GetOption(opt Option) (interface{}, error) {
	if o.closing {
		return nil, ErrorSocketClosed.Error(nil)
	}

	switch opt {
	case OptRcvMore:
		return o.rcvmore, nil

	case OptLastEndpoint:
		return o.lastEndpoint, nil

	case OptEvents:
		if err := o.processCommands(0, false); err != nil {
			return nil, err
		}
		var ev int
		if o.hooks.xHasIn() {
			ev |= PollIn
		}
		if o.hooks.xHasOut() {
			ev |= PollOut
		}
		return ev, nil
	}

	return o.options.get(opt)
}

// Close hands the socket to the reaper. The call returns immediately; the
// linger option governs how long queued traffic may drain.
func (o *SocketBase) Close() error {
	if o.closing {
		return ErrorSocketClosed.Error(nil)
	}

	o.monitorSync.Lock()
	o.stopMonitorLocked()
	o.monitorSync.Unlock()

	o.closing = true
	o.sendReap(o)
	return nil
}

// startReaping moves the socket mailbox onto the reaper poller and starts
// the termination protocol.
func (o *SocketBase) startReaping(p libpol.Poller) {
	o.reapPoller = p
	o.reapHandle = p.AddFd(o.mailbox.Fd(), o)
	p.SetPollIn(o.reapHandle)

	o.terminate()
	o.checkDestroy()
}

func (o *SocketBase) checkDestroy() {
	if !o.destroyed {
		return
	}

	o.reapPoller.RmFd(o.reapHandle)
	o.ctx.derefSocket(o)
	o.sendReaped()
	_ = o.mailbox.Close()
}

// InEvent drains the socket mailbox on the reaper thread.
func (o *SocketBase) InEvent() {
	_ = o.processCommands(0, false)
	o.checkDestroy()
}

func (o *SocketBase) OutEvent() {}

func (o *SocketBase) TimerEvent(int) {}

// processTerm tears down the endpoint registry and every pipe, then lets the
// ownership protocol run.
func (o *SocketBase) processTerm(linger int) {
	o.ctx.unregisterEndpoints(o)

	for _, p := range o.pipes {
		p.Terminate(false)
	}
	o.registerTermAcks(len(o.pipes))

	o.own.processTerm(linger)
}

func (o *SocketBase) processDestroyed() {
	o.destroyed = true
}

func (o *SocketBase) processBind(p *libpip.Pipe) {
	o.attachPipe(p, false, false)
}

// pipe.Events implementation: the socket is the sink of its pipe ends.

func (o *SocketBase) ReadActivated(p *libpip.Pipe) {
	o.hooks.xReadActivated(p)
}

func (o *SocketBase) WriteActivated(p *libpip.Pipe) {
	o.hooks.xWriteActivated(p)
}

func (o *SocketBase) Hiccuped(p *libpip.Pipe) {
	o.hooks.xHiccuped(p)
}

func (o *SocketBase) Terminated(p *libpip.Pipe) {
	o.hooks.xPipeTerminated(p)

	for i := range o.pipes {
		if o.pipes[i] == p {
			o.pipes = append(o.pipes[:i], o.pipes[i+1:]...)
			break
		}
	}

	for addr, pipes := range o.inprocs {
		for i := range pipes {
			if pipes[i] == p {
				o.inprocs[addr] = append(pipes[:i], pipes[i+1:]...)
				break
			}
		}
		if len(o.inprocs[addr]) == 0 {
			delete(o.inprocs, addr)
		}
	}

	if o.isTerminating() {
		o.unregisterTermAck()
	}
}

func (o *SocketBase) logEndpoint(msg, uri string, err error) {
	ent := o.logger().Entry(loglvl.DebugLevel, msg)
	ent = ent.FieldAdd("endpoint", uri)
	ent = ent.FieldAdd("socket", o.options.sockType.String())
	ent.ErrorAdd(true, err)
	ent.Log()
}
