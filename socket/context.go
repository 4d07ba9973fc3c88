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
	"sync/atomic"

	libatm "github.com/nabbar/golib/atomic"
	liblog "github.com/nabbar/golib/logger"
	loglvl "github.com/nabbar/golib/logger/level"
	libmbx "github/sabouaram/gomq/mailbox"
	libpip "github/sabouaram/gomq/pipe"
)

const (
	tidTerm   uint32 = 0
	tidReaper uint32 = 1

	commandPipeGranularity = 16

	// DefaultIOThreads is the worker count used when none is given.
	DefaultIOThreads = 1

	// DefaultMaxSockets bounds the live sockets of one context.
	DefaultMaxSockets = 1024
)

// slotBox wraps a mailbox so slots can be swapped atomically while command
// senders read them without a lock.
type slotBox struct {
	m libmbx.Mailbox[command]
}

// pendingConnection is an inproc connect staged before the matching bind.
type pendingConnection struct {
	connectPipe *libpip.Pipe
	bindPipe    *libpip.Pipe
	options     *Options
}

// inprocEntry is one bound inproc endpoint.
type inprocEntry struct {
	socket  *SocketBase
	options *Options
}

// Context is the process-wide registry tying together the I/O threads, the
// reaper, the socket slots and the inproc endpoint table. Every socket is
// created from a context and every object it spawns stays inside it.
type Context struct {
	termMailbox libmbx.Mailbox[command]

	slotSync   sync.Mutex
	slots      []atomic.Pointer[slotBox]
	emptySlots []uint32
	sockets    []*SocketBase

	ioThreads []*ioThread
	reaper    *reaper

	terminating bool
	started     bool

	endpointsSync sync.Mutex
	endpoints     map[string]inprocEntry
	pending       map[string][]pendingConnection

	commander pipeCommander

	log libatm.Value[liblog.FuncLog]
}

// New returns a running context with the given worker count; non-positive
// counts fall back to the defaults.
func New(ioThreads, maxSockets int) (*Context, error) {
	if ioThreads <= 0 {
		ioThreads = DefaultIOThreads
	}
	if maxSockets <= 0 {
		maxSockets = DefaultMaxSockets
	}

	c := &Context{
		endpoints: make(map[string]inprocEntry),
		pending:   make(map[string][]pendingConnection),
		log:       libatm.NewValue[liblog.FuncLog](),
	}
	c.commander = pipeCommander{ctx: c}

	tm, err := libmbx.New[command](commandPipeGranularity)
	if err != nil {
		return nil, err
	}
	c.termMailbox = tm

	slotCount := maxSockets + 2 + ioThreads
	c.slots = make([]atomic.Pointer[slotBox], slotCount)
	c.slots[tidTerm].Store(&slotBox{m: tm})

	r, err := newReaper(c, tidReaper)
	if err != nil {
		_ = tm.Close()
		return nil, err
	}
	c.reaper = r
	c.slots[tidReaper].Store(&slotBox{m: r.mailbox})

	for i := 0; i < ioThreads; i++ {
		tid := uint32(2 + i)
		t, e := newIOThread(c, tid)
		if e != nil {
			return nil, e
		}
		c.ioThreads = append(c.ioThreads, t)
		c.slots[tid].Store(&slotBox{m: t.mailbox})
	}

	for i := slotCount - 1; i >= 2+ioThreads; i-- {
		c.emptySlots = append(c.emptySlots, uint32(i))
	}

	c.reaper.start()
	for _, t := range c.ioThreads {
		t.start()
	}
	c.started = true

	return c, nil
}

// RegisterFuncLog installs the logger provider inherited by every object of
// the context.
func (o *Context) RegisterFuncLog(f liblog.FuncLog) {
	o.log.Store(f)
}

func (o *Context) logger() liblog.Logger {
	if f := o.log.Load(); f != nil {
		if l := f(); l != nil {
			return l
		}
	}
	return liblog.GetDefault()
}

// NewSocket creates a socket of the given pattern inside the context.
func (o *Context) NewSocket(t Type) (Socket, error) {
	o.slotSync.Lock()

	if o.terminating {
		o.slotSync.Unlock()
		return nil, ErrorTerminated.Error(nil)
	}

	if len(o.emptySlots) == 0 {
		o.slotSync.Unlock()
		return nil, ErrorTooManySockets.Error(nil)
	}

	tid := o.emptySlots[len(o.emptySlots)-1]
	o.emptySlots = o.emptySlots[:len(o.emptySlots)-1]

	s, err := newPatternSocket(o, t, tid)
	if err != nil {
		o.emptySlots = append(o.emptySlots, tid)
		o.slotSync.Unlock()
		return nil, err
	}

	o.sockets = append(o.sockets, s.baseSocket())
	o.slots[tid].Store(&slotBox{m: s.baseSocket().mailbox})
	o.slotSync.Unlock()

	return s, nil
}

// derefSocket releases the slot of a fully reaped socket.
func (o *Context) derefSocket(s *SocketBase) {
	o.slotSync.Lock()

	for i := range o.sockets {
		if o.sockets[i] == s {
			o.sockets = append(o.sockets[:i], o.sockets[i+1:]...)
			break
		}
	}

	o.slots[s.getTid()].Store(nil)
	o.emptySlots = append(o.emptySlots, s.getTid())

	terminating := o.terminating
	empty := len(o.sockets) == 0

	o.slotSync.Unlock()

	if terminating && empty {
		o.reaper.stop()
	}
}

// sendCommand posts a command into the mailbox of the given slot.
func (o *Context) sendCommand(tid uint32, cmd command) {
	if sb := o.slots[tid].Load(); sb != nil {
		sb.m.Send(cmd)
	}
}

// chooseIOThread returns the least-loaded worker.
func (o *Context) chooseIOThread() *ioThread {
	var best *ioThread
	load := int(^uint(0) >> 1)

	for _, t := range o.ioThreads {
		if l := t.load(); l < load {
			load = l
			best = t
		}
	}

	return best
}

// Shutdown interrupts every blocking call on the context's sockets without
// waiting for them to be closed.
func (o *Context) Shutdown() error {
	// Connect up any staged inproc connections first: a never-bound
	// endpoint would otherwise leave its pipes unable to finish the
	// termination handshake.
	o.endpointsSync.Lock()
	var stale []string
	for addr := range o.pending {
		stale = append(stale, addr)
	}
	o.endpointsSync.Unlock()

	for _, addr := range stale {
		if s, err := o.NewSocket(TypePair); err == nil {
			_ = s.SetOption(OptLinger, 0)
			_ = s.Bind("inproc://" + addr)
			_ = s.Close()
		}
	}

	o.slotSync.Lock()

	if o.terminating {
		o.slotSync.Unlock()
		return nil
	}

	o.terminating = true
	socks := append([]*SocketBase(nil), o.sockets...)
	empty := len(socks) == 0

	o.slotSync.Unlock()

	for _, s := range socks {
		s.stop()
	}

	if empty {
		o.reaper.stop()
	}

	return nil
}

// Term shuts the context down and blocks until every socket was closed and
// reaped and every worker exited.
func (o *Context) Term() error {
	if err := o.Shutdown(); err != nil {
		return err
	}

	for {
		cmd, err := o.termMailbox.Recv(-1)
		if err != nil {
			return err
		}
		if cmd.typ == cmdDone {
			break
		}
	}

	for _, t := range o.ioThreads {
		t.stop()
	}
	for _, t := range o.ioThreads {
		t.join()
	}
	o.reaper.join()
	_ = o.termMailbox.Close()

	o.logger().Entry(loglvl.InfoLevel, "messaging context terminated").Log()

	return nil
}

// registerEndpoint records an inproc bind.
func (o *Context) registerEndpoint(addr string, s *SocketBase, opts *Options) error {
	o.endpointsSync.Lock()
	defer o.endpointsSync.Unlock()

	if _, k := o.endpoints[addr]; k {
		return ErrorAddressInUse.Error(nil)
	}

	o.endpoints[addr] = inprocEntry{socket: s, options: opts}
	return nil
}

// unregisterEndpoints drops every inproc bind of one socket.
func (o *Context) unregisterEndpoints(s *SocketBase) {
	o.endpointsSync.Lock()
	defer o.endpointsSync.Unlock()

	for addr, e := range o.endpoints {
		if e.socket == s {
			delete(o.endpoints, addr)
		}
	}
}

// findEndpoint resolves an inproc name, pinning the bound socket's lifetime
// by bumping its command sequence before the registry lock drops.
func (o *Context) findEndpoint(addr string) (inprocEntry, bool) {
	o.endpointsSync.Lock()
	defer o.endpointsSync.Unlock()

	e, k := o.endpoints[addr]
	if !k {
		return inprocEntry{}, false
	}

	e.socket.incSeqnum()
	return e, true
}

// pendConnection stages an inproc connect issued before the matching bind.
func (o *Context) pendConnection(addr string, p pendingConnection) {
	o.endpointsSync.Lock()
	defer o.endpointsSync.Unlock()

	o.pending[addr] = append(o.pending[addr], p)
}

// takePending collects connects staged for a just-bound inproc name.
func (o *Context) takePending(addr string) []pendingConnection {
	o.endpointsSync.Lock()
	defer o.endpointsSync.Unlock()

	p := o.pending[addr]
	delete(o.pending, addr)
	return p
}
