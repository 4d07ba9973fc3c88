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

package message

import (
	"sync/atomic"
)

// Metadata holds the read-only peer properties attached to every frame
// received over one connection: socket type, routing id, and any properties
// contributed by the security mechanism. One instance is shared by all frames
// of a connection under a reference count.
type Metadata struct {
	props map[string]string
	refs  atomic.Int32
}

// NewMetadata returns a metadata dictionary holding the given properties.
func NewMetadata(props map[string]string) *Metadata {
	m := &Metadata{props: props}
	if m.props == nil {
		m.props = make(map[string]string)
	}
	m.refs.Store(1)
	return m
}

// Get returns the property stored under the given name.
func (o *Metadata) Get(name string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, k := o.props[name]
	return v, k
}

// Each iterates over all properties.
func (o *Metadata) Each(fn func(name, value string) bool) {
	if o == nil {
		return
	}
	for n, v := range o.props {
		if !fn(n, v) {
			return
		}
	}
}

func (o *Metadata) addRef() {
	o.refs.Add(1)
}

func (o *Metadata) drop() {
	if o.refs.Add(-1) == 0 {
		o.props = nil
	}
}
