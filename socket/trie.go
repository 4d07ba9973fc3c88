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
	libpip "github/sabouaram/gomq/pipe"
)

// trie stores subscription prefixes with reference counts, for the
// subscriber side of a pub/sub pair. An empty prefix subscribes to
// everything.
type trie struct {
	refcnt   uint32
	children map[byte]*trie
}

func newTrie() *trie {
	return &trie{}
}

// add records one subscription and reports whether the prefix is new.
func (o *trie) add(prefix []byte) bool {
	if len(prefix) == 0 {
		o.refcnt++
		return o.refcnt == 1
	}

	if o.children == nil {
		o.children = make(map[byte]*trie)
	}

	c, k := o.children[prefix[0]]
	if !k {
		c = newTrie()
		o.children[prefix[0]] = c
	}

	return c.add(prefix[1:])
}

// remove drops one subscription and reports whether the prefix is gone.
func (o *trie) remove(prefix []byte) bool {
	if len(prefix) == 0 {
		if o.refcnt == 0 {
			return false
		}
		o.refcnt--
		return o.refcnt == 0
	}

	c, k := o.children[prefix[0]]
	if !k {
		return false
	}

	last := c.remove(prefix[1:])
	if c.refcnt == 0 && len(c.children) == 0 {
		delete(o.children, prefix[0])
	}

	return last
}

// apply invokes fn for every stored prefix.
func (o *trie) apply(fn func(prefix []byte)) {
	o.applyNode(nil, fn)
}

func (o *trie) applyNode(prefix []byte, fn func(prefix []byte)) {
	if o.refcnt > 0 {
		fn(append([]byte(nil), prefix...))
	}
	for b, c := range o.children {
		c.applyNode(append(prefix, b), fn)
	}
}

// check reports whether data matches any stored prefix.
func (o *trie) check(data []byte) bool {
	node := o
	for {
		if node.refcnt > 0 {
			return true
		}

		if len(data) == 0 || node.children == nil {
			return false
		}

		c, k := node.children[data[0]]
		if !k {
			return false
		}

		node = c
		data = data[1:]
	}
}

// mtrieNode maps subscription prefixes to the set of pipes that asked for
// them, for the publisher side.
type mtrieNode struct {
	pipes    map[*libpip.Pipe]struct{}
	children map[byte]*mtrieNode
}

type mtrie struct {
	root *mtrieNode
}

func newMtrie() *mtrie {
	return &mtrie{root: &mtrieNode{}}
}

// add attaches a pipe to a prefix and reports whether the prefix gained its
// first subscriber.
func (o *mtrie) add(prefix []byte, p *libpip.Pipe) bool {
	node := o.root

	for _, b := range prefix {
		if node.children == nil {
			node.children = make(map[byte]*mtrieNode)
		}
		c, k := node.children[b]
		if !k {
			c = &mtrieNode{}
			node.children[b] = c
		}
		node = c
	}

	if node.pipes == nil {
		node.pipes = make(map[*libpip.Pipe]struct{})
	}

	first := len(node.pipes) == 0
	node.pipes[p] = struct{}{}
	return first
}

// remove detaches a pipe from a prefix and reports whether the prefix lost
// its last subscriber.
func (o *mtrie) remove(prefix []byte, p *libpip.Pipe) bool {
	node := o.root
	path := make([]*mtrieNode, 0, len(prefix)+1)
	path = append(path, node)

	for _, b := range prefix {
		c, k := node.children[b]
		if !k {
			return false
		}
		node = c
		path = append(path, node)
	}

	if _, k := node.pipes[p]; !k {
		return false
	}

	delete(node.pipes, p)
	last := len(node.pipes) == 0

	// Prune empty branches bottom-up.
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if len(n.pipes) == 0 && len(n.children) == 0 {
			delete(path[i-1].children, prefix[i-1])
		}
	}

	return last
}

// removePipe detaches a pipe from every prefix, invoking fn for each prefix
// that lost its last subscriber.
func (o *mtrie) removePipe(p *libpip.Pipe, fn func(prefix []byte)) {
	o.root.removePipe(p, nil, fn)
}

func (o *mtrieNode) removePipe(p *libpip.Pipe, prefix []byte, fn func(prefix []byte)) {
	if _, k := o.pipes[p]; k {
		delete(o.pipes, p)
		if len(o.pipes) == 0 {
			fn(append([]byte(nil), prefix...))
		}
	}

	for b, c := range o.children {
		c.removePipe(p, append(prefix, b), fn)
		if len(c.pipes) == 0 && len(c.children) == 0 {
			delete(o.children, b)
		}
	}
}

// match invokes fn for every pipe subscribed to a prefix of data.
func (o *mtrie) match(data []byte, fn func(p *libpip.Pipe)) {
	node := o.root

	for {
		for p := range node.pipes {
			fn(p)
		}

		if len(data) == 0 || node.children == nil {
			return
		}

		c, k := node.children[data[0]]
		if !k {
			return
		}

		node = c
		data = data[1:]
	}
}
