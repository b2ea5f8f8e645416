/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package build

import (
	"path"
	"strings"
	"sync/atomic"
	"time"
)

// NodeID indexes a node in its session's arena.
type NodeID int

// Node is the unit of resolution and build. Exactly one node exists per
// resolved module in a session; later requests for the same module return
// it and only add a dependency edge.
type Node struct {
	ID NodeID
	// Name is the canonical reference the node is memoized under.
	Name string
	// Module is the identity the node is declared under in the module loader.
	Module string
	// InputPath is the source path relative to the input root, slash-separated.
	// Empty for downloads, vendor packages outside the input root, and
	// secondary artifacts.
	InputPath string
	// OutputPath is the primary artifact path relative to the output root,
	// lower-cased, with the extension of the artifact kind.
	OutputPath string
	// Ext is the source extension without the dot.
	Ext      string
	Compiler Compiler
	// Kind is the primary artifact kind.
	Kind   Kind
	Vendor bool
	URL    string

	source string
	parent *Node
	stamp  atomic.Int64

	// guarded by Session.mu
	owner     uint64
	done      chan struct{}
	alias     *Node
	abandoned bool
	requests  []string
	artifacts Kind
	err       error
}

// Time returns the node's staleness marker in whole seconds: the source
// modification time, or the time its artifact was last written when that
// is newer.
func (n *Node) Time() int64 {
	nanos := n.stamp.Load()
	if nanos <= 0 {
		return 0
	}
	return (nanos + int64(time.Second) - 1) / int64(time.Second)
}

// Source returns the absolute source path, empty for downloads and secondary artifacts.
func (n *Node) Source() string {
	return n.source
}

// Parent returns the node a secondary artifact was compiled from, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsArtifact reports whether n is a secondary artifact of another node.
func (n *Node) IsArtifact() bool {
	return n.parent != nil
}

// OutputExt returns the extension of the output path, without the dot.
func (n *Node) OutputExt() string {
	return strings.TrimPrefix(path.Ext(n.OutputPath), ".")
}

func (n *Node) touch(t time.Time) {
	n.stamp.Store(t.UnixNano())
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// changeExt replaces the extension of p, or appends one.
func changeExt(p, ext string) string {
	if e := path.Ext(p); e != "" {
		return strings.TrimSuffix(p, e) + "." + ext
	}
	return p + "." + ext
}
