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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/appbuild/resolve"
)

type chainKey struct{}

// chain returns the resolution chain carried by ctx, starting a new one
// when there is none. Nodes are owned by the chain building them; a chain
// never waits on a node it owns.
func (s *Session) chain(ctx context.Context) (context.Context, uint64) {
	if id, ok := ctx.Value(chainKey{}).(uint64); ok {
		return ctx, id
	}
	id := s.chains.Add(1)
	return context.WithValue(ctx, chainKey{}, id), id
}

// Resolve returns the node for ref as requested by from, compiling it first
// when its artifacts are stale. from is nil for entry points. Repeated
// requests for the same module return the same node and add only an edge.
func (s *Session) Resolve(ctx context.Context, ref string, from *Node) (*Node, error) {
	kind := resolve.Classify(ref)
	name := ref
	if kind == resolve.RefLocal {
		dir := ""
		if from != nil && from.InputPath != "" {
			dir = path.Dir(from.InputPath)
		}
		canonical, err := resolve.Canonical(ref, dir)
		if err != nil {
			return nil, &NotFoundError{Name: ref}
		}
		name = canonical
	}
	if from != nil {
		s.mu.Lock()
		if !slices.Contains(from.requests, ref) {
			from.requests = append(from.requests, ref)
		}
		s.mu.Unlock()
	}

	return s.obtain(ctx, name, from, func(ctx context.Context, n *Node) (*Node, error) {
		switch kind {
		case resolve.RefURL:
			return s.locateURL(n)
		case resolve.RefVendor:
			return s.locateVendor(ctx, n)
		default:
			return s.locateLocal(n)
		}
	})
}

// obtain returns the node memoized under name. On first request it
// reserves a placeholder, fills it in with locate, and builds it. locate
// may return an existing node instead, for example when two names reach
// the same file.
func (s *Session) obtain(ctx context.Context, name string, from *Node, locate func(context.Context, *Node) (*Node, error)) (*Node, error) {
	ctx, chain := s.chain(ctx)

	s.mu.Lock()
	if n, ok := s.byName[name]; ok {
		s.mu.Unlock()
		got, err := s.await(ctx, chain, n)
		if got != nil {
			s.link(from, got)
		}
		return got, err
	}
	n := &Node{ID: NodeID(len(s.nodes)), Name: name, owner: chain, done: make(chan struct{})}
	s.nodes = append(s.nodes, n)
	s.byName[name] = n
	s.mu.Unlock()

	target, err := locate(ctx, n)
	if err != nil {
		s.mu.Lock()
		delete(s.byName, name)
		n.abandoned = true
		n.err = err
		n.owner = 0
		close(n.done)
		s.mu.Unlock()
		return nil, err
	}
	if target != n {
		s.mu.Lock()
		s.byName[name] = target
		n.alias = target
		n.owner = 0
		close(n.done)
		s.mu.Unlock()
		got, err := s.await(ctx, chain, target)
		if got != nil {
			s.link(from, got)
		}
		return got, err
	}

	s.link(from, n)
	err = s.ensureBuilt(ctx, n, false)
	s.release(n, err)
	return n, err
}

// await blocks until n is no longer being built by another chain. It
// returns early when waiting would close a cycle of chains waiting on each
// other; the caller then sees the node as it is.
func (s *Session) await(ctx context.Context, chain uint64, n *Node) (*Node, error) {
	s.mu.Lock()
	for {
		for n.alias != nil {
			n = n.alias
		}
		if n.owner == 0 || n.owner == chain || s.closesCycleLocked(chain, n.owner) {
			err := n.err
			abandoned := n.abandoned
			s.mu.Unlock()
			if abandoned {
				return nil, err
			}
			return n, err
		}
		done := n.done
		s.waiting[chain] = n
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			s.mu.Lock()
			delete(s.waiting, chain)
			s.mu.Unlock()
			return nil, ctx.Err()
		}

		s.mu.Lock()
		delete(s.waiting, chain)
	}
}

// closesCycleLocked reports whether chain waiting on a node owned by owner
// would deadlock: owner is, transitively, waiting on chain.
func (s *Session) closesCycleLocked(chain, owner uint64) bool {
	for range len(s.waiting) + 1 {
		if owner == chain {
			return true
		}
		w, ok := s.waiting[owner]
		if !ok || w.owner == 0 {
			return false
		}
		owner = w.owner
	}
	return false
}

// claim takes ownership of an already resolved node for a rebuild.
func (s *Session) claim(ctx context.Context, chain uint64, n *Node) error {
	for {
		s.mu.Lock()
		if n.owner == 0 {
			n.owner = chain
			n.done = make(chan struct{})
			s.mu.Unlock()
			return nil
		}
		done := n.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) release(n *Node, err error) {
	s.mu.Lock()
	n.err = err
	n.owner = 0
	close(n.done)
	s.mu.Unlock()
}

func (s *Session) link(from, n *Node) {
	if from != nil && from != n {
		s.graph.AddDependency(from.ID, n.ID)
	}
}

func (s *Session) locateLocal(n *Node) (*Node, error) {
	inputDir := s.opts.InputDir()
	input := n.Name
	tried := []string{input}
	if !s.InputExists(input) {
		found := false
		for _, suffix := range s.opts.Lookup {
			candidate := input + suffix
			tried = append(tried, candidate)
			if s.InputExists(candidate) {
				input, found = candidate, true
				break
			}
		}
		if !found {
			return nil, &NotFoundError{Name: n.Name, Tried: tried}
		}
	}

	ext := strings.TrimPrefix(path.Ext(input), ".")
	compiler, ok := s.registry[ext]
	if !ok {
		return nil, &UnsupportedTypeError{Name: input, Ext: ext}
	}
	kind := compiler.Produces()
	output := input
	if e := kind.Ext(); e != "" {
		output = changeExt(input, e)
	}
	output = strings.ToLower(output)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byInput[input]; ok {
		return existing, nil
	}
	if other, ok := s.byOutput[output]; ok {
		return nil, fmt.Errorf("%s and %s both compile to %s", other.Name, input, output)
	}
	n.InputPath = input
	n.OutputPath = output
	n.Ext = ext
	n.Compiler = compiler
	n.Kind = kind.Primary()
	n.source = filepath.Join(inputDir, filepath.FromSlash(input))
	n.Module = s.strategy.Identity(s, n)
	s.byInput[input] = n
	s.byOutput[output] = n
	return n, nil
}

func (s *Session) locateVendor(ctx context.Context, n *Node) (*Node, error) {
	exts := resolve.VendorExts(s.opts.Minify)
	var file resolve.VendorFile
	for _, loc := range s.locators {
		f, err := loc.Locate(ctx, n.Name, exts)
		if err == nil {
			file = f
			break
		}
		if !errors.Is(err, resolve.ErrVendorNotFound) {
			return nil, err
		}
	}
	if file.Script == "" {
		tried := make([]string, 0, len(exts))
		for _, ext := range exts {
			tried = append(tried, n.Name+ext)
		}
		return nil, &NotFoundError{Name: n.Name, Tried: tried}
	}

	output := strings.ToLower(path.Join(s.opts.Vendor, filepath.Base(file.Script)))
	s.mu.Lock()
	if other, ok := s.byOutput[output]; ok {
		s.mu.Unlock()
		return other, nil
	}
	n.Vendor = true
	n.OutputPath = output
	n.Ext = "js"
	n.Compiler = Verbatim
	n.Kind = KindScript
	n.source = file.Script
	if rel := inputRel(s.opts.InputDir(), file.Script); rel != "" {
		n.InputPath = rel
		s.byInput[rel] = n
	}
	n.Module = s.strategy.Identity(s, n)
	s.byOutput[output] = n
	s.mu.Unlock()

	if file.Style != "" {
		if _, err := s.vendorStyle(ctx, n, file.Style); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// vendorStyle resolves the style sheet shipped next to a vendor script as
// a dependency of the script, so it is linked before it.
func (s *Session) vendorStyle(ctx context.Context, script *Node, style string) (*Node, error) {
	output := strings.ToLower(path.Join(s.opts.Vendor, filepath.Base(style)))
	return s.obtain(ctx, output, script, func(_ context.Context, n *Node) (*Node, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if other, ok := s.byOutput[output]; ok {
			return other, nil
		}
		n.Vendor = true
		n.OutputPath = output
		n.Ext = "css"
		n.Compiler = Passthrough(KindStyle)
		n.Kind = KindStyle
		n.source = style
		if rel := inputRel(s.opts.InputDir(), style); rel != "" {
			n.InputPath = rel
			s.byInput[rel] = n
		}
		n.Module = s.strategy.Identity(s, n)
		s.byOutput[output] = n
		return n, nil
	})
}

func (s *Session) locateURL(n *Node) (*Node, error) {
	u, err := url.Parse(n.Name)
	if err != nil {
		return nil, &DownloadError{URL: n.Name, Cause: err}
	}
	if s.fetcher == nil {
		return nil, &DownloadError{URL: n.Name, Cause: errors.New("downloads are disabled")}
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = "index"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
	sum := sha256.Sum256([]byte(n.Name))
	hashed := path.Join(s.opts.Vendor, hex.EncodeToString(sum[:8]))

	var (
		compiler Compiler
		output   string
		vendor   = true
	)
	switch ext {
	case "js":
		compiler, output = Verbatim, hashed+".js"
	case "json":
		c, ok := s.registry["json"]
		if !ok {
			return nil, &UnsupportedTypeError{Name: n.Name, Ext: ext}
		}
		compiler, output = c, hashed+".js"
	case "css":
		compiler, output = Passthrough(KindStyle), hashed+".css"
	default:
		compiler, output, vendor = Passthrough(KindRaw), hashed, false
		if ext != "" {
			output += "." + ext
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.byOutput[output]; ok {
		return nil, fmt.Errorf("%s and %s both download to %s", other.Name, n.Name, output)
	}
	n.URL = n.Name
	n.OutputPath = output
	n.Ext = ext
	n.Compiler = compiler
	n.Kind = compiler.Produces().Primary()
	n.Vendor = vendor
	n.Module = s.strategy.Identity(s, n)
	s.byOutput[output] = n
	return n, nil
}

// inputRel returns p relative to the input root, or "" when p lies outside it.
func inputRel(inputDir, p string) string {
	rel, err := filepath.Rel(inputDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}
