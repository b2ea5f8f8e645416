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
	"errors"
	"fmt"
	"io/fs"
	"time"

	appfs "bennypowers.dev/appbuild/fs"
)

// ensureBuilt compiles n when force is set, when the session always
// rebuilds, when an artifact is missing or older than the source, or when
// a dependency changed after the artifacts were written. Otherwise it only
// restores the node's edges from the previous session.
func (s *Session) ensureBuilt(ctx context.Context, n *Node, force bool) error {
	if s.closed.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.URL != "" {
		info, err := s.fs.Stat(s.outputFile(n.OutputPath))
		if err == nil && info.Size() > 0 {
			n.touch(info.ModTime())
			return nil
		}
		return s.compile(ctx, n)
	}

	src, err := s.fs.Stat(n.source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{Name: n.Name, Tried: []string{n.source}}
		}
		return err
	}
	if force || s.opts.Rebuild {
		return s.compile(ctx, n)
	}
	written, fresh := s.artifactsFresh(n, src.ModTime())
	if !fresh {
		return s.compile(ctx, n)
	}
	if stale := s.restore(ctx, n, written); stale {
		return s.compile(ctx, n)
	}
	n.touch(src.ModTime())
	return nil
}

// artifactsFresh reports whether every artifact n produced last time exists
// and is not older than src, and returns the oldest artifact time.
func (s *Session) artifactsFresh(n *Node, src time.Time) (time.Time, bool) {
	kinds := n.Compiler.Produces()
	if prev, ok := s.Previous(n.Name); ok && prev.Artifacts != 0 {
		kinds = Kind(prev.Artifacts)
	}
	paths := []string{n.OutputPath}
	for _, k := range kinds.Kinds() {
		if k != n.Kind {
			paths = append(paths, changeExt(n.OutputPath, k.Ext()))
		}
	}

	var oldest time.Time
	for _, p := range paths {
		info, err := s.fs.Stat(s.outputFile(p))
		if err != nil || info.ModTime().Before(src) {
			return time.Time{}, false
		}
		if oldest.IsZero() || info.ModTime().Before(oldest) {
			oldest = info.ModTime()
		}
	}
	return oldest, true
}

// restore replays the requests n made when it was last compiled, so its
// edges exist without compiling it. It reports n stale when there is no
// record of those requests, a request no longer resolves, or a dependency
// changed after written.
func (s *Session) restore(ctx context.Context, n *Node, written time.Time) bool {
	_, transforms := n.Compiler.(Transformer)
	prev, ok := s.Previous(n.Name)
	if !ok {
		return transforms
	}

	for _, k := range Kind(prev.Artifacts).Kinds() {
		if k != n.Kind {
			a := s.artifactNode(n, k)
			if info, err := s.fs.Stat(s.outputFile(a.OutputPath)); err == nil {
				a.touch(info.ModTime())
			}
		}
	}
	s.mu.Lock()
	n.artifacts = Kind(prev.Artifacts)
	s.mu.Unlock()

	stale := false
	for _, ref := range prev.Requests {
		dep, err := s.Resolve(ctx, ref, n)
		if err != nil {
			s.logger.Debug("%s: %s no longer resolves: %v", n.Name, ref, err)
			return true
		}
		if dep.stamp.Load() > written.UnixNano() {
			stale = true
		}
	}
	return stale
}

// compile reads the source of n, runs its compiler and writes every
// artifact the compiler returned.
func (s *Session) compile(ctx context.Context, n *Node) error {
	s.begin(n)
	defer s.end()
	s.compiled.Add(1)

	src, err := s.readSource(ctx, n)
	if err != nil {
		return err
	}

	s.mu.Lock()
	n.requests = nil
	s.mu.Unlock()

	t, ok := n.Compiler.(Transformer)
	if !ok {
		if err := s.write(n, src); err != nil {
			return err
		}
		s.mu.Lock()
		n.artifacts = n.Kind
		s.mu.Unlock()
		return nil
	}

	res, err := t.Compile(ctx, &Request{Source: src, Node: n, Session: s})
	if err != nil {
		var cerr *CompileError
		if errors.As(err, &cerr) {
			return err
		}
		return &CompileError{Name: n.Name, Cause: err}
	}
	for _, w := range res.Warnings {
		s.logger.Warning("%s: %s", n.Name, w)
	}

	var produced Kind
	for _, k := range artifactKinds {
		data := res.Artifact(k)
		if data == nil {
			continue
		}
		target := n
		if k != n.Kind {
			target = s.artifactNode(n, k)
		}
		if k == KindScript {
			data = s.Declare(n.Module, data)
		}
		if err := s.write(target, data); err != nil {
			return err
		}
		produced |= k
	}
	s.mu.Lock()
	n.artifacts = produced
	s.mu.Unlock()
	return nil
}

func (s *Session) readSource(ctx context.Context, n *Node) ([]byte, error) {
	if n.URL == "" {
		data, err := s.fs.ReadFile(n.source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", n.Name, err)
		}
		return data, nil
	}
	s.logger.Info("downloading %s", n.URL)
	data, err := s.fetcher.Fetch(ctx, n.URL)
	if err != nil {
		return nil, &DownloadError{URL: n.URL, Cause: err}
	}
	if len(data) == 0 {
		return nil, &DownloadError{URL: n.URL, Cause: errors.New("empty response")}
	}
	return data, nil
}

func (s *Session) write(n *Node, data []byte) error {
	file := s.outputFile(n.OutputPath)
	if err := appfs.Write(s.fs, file, data); err != nil {
		return fmt.Errorf("write %s: %w", n.OutputPath, err)
	}
	if info, err := s.fs.Stat(file); err == nil {
		n.touch(info.ModTime())
	} else {
		n.touch(time.Now())
	}
	s.logger.Info("%s => %s", n.Name, n.OutputPath)
	s.changed(n)
	return nil
}

// artifactNode returns the node holding the secondary artifact of kind k
// compiled from n, creating it on first use.
func (s *Session) artifactNode(n *Node, k Kind) *Node {
	output := changeExt(n.OutputPath, k.Ext())
	s.mu.Lock()
	a, ok := s.byOutput[output]
	if !ok {
		a = &Node{
			ID:         NodeID(len(s.nodes)),
			Name:       output,
			Module:     n.Module,
			OutputPath: output,
			Ext:        k.Ext(),
			Compiler:   Passthrough(k),
			Kind:       k,
			Vendor:     n.Vendor,
			parent:     n,
			done:       closedChan,
		}
		s.nodes = append(s.nodes, a)
		s.byOutput[output] = a
	}
	s.mu.Unlock()
	s.link(n, a)
	return a
}
