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
	"path"
	"slices"

	"bennypowers.dev/appbuild/internal/watch"
)

// Watch rebuilds nodes whose sources change under the input root until the
// session is closed or ctx is done.
func (s *Session) Watch(ctx context.Context) error {
	if s.closed.Load() {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	w, err := watch.New(watch.Config{
		BaseDir: s.opts.InputDir(),
		Ignore:  []string{path.Join(s.opts.Assets, "**")},
		OnChange: func(ctx context.Context, changed []string) {
			for _, rel := range changed {
				if err := s.HandleChange(ctx, rel); err != nil {
					s.logger.Error("%s: %v", rel, err)
				}
			}
		},
		OnError: func(err error) {
			s.logger.Warning("watch: %v", err)
		},
	})
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.unwatch = cancel
	s.mu.Unlock()
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("watch: %v", err)
		}
	}()
	return nil
}

// HandleChange rebuilds the node compiled from an input-root-relative path
// and everything that depends on it. Paths no node was compiled from are
// logged once and ignored.
func (s *Session) HandleChange(ctx context.Context, rel string) error {
	if s.closed.Load() {
		return nil
	}
	s.mu.Lock()
	n, ok := s.byInput[rel]
	if !ok {
		first := !s.notUsed[rel]
		s.notUsed[rel] = true
		s.mu.Unlock()
		if first {
			s.logger.Info("%s is not used", rel)
		}
		return nil
	}
	s.mu.Unlock()
	return s.Rebuild(ctx, n)
}

// Rebuild force-compiles n and then every node that transitively depends
// on it, dependencies first. Failures are logged and joined; the remaining
// nodes are still rebuilt.
func (s *Session) Rebuild(ctx context.Context, n *Node) error {
	chain := s.chains.Add(1)
	ctx = context.WithValue(ctx, chainKey{}, chain)

	var errs []error
	for _, target := range s.rebuildOrder(n) {
		if s.closed.Load() {
			break
		}
		if err := s.claim(ctx, chain, target); err != nil {
			return errors.Join(append(errs, err)...)
		}
		err := s.ensureBuilt(ctx, target, true)
		s.release(target, err)
		if err != nil {
			s.logger.Error("%s: %v", target.Name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// rebuildOrder returns n and its transitive dependents, each node after
// the nodes of the set it depends on. Secondary artifacts are rewritten by
// their parent and left out.
func (s *Session) rebuildOrder(n *Node) []*Node {
	set := map[NodeID]bool{n.ID: true}
	for _, id := range s.graph.TransitiveDependents(n.ID) {
		set[id] = true
	}
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	visited := make(map[NodeID]bool, len(set))
	var order []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range s.graph.Dependencies(id) {
			if set[dep] {
				visit(dep)
			}
		}
		order = append(order, id)
	}
	for _, id := range ids {
		visit(id)
	}

	nodes := s.lookup(order)
	return slices.DeleteFunc(nodes, (*Node).IsArtifact)
}
