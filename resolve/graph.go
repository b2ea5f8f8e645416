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
package resolve

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// DependencyGraph tracks which build nodes depend on which.
// Edges keep insertion order so traversals are stable across runs.
type DependencyGraph[K cmp.Ordered] struct {
	mu sync.RWMutex

	// dependsOn maps a node to the ordered list of nodes it depends on
	// e.g., "index.js" -> ["t3.js", "vendor/vue.js"]
	dependsOn map[K][]K

	// dependents maps a node to the set of nodes that depend on it
	// e.g., "t3.js" -> {"index.js": true}
	dependents map[K]map[K]bool
}

// NewDependencyGraph creates a new empty dependency graph.
func NewDependencyGraph[K cmp.Ordered]() *DependencyGraph[K] {
	return &DependencyGraph[K]{
		dependsOn:  make(map[K][]K),
		dependents: make(map[K]map[K]bool),
	}
}

// AddDependency records that node depends on dep.
// Returns false if the edge already existed.
func (g *DependencyGraph[K]) AddDependency(node, dep K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dependents[dep][node] {
		return false
	}
	g.dependsOn[node] = append(g.dependsOn[node], dep)

	if g.dependents[dep] == nil {
		g.dependents[dep] = make(map[K]bool)
	}
	g.dependents[dep][node] = true
	return true
}

// Dependencies returns the direct dependencies of node in insertion order.
func (g *DependencyGraph[K]) Dependencies(node K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.dependsOn[node])
}

// Dependents returns all nodes that directly depend on node.
func (g *DependencyGraph[K]) Dependents(node K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps := g.dependents[node]
	if deps == nil {
		return nil
	}
	result := slices.Collect(maps.Keys(deps))
	slices.Sort(result)
	return result
}

// TransitiveDependents returns all nodes that directly or indirectly depend on node.
// Uses breadth-first traversal to find all dependents.
func (g *DependencyGraph[K]) TransitiveDependents(node K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[K]bool{node: true}
	queue := []K{node}
	var result []K

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for dep := range g.dependents[current] {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				queue = append(queue, dep)
			}
		}
	}

	slices.Sort(result)
	return result
}

// Ordered returns root and its transitive dependencies, every dependency
// placed before the nodes that depend on it. Each node appears once, at the
// position of its first visit. Cycles are cut at the first revisit, so
// under a cycle the order is whichever path reached the node first.
func (g *DependencyGraph[K]) Ordered(root K) []K {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[K]bool)
	var result []K
	var visit func(K)
	visit = func(node K) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, dep := range g.dependsOn[node] {
			visit(dep)
		}
		result = append(result, node)
	}
	visit(root)
	return result
}

// Clone creates a deep copy of the dependency graph.
func (g *DependencyGraph[K]) Clone() *DependencyGraph[K] {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := NewDependencyGraph[K]()

	for node, deps := range g.dependsOn {
		clone.dependsOn[node] = slices.Clone(deps)
	}

	for node, deps := range g.dependents {
		clone.dependents[node] = make(map[K]bool, len(deps))
		maps.Copy(clone.dependents[node], deps)
	}

	return clone
}

// Len returns the number of nodes that have at least one edge.
func (g *DependencyGraph[K]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[K]bool)
	for node, deps := range g.dependsOn {
		seen[node] = true
		for _, dep := range deps {
			seen[dep] = true
		}
	}
	return len(seen)
}

// EdgeCount returns the number of distinct edges.
func (g *DependencyGraph[K]) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, deps := range g.dependsOn {
		n += len(deps)
	}
	return n
}
