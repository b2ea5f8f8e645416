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
package resolve_test

import (
	"reflect"
	"slices"
	"testing"

	"bennypowers.dev/appbuild/resolve"
)

func TestDependencyGraphDependents(t *testing.T) {
	graph := resolve.NewDependencyGraph[string]()

	// Set up: A depends on B, B depends on C
	graph.AddDependency("A", "B")
	graph.AddDependency("B", "C")

	if deps := graph.Dependents("C"); !reflect.DeepEqual(deps, []string{"B"}) {
		t.Errorf("Expected Dependents(C) = [B], got %v", deps)
	}
	if deps := graph.Dependents("B"); !reflect.DeepEqual(deps, []string{"A"}) {
		t.Errorf("Expected Dependents(B) = [A], got %v", deps)
	}
}

func TestDependencyGraphAddDependencyIdempotent(t *testing.T) {
	graph := resolve.NewDependencyGraph[int]()

	if !graph.AddDependency(1, 2) {
		t.Error("first edge should be new")
	}
	if graph.AddDependency(1, 2) {
		t.Error("repeated edge should not be added twice")
	}
	if deps := graph.Dependencies(1); !reflect.DeepEqual(deps, []int{2}) {
		t.Errorf("Dependencies(1) = %v, want [2]", deps)
	}
	if n := graph.EdgeCount(); n != 1 {
		t.Errorf("EdgeCount() = %d, want 1", n)
	}
}

func TestDependencyGraphTransitiveDependents(t *testing.T) {
	graph := resolve.NewDependencyGraph[string]()

	graph.AddDependency("A", "B")
	graph.AddDependency("B", "C")
	graph.AddDependency("D", "E")

	deps := graph.TransitiveDependents("C")
	if !reflect.DeepEqual(deps, []string{"A", "B"}) {
		t.Errorf("Expected transitive dependents [A B], got %v", deps)
	}
	if slices.Contains(deps, "D") {
		t.Errorf("unrelated node leaked into dependents: %v", deps)
	}
}

func TestDependencyGraphOrdered(t *testing.T) {
	tests := []struct {
		name     string
		edges    [][2]string
		root     string
		expected []string
	}{
		{
			name:     "chain",
			edges:    [][2]string{{"html", "index"}, {"index", "t3"}},
			root:     "html",
			expected: []string{"t3", "index", "html"},
		},
		{
			name:     "diamond keeps first visit",
			edges:    [][2]string{{"index", "a"}, {"index", "b"}, {"a", "shared"}, {"b", "shared"}},
			root:     "index",
			expected: []string{"shared", "a", "b", "index"},
		},
		{
			name:     "insertion order of siblings",
			edges:    [][2]string{{"index", "z"}, {"index", "a"}, {"index", "m"}},
			root:     "index",
			expected: []string{"z", "a", "m", "index"},
		},
		{
			name:     "cycle terminates",
			edges:    [][2]string{{"a", "b"}, {"b", "a"}},
			root:     "a",
			expected: []string{"b", "a"},
		},
		{
			name:     "isolated root",
			root:     "alone",
			expected: []string{"alone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := resolve.NewDependencyGraph[string]()
			for _, e := range tt.edges {
				graph.AddDependency(e[0], e[1])
			}
			got := graph.Ordered(tt.root)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Ordered(%q) = %v, want %v", tt.root, got, tt.expected)
			}
		})
	}
}

func TestDependencyGraphClone(t *testing.T) {
	graph := resolve.NewDependencyGraph[string]()
	graph.AddDependency("A", "B")

	clone := graph.Clone()

	if !reflect.DeepEqual(graph.Dependents("B"), clone.Dependents("B")) {
		t.Error("Clone should have same dependents")
	}

	// Modify original, verify clone is independent
	graph.AddDependency("C", "D")
	graph.AddDependency("A", "E")
	if len(clone.Dependents("D")) != 0 {
		t.Error("Clone should be independent of original modifications")
	}
	if len(clone.Dependencies("A")) != 1 {
		t.Errorf("Clone edges changed: %v", clone.Dependencies("A"))
	}
	if graph.Len() != 5 || clone.Len() != 2 {
		t.Errorf("Len() = %d/%d, want 5/2", graph.Len(), clone.Len())
	}
}
