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
package trace

import (
	"slices"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// LocalBindings returns the distinct names declared by variables, functions,
// classes and parameters in a script, sorted.
func LocalBindings(content []byte) ([]string, error) {
	q, err := query("bindings")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	err = parse(content, func(root *ts.Node) error {
		cursor := ts.NewQueryCursor()
		defer cursor.Close()

		matches := cursor.Matches(q, root, content)
		for {
			match := matches.Next()
			if match == nil {
				break
			}
			for _, capture := range match.Captures {
				seen[capture.Node.Utf8Text(content)] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
