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
	"embed"
	"fmt"
	"path"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/*/*.scm
var queryFiles embed.FS

var typescript = ts.NewLanguage(tsTypescript.LanguageTypescript())

var parsers = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(typescript); err != nil {
			panic("failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

// queryNames lists the compiled queries under queries/typescript.
var queryNames = []string{"imports", "bindings"}

var (
	compiled     map[string]*ts.Query
	compileOnce  sync.Once
	compileError error
)

// query returns a compiled query. All queries compile on first use and
// live for the rest of the process.
func query(name string) (*ts.Query, error) {
	compileOnce.Do(func() {
		compiled, compileError = compileQueries(queryNames)
	})
	if compileError != nil {
		return nil, compileError
	}
	q, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("query not found: typescript/%s", name)
	}
	return q, nil
}

func compileQueries(names []string) (map[string]*ts.Query, error) {
	queries := make(map[string]*ts.Query, len(names))
	for _, name := range names {
		file := path.Join("queries", "typescript", name+".scm")
		data, err := queryFiles.ReadFile(file)
		if err == nil {
			var q *ts.Query
			var qerr *ts.QueryError
			if q, qerr = ts.NewQuery(typescript, string(data)); qerr == nil {
				queries[name] = q
				continue
			}
			err = qerr
		}
		for _, q := range queries {
			q.Close()
		}
		return nil, fmt.Errorf("load query %s: %w", file, err)
	}
	return queries, nil
}

// parse parses script content and runs fn on the syntax tree.
func parse(content []byte, fn func(root *ts.Node) error) error {
	parser := parsers.Get().(*ts.Parser)
	defer func() {
		parser.Reset()
		parsers.Put(parser)
	}()

	tree := parser.Parse(content, nil)
	if tree == nil {
		return fmt.Errorf("failed to parse content")
	}
	defer tree.Close()

	return fn(tree.RootNode())
}
