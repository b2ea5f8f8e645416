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
// Package trace scans scripts for module references and exports.
package trace

import (
	"cmp"
	"slices"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ImportKind distinguishes the syntactic forms of a module reference.
type ImportKind int

const (
	// ImportStatic is an import statement, with or without bindings.
	ImportStatic ImportKind = iota
	// ImportRequire is a require('...') call.
	ImportRequire
	// ImportDynamic is an import('...') expression.
	ImportDynamic
	// ImportReexport is an export ... from '...' statement.
	ImportReexport
)

func (k ImportKind) String() string {
	switch k {
	case ImportRequire:
		return "require"
	case ImportDynamic:
		return "dynamic"
	case ImportReexport:
		return "reexport"
	default:
		return "import"
	}
}

// Binding pairs a name in one module with the name it is bound to in another.
// For imports Name is the imported name and Alias the local one; for exports
// Name is the local name and Alias the exported one.
type Binding struct {
	Name  string
	Alias string
}

// ModuleImport is a module reference found in a script.
type ModuleImport struct {
	Specifier string
	Kind      ImportKind
	// Start and End delimit the statement or call expression in the source.
	Start uint
	End   uint
	Line  int
	// Default, Namespace and Named describe the bindings of an import
	// statement, or the exported names of a re-export.
	Default   string
	Namespace string
	Named     []Binding
	// All is set for export * from '...'.
	All bool
}

// ExportKind distinguishes local export statements.
type ExportKind int

const (
	// ExportDefault is export default <value>.
	ExportDefault ExportKind = iota
	// ExportDeclaration is an exported const, let, var, function or class.
	ExportDeclaration
	// ExportList is export { a, b as c } without a source.
	ExportList
)

// ModuleExport is a top-level export statement without a source module.
type ModuleExport struct {
	Kind  ExportKind
	Start uint
	End   uint
	// Body is where the exported declaration or default value starts.
	Body  uint
	Names []Binding
}

// Module is the result of scanning a script.
type Module struct {
	Imports []ModuleImport
	Exports []ModuleExport
}

// Scan parses a script and collects its module references and exports.
func Scan(content []byte) (*Module, error) {
	q, err := query("imports")
	if err != nil {
		return nil, err
	}

	mod := &Module{}
	err = parse(content, func(root *ts.Node) error {
		mod.Imports = collectImports(q, root, content)
		mod.Exports = collectExports(root, content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// ExtractImports parses script content and extracts all module references
// in source order.
func ExtractImports(content []byte) ([]ModuleImport, error) {
	mod, err := Scan(content)
	if err != nil {
		return nil, err
	}
	return mod.Imports, nil
}

func collectImports(q *ts.Query, root *ts.Node, content []byte) []ModuleImport {
	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var imports []ModuleImport
	matches := cursor.Matches(q, root, content)
	captureNames := q.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var stmt *ts.Node
		var spec, fn string
		var kind ImportKind
		for _, capture := range match.Captures {
			node := capture.Node
			switch captureNames[capture.Index] {
			case "import":
				stmt, kind = &node, ImportStatic
			case "reexport":
				stmt, kind = &node, ImportReexport
			case "require":
				stmt, kind = &node, ImportRequire
			case "dynamicImport":
				stmt, kind = &node, ImportDynamic
			case "require.fn":
				fn = node.Utf8Text(content)
			case "import.spec", "reexport.spec", "require.spec", "dynamicImport.spec":
				spec = node.Utf8Text(content)
			}
		}
		if stmt == nil || spec == "" {
			continue
		}
		if kind == ImportRequire && fn != "require" {
			continue
		}

		imp := ModuleImport{
			Specifier: spec,
			Kind:      kind,
			Start:     stmt.StartByte(),
			End:       stmt.EndByte(),
			Line:      int(stmt.StartPosition().Row) + 1,
		}
		switch kind {
		case ImportStatic:
			importBindings(&imp, stmt, content)
		case ImportReexport:
			reexportBindings(&imp, stmt, content)
		}
		imports = append(imports, imp)
	}

	slices.SortFunc(imports, func(a, b ModuleImport) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return imports
}

func importBindings(imp *ModuleImport, stmt *ts.Node, content []byte) {
	for i := range stmt.NamedChildCount() {
		clause := stmt.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := range clause.NamedChildCount() {
			child := clause.NamedChild(j)
			switch child.Kind() {
			case "identifier":
				imp.Default = child.Utf8Text(content)
			case "namespace_import":
				if id := firstNamed(child, "identifier"); id != nil {
					imp.Namespace = id.Utf8Text(content)
				}
			case "named_imports":
				imp.Named = specifiers(child, "import_specifier", content)
			}
		}
	}
}

func reexportBindings(imp *ModuleImport, stmt *ts.Node, content []byte) {
	for i := range stmt.ChildCount() {
		child := stmt.Child(i)
		switch child.Kind() {
		case "*":
			imp.All = true
		case "namespace_export":
			if id := lastNamed(child); id != nil {
				imp.Namespace = trimQuotes(id.Utf8Text(content))
			}
		case "export_clause":
			imp.Named = specifiers(child, "export_specifier", content)
		}
	}
}

func collectExports(root *ts.Node, content []byte) []ModuleExport {
	var exports []ModuleExport
	for i := range root.NamedChildCount() {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "export_statement" || stmt.ChildByFieldName("source") != nil {
			continue
		}

		exp := ModuleExport{Start: stmt.StartByte(), End: stmt.EndByte()}
		decl := stmt.ChildByFieldName("declaration")
		value := stmt.ChildByFieldName("value")

		switch {
		case hasChild(stmt, "default"):
			exp.Kind = ExportDefault
			body := value
			if body == nil {
				body = decl
			}
			if body == nil {
				continue
			}
			exp.Body = body.StartByte()
		case decl != nil:
			exp.Kind = ExportDeclaration
			exp.Body = decl.StartByte()
			exp.Names = declaredNames(decl, content)
		default:
			clause := firstNamed(stmt, "export_clause")
			if clause == nil {
				continue
			}
			exp.Kind = ExportList
			exp.Body = clause.StartByte()
			exp.Names = specifiers(clause, "export_specifier", content)
		}
		exports = append(exports, exp)
	}
	return exports
}

// declaredNames returns the identifiers bound by a declaration, as
// self-mapped bindings. Destructuring patterns are not exported.
func declaredNames(decl *ts.Node, content []byte) []Binding {
	var names []Binding
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := range decl.NamedChildCount() {
			declarator := decl.NamedChild(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			if name := declarator.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
				text := name.Utf8Text(content)
				names = append(names, Binding{Name: text, Alias: text})
			}
		}
	default:
		if name := decl.ChildByFieldName("name"); name != nil {
			text := name.Utf8Text(content)
			names = append(names, Binding{Name: text, Alias: text})
		}
	}
	return names
}

func specifiers(list *ts.Node, kind string, content []byte) []Binding {
	var bindings []Binding
	for i := range list.NamedChildCount() {
		spec := list.NamedChild(i)
		if spec.Kind() != kind {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		b := Binding{Name: trimQuotes(name.Utf8Text(content))}
		b.Alias = b.Name
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			b.Alias = trimQuotes(alias.Utf8Text(content))
		}
		bindings = append(bindings, b)
	}
	return bindings
}

func firstNamed(node *ts.Node, kind string) *ts.Node {
	for i := range node.NamedChildCount() {
		if child := node.NamedChild(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

func lastNamed(node *ts.Node) *ts.Node {
	n := node.NamedChildCount()
	if n == 0 {
		return nil
	}
	return node.NamedChild(n - 1)
}

func hasChild(node *ts.Node, kind string) bool {
	for i := range node.ChildCount() {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
