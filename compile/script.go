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
// Package compile holds the compilers of the default registry: the script
// import rewriter, JSON modules, component documents and the copy-through
// types.
package compile

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/trace"
)

// Script rewrites module references of a script into loader calls:
// every import, require and re-export is resolved through the session
// and replaced by require(<module identity>).
type Script struct{}

func (Script) Produces() build.Kind {
	return build.KindScript
}

func (Script) Compile(ctx context.Context, req *build.Request) (*build.Result, error) {
	mod, err := trace.Scan(req.Source)
	if err != nil {
		return nil, err
	}
	targets := make([]*build.Node, len(mod.Imports))
	for i, imp := range mod.Imports {
		dep, err := req.Session.Resolve(ctx, imp.Specifier, req.Node)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", imp.Line, err)
		}
		targets[i] = dep
	}
	return &build.Result{Script: Rewrite(req.Source, mod, targets)}, nil
}

type edit struct {
	start, end uint
	text       string
}

// Rewrite applies the loader form of a scanned module. targets holds the
// resolved node of each import, in the same order.
func Rewrite(source []byte, mod *trace.Module, targets []*build.Node) []byte {
	edits := make([]edit, 0, len(mod.Imports)+len(mod.Exports))
	for i, imp := range mod.Imports {
		edits = append(edits, edit{imp.Start, imp.End, importText(imp, targets[i])})
	}

	var tail strings.Builder
	for _, exp := range mod.Exports {
		switch exp.Kind {
		case trace.ExportDefault:
			edits = append(edits, edit{exp.Start, exp.Body, "module.exports="})
		case trace.ExportDeclaration:
			edits = append(edits, edit{exp.Start, exp.Body, ""})
			for _, b := range exp.Names {
				tail.WriteString(member("module.exports", b.Alias) + "=" + b.Name + ";")
			}
		case trace.ExportList:
			edits = append(edits, edit{exp.Start, exp.End, ""})
			for _, b := range exp.Names {
				if b.Alias == "default" {
					tail.WriteString("module.exports=" + b.Name + ";")
					continue
				}
				tail.WriteString(member("module.exports", b.Alias) + "=" + b.Name + ";")
			}
		}
	}
	slices.SortFunc(edits, func(a, b edit) int {
		return cmp.Compare(a.start, b.start)
	})

	var out bytes.Buffer
	out.Grow(len(source) + tail.Len())
	pos := uint(0)
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		out.Write(source[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.Write(source[pos:])
	if tail.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(tail.String())
	}
	return out.Bytes()
}

func importText(imp trace.ModuleImport, dep *build.Node) string {
	call := build.RequireCall(dep.Module)
	style := dep.Kind == build.KindStyle

	switch imp.Kind {
	case trace.ImportRequire:
		if style {
			return "({})"
		}
		return call
	case trace.ImportDynamic:
		if style {
			return "Promise.resolve({})"
		}
		return "Promise.resolve().then(function(){return " + call + "})"
	case trace.ImportReexport:
		return reexportText(imp, call)
	}

	var stmt string
	whole, pattern, aliases := importDeclarators(imp)
	switch {
	case whole == "" && pattern == "":
		stmt = call + ";"
	case whole == "":
		stmt = "const " + pattern + " = " + call + ";"
	default:
		decls := []string{whole + " = " + call}
		for _, alias := range aliases {
			decls = append(decls, alias+" = "+whole)
		}
		if pattern != "" {
			decls = append(decls, pattern+" = "+whole)
		}
		stmt = "const " + strings.Join(decls, ", ") + ";"
	}
	if style {
		return "// " + stmt
	}
	return stmt
}

// importDeclarators splits the bindings of an import statement into the
// binding of the whole module, further aliases of it, and a destructuring
// pattern of the named bindings. A default import binds the whole module.
func importDeclarators(imp trace.ModuleImport) (whole, pattern string, aliases []string) {
	whole = imp.Default
	if imp.Namespace != "" {
		if whole == "" {
			whole = imp.Namespace
		} else {
			aliases = append(aliases, imp.Namespace)
		}
	}
	var named []string
	for _, b := range imp.Named {
		switch {
		case b.Name == "default" && whole == "":
			whole = b.Alias
		case b.Name == "default":
			aliases = append(aliases, b.Alias)
		case b.Name == b.Alias:
			named = append(named, b.Name)
		default:
			named = append(named, property(b.Name)+": "+b.Alias)
		}
	}
	if len(named) > 0 {
		pattern = "{" + strings.Join(named, ", ") + "}"
	}
	return whole, pattern, aliases
}

func reexportText(imp trace.ModuleImport, call string) string {
	switch {
	case imp.Namespace != "":
		return member("module.exports", imp.Namespace) + "=" + call + ";"
	case imp.All:
		return "Object.assign(module.exports," + call + ");"
	}
	var b strings.Builder
	for _, n := range imp.Named {
		value := call
		if n.Name != "default" {
			value = member(call, n.Name)
		}
		if n.Alias == "default" {
			b.WriteString("module.exports=" + value + ";")
			continue
		}
		b.WriteString(member("module.exports", n.Alias) + "=" + value + ";")
	}
	return b.String()
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// member renders a property access on obj.
func member(obj, name string) string {
	if identifier.MatchString(name) {
		return obj + "." + name
	}
	return obj + "[" + quote(name) + "]"
}

// property renders a property key in a destructuring pattern.
func property(name string) string {
	if identifier.MatchString(name) {
		return name
	}
	return quote(name)
}

func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
