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
	"maps"
	"strings"
)

// Kind is a set of artifact kinds a compiler may produce.
type Kind uint8

const (
	KindScript Kind = 1 << iota
	KindStyle
	KindTemplate
	KindMarkup

	// KindRaw is the empty set: the source is copied with its own extension.
	KindRaw Kind = 0
)

var artifactKinds = []Kind{KindScript, KindStyle, KindTemplate, KindMarkup}

// Has reports whether k includes o.
func (k Kind) Has(o Kind) bool {
	return k&o != 0
}

// Primary returns the first kind in k, in script, style, template, markup
// order. The primary kind names the extension of a node's output path.
func (k Kind) Primary() Kind {
	for _, a := range artifactKinds {
		if k.Has(a) {
			return a
		}
	}
	return KindRaw
}

// Kinds lists the single kinds in k.
func (k Kind) Kinds() []Kind {
	var kinds []Kind
	for _, a := range artifactKinds {
		if k.Has(a) {
			kinds = append(kinds, a)
		}
	}
	return kinds
}

// Ext returns the output extension of the primary kind, without a dot.
// Raw kinds return "".
func (k Kind) Ext() string {
	switch k.Primary() {
	case KindScript:
		return "js"
	case KindStyle:
		return "css"
	case KindTemplate:
		return "tmpl"
	case KindMarkup:
		return "html"
	default:
		return ""
	}
}

func (k Kind) String() string {
	if k == KindRaw {
		return "raw"
	}
	names := make([]string, 0, 4)
	for _, a := range k.Kinds() {
		switch a {
		case KindScript:
			names = append(names, "script")
		case KindStyle:
			names = append(names, "style")
		case KindTemplate:
			names = append(names, "template")
		case KindMarkup:
			names = append(names, "markup")
		}
	}
	return strings.Join(names, "|")
}

// Compiler declares the artifact kinds produced for an asset type.
// A Compiler that is not also a Transformer copies its source unchanged.
type Compiler interface {
	Produces() Kind
}

// Transformer is a Compiler with a compile step.
type Transformer interface {
	Compiler
	Compile(ctx context.Context, req *Request) (*Result, error)
}

// Request is the input of a compile step.
type Request struct {
	Source  []byte
	Node    *Node
	Session *Session
}

// Result holds the artifacts of a compile step by kind.
// Script artifacts are wrapped in a module declaration when written.
type Result struct {
	Script   []byte
	Style    []byte
	Template []byte
	Markup   []byte
	Warnings []string
}

// Artifact returns the artifact of kind k, or nil.
func (r *Result) Artifact(k Kind) []byte {
	switch k {
	case KindScript:
		return r.Script
	case KindStyle:
		return r.Style
	case KindTemplate:
		return r.Template
	case KindMarkup:
		return r.Markup
	default:
		return nil
	}
}

func (r *Result) set(k Kind, data []byte) {
	switch k {
	case KindScript:
		r.Script = data
	case KindStyle:
		r.Style = data
	case KindTemplate:
		r.Template = data
	case KindMarkup:
		r.Markup = data
	}
}

// Registry maps a source extension, without the dot, to its compiler.
type Registry map[string]Compiler

// With returns a copy of r with overrides applied.
func (r Registry) With(overrides Registry) Registry {
	merged := maps.Clone(r)
	if merged == nil {
		merged = make(Registry)
	}
	maps.Copy(merged, overrides)
	return merged
}

// Passthrough is a Compiler that copies sources producing the given kinds.
type Passthrough Kind

func (p Passthrough) Produces() Kind {
	return Kind(p)
}

type verbatim struct{}

func (verbatim) Produces() Kind {
	return KindScript
}

func (verbatim) Compile(_ context.Context, req *Request) (*Result, error) {
	return &Result{Script: req.Source}, nil
}

// Verbatim declares a script module without rewriting its source.
// Vendor scripts and downloaded scripts use it.
var Verbatim Transformer = verbatim{}
