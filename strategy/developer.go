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
package strategy

import (
	"context"
	"errors"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/inject"
)

// Developer emits every module as its own artifact, referenced one tag per
// artifact from the markup, so a change rewrites a single file.
type Developer struct{}

// NewDeveloper returns the developer strategy.
func NewDeveloper() *Developer {
	return &Developer{}
}

func (*Developer) Mode() build.Mode {
	return build.ModeDeveloper
}

func (d *Developer) Compilers() build.Registry {
	return build.Registry{"html": developerMarkup{}}
}

// Identity keeps modules readable in the browser: local modules are
// declared under their input path, vendor packages and downloads under the
// name they were requested by.
func (*Developer) Identity(_ *build.Session, n *build.Node) string {
	if n.InputPath != "" && !n.Vendor {
		return n.InputPath
	}
	return n.Name
}

func (*Developer) PreBuild(context.Context, *build.Session) error  { return nil }
func (*Developer) PostBuild(context.Context, *build.Session) error { return nil }

type developerMarkup struct{}

func (developerMarkup) Produces() build.Kind {
	return build.KindMarkup
}

func (developerMarkup) Compile(ctx context.Context, req *build.Request) (*build.Result, error) {
	s, n := req.Session, req.Node
	script := entryScript(n.InputPath)
	if !s.InputExists(script) {
		return &build.Result{Markup: req.Source}, nil
	}
	entry, err := s.Resolve(ctx, "/"+script, n)
	if err != nil {
		return nil, err
	}

	opts := s.Options()
	tags := []string{inject.Script(Loader(opts.RequireName) + Bootstrap(opts.RequireName, entry.Module))}
	if opts.Live {
		tags = append(tags, inject.Script("("+LiveReloadClient(opts.RequireName)+")()"))
	}
	for _, dep := range s.Ordered(entry) {
		switch dep.Kind {
		case build.KindScript, build.KindStyle:
			tags = append(tags, inject.Tag("/"+dep.OutputPath))
		case build.KindTemplate:
			data, err := s.ReadOutput(dep)
			if err != nil {
				return nil, err
			}
			tags = append(tags, string(data))
		}
	}

	out, err := inject.Insert(req.Source, tags)
	if err != nil {
		if errors.Is(err, inject.ErrNoHead) {
			return nil, &build.MarkupAssemblyError{Path: n.InputPath, Anchor: "</head>", Cause: err}
		}
		return nil, err
	}
	return &build.Result{Markup: out}, nil
}
