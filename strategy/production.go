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
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"bennypowers.dev/appbuild/build"
	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/inject"
)

// Production bundles each entry point into one script and one style sheet
// in the distribution root, next to a shared vendor bundle holding the
// loader and every vendor package. Modules are declared under short
// base-32 identities that stay stable across sessions.
type Production struct {
	// Now stamps cache-busting query strings. Nil means time.Now.
	Now func() time.Time

	mu   sync.Mutex
	next uint64

	vendorMu  sync.Mutex
	vendorJS  []*build.Node
	vendorCSS []*build.Node

	licenseOnce sync.Once
	license     string
}

// NewProduction returns the production strategy.
func NewProduction() *Production {
	return &Production{}
}

func (*Production) Mode() build.Mode {
	return build.ModeProduction
}

func (p *Production) Compilers() build.Registry {
	return build.Registry{"html": productionMarkup{p}}
}

// Identity reuses the identity a module had in the previous session and
// otherwise draws the next counter value. Vendor packages and downloads
// keep their requested name.
func (p *Production) Identity(s *build.Session, n *build.Node) string {
	if n.Vendor {
		return n.Name
	}
	if prev, ok := s.Previous(n.Name); ok && prev.Module != "" && !prev.Vendor {
		return prev.Module
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return strconv.FormatUint(p.next, 32)
}

// PreBuild starts the identity counter after the identities of the
// previous session.
func (p *Production) PreBuild(_ context.Context, s *build.Session) error {
	var highest uint64
	for _, e := range s.PreviousEntries() {
		if e.Vendor {
			continue
		}
		if id, err := strconv.ParseUint(e.Module, 32, 64); err == nil && id > highest {
			highest = id
		}
	}
	p.mu.Lock()
	p.next = highest
	p.mu.Unlock()

	p.vendorMu.Lock()
	p.vendorJS, p.vendorCSS = nil, nil
	p.vendorMu.Unlock()
	return nil
}

// PostBuild completes the vendor bundle with the vendor packages of entry
// points that were not recompiled, then copies the assets directory into
// the distribution root.
func (p *Production) PostBuild(_ context.Context, s *build.Session) error {
	scripts, styles := rootVendors(s)
	if _, _, err := p.writeVendor(s, scripts, styles); err != nil {
		return err
	}

	opts := s.Options()
	if opts.Assets == "" {
		return nil
	}
	src := filepath.Join(opts.InputDir(), opts.Assets)
	if !appfs.IsDir(s.FS(), src) {
		return nil
	}
	s.Logger().Info("%s => %s", src, filepath.Join(opts.Dist, opts.Assets))
	return appfs.CopyTree(s.FS(), src, filepath.Join(opts.DistDir(), opts.Assets))
}

func (p *Production) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Production) licenseText(s *build.Session) string {
	p.licenseOnce.Do(func() {
		p.license = License(s.FS(), s.Options().Root)
	})
	return p.license
}

// rootVendors collects the vendor artifacts every entry point of the last
// scan depends on, in entry order.
func rootVendors(s *build.Session) (scripts, styles []*build.Node) {
	for _, root := range s.Roots() {
		n, ok := s.NodeByInput(root)
		if !ok {
			continue
		}
		for _, dep := range s.Ordered(n) {
			switch {
			case !dep.Vendor:
			case dep.Kind == build.KindScript && !slices.Contains(scripts, dep):
				scripts = append(scripts, dep)
			case dep.Kind == build.KindStyle && !slices.Contains(styles, dep):
				styles = append(styles, dep)
			}
		}
	}
	return scripts, styles
}

// addVendors records vendor artifacts and reports whether any was new.
func (p *Production) addVendors(scripts, styles []*build.Node) bool {
	added := false
	for _, n := range scripts {
		if !slices.Contains(p.vendorJS, n) {
			p.vendorJS = append(p.vendorJS, n)
			added = true
		}
	}
	for _, n := range styles {
		if !slices.Contains(p.vendorCSS, n) {
			p.vendorCSS = append(p.vendorCSS, n)
			added = true
		}
	}
	return added
}

// writeVendor writes the vendor bundles when the entry point brings
// vendor artifacts no bundle holds yet, and returns the bundle names.
func (p *Production) writeVendor(s *build.Session, scripts, styles []*build.Node) (js, css string, err error) {
	opts := s.Options()
	js = opts.VendorBundle + ".js"
	css = opts.VendorBundle + ".css"

	p.vendorMu.Lock()
	defer p.vendorMu.Unlock()
	jsFile := filepath.Join(opts.DistDir(), js)
	if !p.addVendors(scripts, styles) && appfs.IsFile(s.FS(), jsFile) {
		if len(p.vendorCSS) == 0 {
			css = ""
		}
		return js, css, nil
	}

	loader := []byte(Loader(opts.RequireName))
	if opts.Minify {
		if loader, err = MinifyScript(loader, Defines(opts)); err != nil {
			return "", "", err
		}
	}
	var b bytes.Buffer
	b.Write(loader)
	for _, n := range p.vendorJS {
		data, err := s.ReadOutput(n)
		if err != nil {
			return "", "", err
		}
		b.WriteByte('\n')
		b.Write(data)
	}
	if err := p.writeDist(s, js, b.Bytes()); err != nil {
		return "", "", err
	}

	if len(p.vendorCSS) == 0 {
		return js, "", nil
	}
	b.Reset()
	for i, n := range p.vendorCSS {
		data, err := s.ReadOutput(n)
		if err != nil {
			return "", "", err
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(data)
	}
	return js, css, p.writeDist(s, css, b.Bytes())
}

func (p *Production) writeDist(s *build.Session, rel string, data []byte) error {
	if err := appfs.Write(s.FS(), filepath.Join(s.Options().DistDir(), filepath.FromSlash(rel)), data); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	s.Logger().Info("%s => %s", rel, path.Join(s.Options().Dist, rel))
	return nil
}

// bundle concatenates module artifacts, each preceded by its input path.
func bundle(s *build.Session, nodes []*build.Node) ([]byte, error) {
	var b bytes.Buffer
	for _, n := range nodes {
		data, err := s.ReadOutput(n)
		if err != nil {
			return nil, err
		}
		b.WriteString("\n/* " + inputName(n) + " */\n")
		b.Write(data)
	}
	return b.Bytes(), nil
}

func inputName(n *build.Node) string {
	if p := n.Parent(); p != nil {
		n = p
	}
	if n.InputPath != "" {
		return n.InputPath
	}
	return n.Name
}

type productionMarkup struct {
	p *Production
}

func (productionMarkup) Produces() build.Kind {
	return build.KindMarkup
}

func (m productionMarkup) Compile(ctx context.Context, req *build.Request) (*build.Result, error) {
	s, n, p := req.Session, req.Node, m.p
	opts := s.Options()
	script := entryScript(n.InputPath)
	if !s.InputExists(script) {
		if err := p.writeDist(s, n.OutputPath, req.Source); err != nil {
			return nil, err
		}
		return &build.Result{Markup: req.Source}, nil
	}
	entry, err := s.Resolve(ctx, "/"+script, n)
	if err != nil {
		return nil, err
	}

	var vendorJS, vendorCSS, scripts, styles, templates, files []*build.Node
	for _, dep := range s.Ordered(entry) {
		switch {
		case dep.Vendor && dep.Kind == build.KindScript:
			vendorJS = append(vendorJS, dep)
		case dep.Vendor && dep.Kind == build.KindStyle:
			vendorCSS = append(vendorCSS, dep)
		case dep.Kind == build.KindScript:
			scripts = append(scripts, dep)
		case dep.Kind == build.KindStyle:
			styles = append(styles, dep)
		case dep.Kind == build.KindTemplate:
			templates = append(templates, dep)
		case dep.Kind == build.KindRaw:
			files = append(files, dep)
		}
	}
	for _, f := range files {
		data, err := s.ReadOutput(f)
		if err != nil {
			return nil, err
		}
		if err := p.writeDist(s, f.OutputPath, data); err != nil {
			return nil, err
		}
	}

	license := p.licenseText(s)
	stamp := "?" + strconv.FormatInt(p.now().Unix(), 10)
	dir := path.Dir(n.OutputPath)
	ref := func(rel string) string {
		r, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(rel))
		if err != nil {
			return rel
		}
		return filepath.ToSlash(r) + stamp
	}

	vendorJSName, vendorCSSName, err := p.writeVendor(s, vendorJS, vendorCSS)
	if err != nil {
		return nil, err
	}
	tags := []string{inject.Tag(ref(vendorJSName))}
	if vendorCSSName != "" {
		tags = append(tags, inject.Tag(ref(vendorCSSName)))
	}

	if len(styles) > 0 {
		css, err := bundle(s, styles)
		if err != nil {
			return nil, err
		}
		if opts.Minify {
			if css, err = MinifyStyle(css); err != nil {
				return nil, err
			}
		}
		if license != "" {
			css = append([]byte("/*\n"+license+"\n*/\n"), css...)
		}
		name := withExt(n.OutputPath, "css")
		if err := p.writeDist(s, name, css); err != nil {
			return nil, err
		}
		tags = append(tags, inject.Tag(ref(name)))
	}

	js, err := bundle(s, scripts)
	if err != nil {
		return nil, err
	}
	js = append(js, "\n"+Bootstrap(opts.RequireName, entry.Module)+"\n"...)
	if opts.Minify {
		if js, err = MinifyScript(js, Defines(opts)); err != nil {
			return nil, err
		}
	}
	if license != "" {
		js = append([]byte("/** @license\n"+license+"\n*/\n"), js...)
	}
	name := withExt(n.OutputPath, "js")
	if err := p.writeDist(s, name, js); err != nil {
		return nil, err
	}
	tags = append(tags, inject.Tag(ref(name)))

	for _, t := range templates {
		data, err := s.ReadOutput(t)
		if err != nil {
			return nil, err
		}
		tags = append(tags, string(data))
	}

	out, err := inject.Insert(req.Source, tags)
	if err != nil {
		if errors.Is(err, inject.ErrNoHead) {
			return nil, &build.MarkupAssemblyError{Path: n.InputPath, Anchor: "</head>", Cause: err}
		}
		return nil, err
	}
	if err := p.writeDist(s, n.OutputPath, out); err != nil {
		return nil, err
	}
	return &build.Result{Markup: out}, nil
}

func withExt(p, ext string) string {
	return p[:len(p)-len(path.Ext(p))] + "." + ext
}
