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
// Package local locates vendor packages on disk: first in the project's own
// vendor directory, then in installed node_modules packages.
package local

import (
	"context"
	"fmt"
	"path/filepath"

	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/packagejson"
	"bennypowers.dev/appbuild/resolve"
)

// Locator finds vendor scripts on the local filesystem.
type Locator struct {
	fs          fs.FileSystem
	logger      resolve.Logger
	vendorDir   string
	nodeModules string
	cache       packagejson.Cache
	conditions  []string
	minify      bool
}

// New creates a Locator with no search directories configured.
func New(fsys fs.FileSystem, logger resolve.Logger) *Locator {
	return &Locator{
		fs:     fsys,
		logger: logger,
		cache:  packagejson.NewMemoryCache(),
	}
}

// WithVendorDir returns a new Locator that searches dir for "<name><ext>" files.
func (l *Locator) WithVendorDir(dir string) *Locator {
	clone := *l
	clone.vendorDir = dir
	return &clone
}

// WithNodeModules returns a new Locator that searches installed packages under dir.
func (l *Locator) WithNodeModules(dir string) *Locator {
	clone := *l
	clone.nodeModules = dir
	return &clone
}

// WithPackageCache returns a new Locator sharing the given package.json cache.
func (l *Locator) WithPackageCache(cache packagejson.Cache) *Locator {
	clone := *l
	clone.cache = cache
	return &clone
}

// WithConditions returns a new Locator using the given export condition priority.
func (l *Locator) WithConditions(conditions []string) *Locator {
	clone := *l
	clone.conditions = conditions
	return &clone
}

// WithMinify returns a new Locator preferring minified style sheet siblings.
func (l *Locator) WithMinify(minify bool) *Locator {
	clone := *l
	clone.minify = minify
	return &clone
}

// Locate implements resolve.VendorLocator.
func (l *Locator) Locate(ctx context.Context, name string, exts []string) (resolve.VendorFile, error) {
	if l.vendorDir != "" {
		if file, ok := l.locateIn(l.vendorDir, name, exts); ok {
			return file, nil
		}
	}
	if l.nodeModules != "" {
		if file, ok := l.locatePackage(name, exts); ok {
			return file, nil
		}
	}
	return resolve.VendorFile{}, fmt.Errorf("%s: %w", name, resolve.ErrVendorNotFound)
}

func (l *Locator) locateIn(dir, name string, exts []string) (resolve.VendorFile, bool) {
	for _, ext := range exts {
		script := filepath.Join(dir, name+ext)
		if fs.IsFile(l.fs, script) {
			return resolve.VendorFile{
				Script: script,
				Style:  resolve.StyleSibling(l.fs, dir, name, l.minify),
			}, true
		}
	}
	return resolve.VendorFile{}, false
}

// locatePackage prefers a dist bundle named after the package and falls back
// to the entry declared in package.json.
func (l *Locator) locatePackage(name string, exts []string) (resolve.VendorFile, bool) {
	pkgDir := filepath.Join(l.nodeModules, name)
	if !fs.IsDir(l.fs, pkgDir) {
		return resolve.VendorFile{}, false
	}

	if file, ok := l.locateIn(filepath.Join(pkgDir, "dist"), name, exts); ok {
		return file, true
	}

	pkgPath := filepath.Join(pkgDir, "package.json")
	pkg, err := l.cache.GetOrLoad(pkgPath, func() (*packagejson.PackageJSON, error) {
		return packagejson.ParseFile(l.fs, pkgPath)
	})
	if err != nil {
		if l.logger != nil {
			l.logger.Debug("vendor %s: %v", name, err)
		}
		return resolve.VendorFile{}, false
	}

	var opts *packagejson.ResolveOptions
	if len(l.conditions) > 0 {
		opts = &packagejson.ResolveOptions{Conditions: l.conditions}
	}
	entry, err := pkg.BrowserEntry(opts)
	if err != nil {
		if l.logger != nil {
			l.logger.Warning("vendor %s: %v", name, err)
		}
		return resolve.VendorFile{}, false
	}

	script := filepath.Join(pkgDir, filepath.FromSlash(entry))
	if !fs.IsFile(l.fs, script) {
		return resolve.VendorFile{}, false
	}

	style := resolve.StyleSibling(l.fs, filepath.Dir(script), name, l.minify)
	if style == "" && pkg.Style != "" {
		if candidate := filepath.Join(pkgDir, filepath.FromSlash(pkg.Style)); fs.IsFile(l.fs, candidate) {
			style = candidate
		}
	}
	return resolve.VendorFile{Script: script, Style: style}, true
}
