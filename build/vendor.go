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
	"fmt"
	"path/filepath"

	"bennypowers.dev/appbuild/cdn"
	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/packagejson"
	"bennypowers.dev/appbuild/resolve"
	cdnlocator "bennypowers.dev/appbuild/resolve/cdn"
	"bennypowers.dev/appbuild/resolve/local"
)

// CDNCacheDir is the directory under the output root downloaded vendor
// packages are kept in.
const CDNCacheDir = ".cdn"

// DefaultLocators returns the vendor lookup order: the input vendor
// directory, then node_modules of the enclosing workspace, then the CDN
// provider when a fetcher is available. CDN downloads are pinned to the
// dependency versions of the project package.json, if there is one.
func DefaultLocators(fsys appfs.FileSystem, opts Options, fetcher cdn.Fetcher, logger Logger) ([]resolve.VendorLocator, error) {
	loc := local.New(fsys, logger).
		WithVendorDir(filepath.Join(opts.InputDir(), opts.Vendor)).
		WithMinify(opts.Minify)
	root := resolve.FindWorkspaceRoot(fsys, opts.Root)
	if modules := filepath.Join(root, "node_modules"); appfs.IsDir(fsys, modules) {
		loc = loc.WithNodeModules(modules)
	}
	locators := []resolve.VendorLocator{loc}
	if fetcher == nil {
		return locators, nil
	}

	name := opts.Provider
	if name == "" {
		name = DefaultOptions().Provider
	}
	provider := cdn.ProviderByName(name)
	if provider == nil {
		return nil, fmt.Errorf("unknown CDN provider %q (valid: %v)", name, cdn.ProviderNames())
	}
	remote := cdnlocator.New(fetcher, fsys, filepath.Join(opts.OutputDir(), CDNCacheDir)).
		WithProvider(*provider).
		WithLogger(logger)
	if opts.CDNTemplate != "" {
		var err error
		if remote, err = remote.WithTemplate(opts.CDNTemplate); err != nil {
			return nil, err
		}
	}
	if pkg, err := packagejson.ParseFile(fsys, filepath.Join(opts.Root, "package.json")); err == nil {
		remote = remote.WithVersions(pkg.Versions())
	}
	return append(locators, remote), nil
}
