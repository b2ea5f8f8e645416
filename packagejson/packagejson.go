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
// Package packagejson reads the package.json fields needed to find the
// browser-loadable script of an installed third-party package.
package packagejson

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"

	"bennypowers.dev/appbuild/fs"
)

// ErrNotExported is returned when a subpath is not exported by the package.
var ErrNotExported = errors.New("not exported by package.json")

// ErrNoEntry is returned when a package declares no usable browser entry.
var ErrNoEntry = errors.New("package.json declares no browser entry")

// DefaultConditions is the export condition priority for classic browser scripts.
var DefaultConditions = []string{"browser", "script", "default"}

// ResolveOptions configures how conditional exports are resolved.
type ResolveOptions struct {
	// Conditions is the ordered list of conditions to try when resolving exports.
	// If nil, defaults to DefaultConditions.
	Conditions []string
}

// PackageJSON represents the subset of package.json relevant for vendor lookup.
type PackageJSON struct {
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	Main          string          `json:"main,omitempty"`
	Module        string          `json:"module,omitempty"`
	Browser       any             `json:"browser,omitempty"`
	Unpkg         string          `json:"unpkg,omitempty"`
	Jsdelivr      string          `json:"jsdelivr,omitempty"`
	Style         string          `json:"style,omitempty"`
	Exports       any             `json:"exports,omitempty"`
	RawWorkspaces json.RawMessage `json:"workspaces,omitempty"`

	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ParseFile parses a package.json file.
func ParseFile(fsys fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Versions returns the declared version range of every dependency.
// Runtime dependencies win over development ones.
func (pkg *PackageJSON) Versions() map[string]string {
	versions := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	maps.Copy(versions, pkg.DevDependencies)
	maps.Copy(versions, pkg.Dependencies)
	return versions
}

// HasWorkspaces returns true if the package declares workspace patterns,
// in either the array or the {"packages": [...]} form.
func (pkg *PackageJSON) HasWorkspaces() bool {
	if len(pkg.RawWorkspaces) == 0 {
		return false
	}
	var patterns []string
	if err := json.Unmarshal(pkg.RawWorkspaces, &patterns); err == nil {
		return len(patterns) > 0
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(pkg.RawWorkspaces, &obj); err == nil {
		return len(obj.Packages) > 0
	}
	return false
}

// BrowserEntry returns the package-relative path of the script a page can load
// with a plain script tag. CDN fields point at UMD bundles and win over the
// "browser" field, the main export and finally "main".
func (pkg *PackageJSON) BrowserEntry(opts *ResolveOptions) (string, error) {
	for _, candidate := range []string{pkg.Jsdelivr, pkg.Unpkg} {
		if candidate != "" {
			return trimDotSlash(candidate), nil
		}
	}
	if browser, ok := pkg.Browser.(string); ok && browser != "" {
		return trimDotSlash(browser), nil
	}
	if entry, err := pkg.ResolveExport(".", opts); err == nil {
		return entry, nil
	}
	if pkg.Main != "" {
		return trimDotSlash(pkg.Main), nil
	}
	return "", ErrNoEntry
}

// ResolveExport resolves a subpath export to its target file path.
// The subpath should be "." for the main export or "./subpath" for subpath exports.
// Returns the resolved path without leading "./".
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) ResolveExport(subpath string, opts *ResolveOptions) (string, error) {
	switch exports := pkg.Exports.(type) {
	case nil:
		return "", ErrNotExported
	case string:
		if subpath == "." {
			return trimDotSlash(exports), nil
		}
		return "", ErrNotExported
	case map[string]any:
		if !hasSubpaths(exports) {
			// Condition-only export for the main entry
			if subpath == "." {
				return resolveConditions(exports, opts)
			}
			return "", ErrNotExported
		}
		value, ok := exports[subpath]
		if !ok {
			return "", ErrNotExported
		}
		return resolveValue(value, opts)
	}
	return "", ErrNotExported
}

func hasSubpaths(exports map[string]any) bool {
	for key := range exports {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

// resolveValue resolves an export value, which may be a path, a condition
// map, or a fallback array.
func resolveValue(value any, opts *ResolveOptions) (string, error) {
	switch v := value.(type) {
	case string:
		return trimDotSlash(v), nil
	case map[string]any:
		return resolveConditions(v, opts)
	case []any:
		for _, item := range v {
			if result, err := resolveValue(item, opts); err == nil {
				return result, nil
			}
		}
	}
	return "", ErrNotExported
}

// resolveConditions tries each condition in priority order, recursing into nested maps.
func resolveConditions(conditions map[string]any, opts *ResolveOptions) (string, error) {
	conditionList := DefaultConditions
	if opts != nil && len(opts.Conditions) > 0 {
		conditionList = opts.Conditions
	}

	for _, cond := range conditionList {
		if value, ok := conditions[cond]; ok {
			if result, err := resolveValue(value, opts); err == nil {
				return result, nil
			}
		}
	}

	return "", ErrNotExported
}

// trimDotSlash removes a leading "./" from a path.
func trimDotSlash(path string) string {
	return strings.TrimPrefix(path, "./")
}
