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
// Package resolve provides reference classification, vendor lookup contracts,
// and the dependency graph shared by the build engine.
package resolve

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/packagejson"
)

// Logger is an interface for logging messages during resolution.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// RefKind classifies a module reference.
type RefKind int

const (
	// RefLocal is a file inside the project input root.
	RefLocal RefKind = iota
	// RefVendor is a third-party package referenced by bare name.
	RefVendor
	// RefURL is an absolute http(s) URL.
	RefURL
)

func (k RefKind) String() string {
	switch k {
	case RefVendor:
		return "vendor"
	case RefURL:
		return "url"
	default:
		return "local"
	}
}

var (
	urlPattern    = regexp.MustCompile(`^https?://`)
	vendorPattern = regexp.MustCompile(`^[^./\\]+$`)
)

// ErrOutsideRoot is returned when a local reference escapes the input root.
var ErrOutsideRoot = errors.New("reference escapes the input root")

// Classify reports how a reference should be resolved.
// Bare names without dots or separators (e.g. "vue") are vendor packages.
func Classify(ref string) RefKind {
	switch {
	case urlPattern.MatchString(ref):
		return RefURL
	case vendorPattern.MatchString(ref):
		return RefVendor
	default:
		return RefLocal
	}
}

// Canonical turns a local reference into a slash-separated name relative to
// the input root. fromDir is the input-root-relative directory of the
// requesting file; "./" and "../" references are joined with it, "~/" and
// "/" references and plain paths are root-relative.
func Canonical(ref, fromDir string) (string, error) {
	var joined string
	switch {
	case strings.HasPrefix(ref, "./"), strings.HasPrefix(ref, "../"):
		joined = path.Join(fromDir, ref)
	case strings.HasPrefix(ref, "~/"):
		joined = path.Clean(ref[2:])
	default:
		joined = path.Clean(strings.TrimPrefix(ref, "/"))
	}
	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return "", ErrOutsideRoot
	}
	return joined, nil
}

// VendorFile is a located third-party package.
type VendorFile struct {
	// Script is the absolute path of the package script.
	Script string
	// Style is the absolute path of a sibling style sheet, or empty.
	Style string
}

// ErrVendorNotFound is returned by a VendorLocator that has no candidate for a package.
var ErrVendorNotFound = errors.New("vendor package not found")

// VendorLocator finds a third-party package by bare name.
// exts lists the script file suffixes to try, most preferred first.
type VendorLocator interface {
	Locate(ctx context.Context, name string, exts []string) (VendorFile, error)
}

// MinifiedExts and PlainExts are the vendor script suffix preferences.
var (
	MinifiedExts = []string{".min.js", ".umd.js", ".js"}
	PlainExts    = []string{".js", ".min.js", ".umd.js"}
)

// VendorExts returns the suffix preference for the given minify setting.
func VendorExts(minify bool) []string {
	if minify {
		return MinifiedExts
	}
	return PlainExts
}

// StyleSibling returns the first existing style sheet next to a vendor script
// in dir, preferring the minified variant when minify is set.
func StyleSibling(fsys fs.FileSystem, dir, name string, minify bool) string {
	candidates := []string{name + ".css", name + ".min.css"}
	if minify {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, c := range candidates {
		p := filepath.Join(dir, c)
		if fs.IsFile(fsys, p) {
			return p
		}
	}
	return ""
}

// FindWorkspaceRoot walks up the directory tree to find the workspace root.
// Returns the directory containing node_modules, workspace configuration, or .git.
func FindWorkspaceRoot(fsys fs.FileSystem, startDir string) string {
	dir := startDir
	for {
		// Check if node_modules exists in this directory
		if fs.IsDir(fsys, filepath.Join(dir, "node_modules")) {
			return dir
		}

		// Check if there's a package.json with workspaces field
		pkgPath := filepath.Join(dir, "package.json")
		if pkg, err := packagejson.ParseFile(fsys, pkgPath); err == nil && pkg.HasWorkspaces() {
			return dir
		}

		// Check for .git directory (repository root is a reasonable workspace root)
		if fs.IsDir(fsys, filepath.Join(dir, ".git")) {
			return dir
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
