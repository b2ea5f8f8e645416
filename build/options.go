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
	"runtime"
)

// Mode selects a build strategy.
type Mode string

const (
	// ModeDeveloper emits one artifact per module plus an optional live-reload client.
	ModeDeveloper Mode = "developer"
	// ModeProduction emits concatenated, license-stamped and optionally minified bundles.
	ModeProduction Mode = "production"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeDeveloper, ModeProduction:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("unknown build mode %q (want %q or %q)", name, ModeDeveloper, ModeProduction)
	}
}

// Options configures a build session.
type Options struct {
	// Root is the project directory the other paths are relative to.
	Root   string
	Input  string
	Output string
	Dist   string
	// Assets is the subdirectory of Input served and distributed as is.
	Assets string
	// Vendor is the subdirectory of Input holding vendored packages, and
	// the subdirectory of Output vendor artifacts are written to.
	Vendor string
	// VendorBundle is the file name prefix of the production vendor bundle.
	VendorBundle string
	Mode         Mode
	Minify       bool
	Live         bool
	// Rebuild compiles every reached asset even when its artifacts are current.
	Rebuild bool
	// RequireName is the global module loader function name.
	RequireName string
	// Lookup lists suffixes tried for local references that name no file.
	Lookup []string
	// EntryTypes lists the extensions of entry point documents.
	EntryTypes []string
	// Provider names the CDN used for vendor packages found nowhere else.
	Provider string
	// CDNTemplate overrides the dist URL template of Provider.
	CDNTemplate string
	// Concurrency bounds the entry points built at once. Zero means GOMAXPROCS.
	Concurrency int
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Root:         ".",
		Input:        "app",
		Output:       "build",
		Dist:         "dist",
		Assets:       "assets",
		Vendor:       "vendor",
		VendorBundle: "vendor",
		Mode:         ModeProduction,
		Minify:       true,
		Rebuild:      true,
		RequireName:  "$req",
		Lookup:       []string{".js", ".vue", "/index.js"},
		EntryTypes:   []string{"html"},
		Provider:     "jsdelivr",
	}
}

// InputDir returns the input root.
func (o Options) InputDir() string {
	return filepath.Join(o.Root, o.Input)
}

// OutputDir returns the output root.
func (o Options) OutputDir() string {
	return filepath.Join(o.Root, o.Output)
}

// DistDir returns the distribution root.
func (o Options) DistDir() string {
	return filepath.Join(o.Root, o.Dist)
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}
