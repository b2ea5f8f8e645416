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
// Package graph provides the graph command for appbuild.
package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/importmap"
	"bennypowers.dev/appbuild/internal/config"
	"bennypowers.dev/appbuild/internal/manifest"
	"bennypowers.dev/appbuild/internal/output"
)

// Cmd is the graph command, which prints the dependency graph recorded by
// the last build.
var Cmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the dependency graph of the last build",
	Long: `Print the dependency graph the last build recorded in the build directory.

The tree format lists every entry point with its dependencies in load order.
The importmap format maps module names to their built artifacts;
importmap-html wraps it in a script element.`,
	Example: `  # Colored dependency tree
  appbuild graph

  # Import map of the developer build
  appbuild graph --format importmap`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "tree", "Output format (tree, json, importmap, importmap-html)")
	Cmd.Flags().String("build-dir", build.DefaultOptions().Output, "Directory holding the build state")
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd); err != nil {
		return err
	}
	root, err := config.Root()
	if err != nil {
		return err
	}
	format := viper.GetString("format")
	switch format {
	case "tree", "json", "importmap", "importmap-html":
	default:
		return fmt.Errorf("invalid format %q: must be 'tree', 'json', 'importmap' or 'importmap-html'", format)
	}

	osfs := fs.NewOSFileSystem()
	path := filepath.Join(root, viper.GetString("build-dir"), manifest.FileName)
	m, err := manifest.Load(osfs, path)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no build state in %s: run appbuild build first", filepath.Dir(path))
	}

	switch format {
	case "json":
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling graph: %w", err)
		}
		return output.Write(osfs, string(out))
	case "importmap":
		return output.Write(osfs, ImportMap(m).Format("json"))
	case "importmap-html":
		return output.Write(osfs, ImportMap(m).Format("html"))
	default:
		var b strings.Builder
		Tree(&b, m)
		return output.Write(osfs, strings.TrimSuffix(b.String(), "\n"))
	}
}

// ImportMap maps each recorded module name to its artifact path.
func ImportMap(m *manifest.Manifest) *importmap.ImportMap {
	im := &importmap.ImportMap{}
	for _, name := range m.Names() {
		e := m.Entries[name]
		if e.Output == "" {
			continue
		}
		im.Set(name, "/"+e.Output)
	}
	return im
}

var (
	rootColor   = color.New(color.FgCyan, color.Bold)
	vendorColor = color.New(color.FgYellow)
	urlColor    = color.New(color.FgMagenta)
	seenColor   = color.New(color.Faint)
)

// Tree writes every root of m with its dependencies, depth first. A node
// already printed is shown once more, dimmed, without its subtree.
func Tree(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintf(w, "%s build\n", m.Mode)
	seen := make(map[string]bool)
	for _, name := range m.Roots {
		e, ok := m.Lookup(name)
		if !ok {
			continue
		}
		rootColor.Fprintln(w, e.Name) //nolint:errcheck
		seen[e.Name] = true
		children(w, m, e, "", seen)
	}
}

func children(w io.Writer, m *manifest.Manifest, e manifest.Entry, indent string, seen map[string]bool) {
	for i, out := range e.Deps {
		dep, ok := m.ByOutput(out)
		if !ok {
			continue
		}
		branch, next := "├── ", "│   "
		if i == len(e.Deps)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprint(w, indent+branch)
		if seen[dep.Name] {
			seenColor.Fprintln(w, dep.Name) //nolint:errcheck
			continue
		}
		seen[dep.Name] = true
		label(w, dep)
		children(w, m, dep, indent+next, seen)
	}
}

func label(w io.Writer, e manifest.Entry) {
	switch {
	case e.URL != "":
		urlColor.Fprintf(w, "%s", e.Name) //nolint:errcheck
	case e.Vendor:
		vendorColor.Fprintf(w, "%s", e.Name) //nolint:errcheck
	default:
		fmt.Fprint(w, e.Name)
	}
	fmt.Fprintf(w, " -> %s\n", e.Output)
}
