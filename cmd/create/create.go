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
// Package create provides the create command for appbuild.
package create

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/build"
	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/config"
)

//go:embed scaffold
var scaffold embed.FS

// Cmd is the create command, which scaffolds an empty application.
var Cmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold a new application",
	Long: `Write a minimal application (index.html, index.js and App.vue) to the
input directory. Existing files are left alone.`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("input", build.DefaultOptions().Input, "Input directory")
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.BindFlags(cmd); err != nil {
		return err
	}
	root, err := config.Root()
	if err != nil {
		return err
	}
	written, err := Scaffold(appfs.NewOSFileSystem(), filepath.Join(root, viper.GetString("input")))
	if err != nil {
		return err
	}
	for _, name := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
	}
	return nil
}

// Scaffold writes the starter files missing from dir and returns the paths
// it wrote.
func Scaffold(fsys appfs.FileSystem, dir string) ([]string, error) {
	entries, err := fs.ReadDir(scaffold, "scaffold")
	if err != nil {
		return nil, err
	}
	var written []string
	for _, entry := range entries {
		dst := filepath.Join(dir, entry.Name())
		if fsys.Exists(dst) {
			continue
		}
		data, err := fs.ReadFile(scaffold, "scaffold/"+entry.Name())
		if err != nil {
			return written, err
		}
		if err := appfs.Write(fsys, dst, data); err != nil {
			return written, fmt.Errorf("creating %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
