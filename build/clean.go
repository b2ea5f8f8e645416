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
	"strings"

	appfs "bennypowers.dev/appbuild/fs"
)

// Clean removes the output directory and, in production mode, the dist
// directory. It refuses to remove the project root, the input directory or
// anything enclosing them.
func Clean(fsys appfs.FileSystem, opts Options) error {
	dirs := []string{opts.OutputDir()}
	if opts.Mode == ModeProduction {
		dirs = append(dirs, opts.DistDir())
	}
	for _, dir := range dirs {
		for _, keep := range []string{opts.Root, opts.InputDir()} {
			if within(keep, dir) {
				return fmt.Errorf("refusing to clean %s: it contains %s", dir, keep)
			}
		}
	}
	for _, dir := range dirs {
		if err := fsys.RemoveAll(dir); err != nil {
			return fmt.Errorf("clean %s: %w", dir, err)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
