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
	"path/filepath"
	"regexp"

	appfs "bennypowers.dev/appbuild/fs"
)

var copyrightLine = regexp.MustCompile(`(?s)^.*?Copyright[^\n]*`)

// License returns the project license notice stamped on production
// bundles: LICENSE in the project root up to and including its first
// copyright line, or the whole file when it has none.
func License(fsys appfs.FileSystem, root string) string {
	data, err := fsys.ReadFile(filepath.Join(root, "LICENSE"))
	if err != nil {
		return ""
	}
	if m := copyrightLine.Find(data); m != nil {
		data = m
	}
	return string(bytes.TrimSpace(data))
}
