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
// Package output writes command output to stdout or to the --output file.
package output

import (
	"fmt"

	"github.com/spf13/viper"

	"bennypowers.dev/appbuild/fs"
)

// Write prints text to stdout, or writes it to the file named by viper's
// "output" key when that is set.
func Write(osfs fs.FileSystem, text string) error {
	if outputPath := viper.GetString("output"); outputPath != "" {
		return fs.Write(osfs, outputPath, []byte(text+"\n"))
	}
	fmt.Println(text)
	return nil
}
