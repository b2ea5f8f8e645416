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
package compile

import (
	"bennypowers.dev/appbuild/build"
)

// Default returns the compilers for the source types every build knows.
// Markup is copied as is here; strategies replace it with their own
// markup compiler.
func Default() build.Registry {
	r := build.Registry{
		"js":   Script{},
		"mjs":  Script{},
		"json": JSON{},
		"vue":  Component{},
		"css":  build.Passthrough(build.KindStyle),
		"tmpl": build.Passthrough(build.KindTemplate),
		"html": build.Passthrough(build.KindMarkup),
	}
	for _, ext := range RawTypes {
		r[ext] = build.Passthrough(build.KindRaw)
	}
	return r
}

// RawTypes are copied to the output root under their own name.
var RawTypes = []string{
	"png", "jpg", "jpeg", "gif", "svg", "webp", "ico",
	"woff", "woff2", "ttf", "eot", "otf",
	"txt", "map", "wasm",
}
