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
// Package strategy implements the developer and production build modes.
package strategy

import (
	_ "embed"
	"path"
	"regexp"
	"strings"

	"bennypowers.dev/appbuild/build"
)

//go:embed runtime/loader.js
var loaderJS string

//go:embed runtime/livereload.js
var liveReloadJS string

var loaderName = regexp.MustCompile(`\$req\b`)

func withRequireName(code, requireName string) string {
	return loaderName.ReplaceAllLiteralString(code, requireName)
}

// Loader returns the module loader runtime declaring requireName.
func Loader(requireName string) string {
	return withRequireName(loaderJS, requireName)
}

// LiveReloadClient returns the live-reload client as a function expression.
func LiveReloadClient(requireName string) string {
	return strings.TrimSpace(withRequireName(liveReloadJS, requireName))
}

// Bootstrap returns the statement loading the entry module once the
// document is parsed.
func Bootstrap(requireName, module string) string {
	return "document.addEventListener('DOMContentLoaded',function(){" +
		requireName + "(" + build.QuoteModule(module) + ")});"
}

// entryScript returns the input path of the script paired with a markup
// document: the same path with a .js extension.
func entryScript(markup string) string {
	if ext := path.Ext(markup); ext != "" {
		return strings.TrimSuffix(markup, ext) + ".js"
	}
	return markup + ".js"
}
