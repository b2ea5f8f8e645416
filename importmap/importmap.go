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
// Package importmap renders the modules of a build as an ES module import
// map, so tools loading built artifacts directly can resolve the same
// specifiers the loader does.
// See https://developer.mozilla.org/en-US/docs/Web/HTML/Element/script/type/importmap
package importmap

import (
	"encoding/json"
	"strings"
)

// ImportMap maps module specifiers to artifact URLs.
type ImportMap struct {
	Imports map[string]string `json:"imports,omitempty"`
}

// Set maps a specifier to a URL.
func (im *ImportMap) Set(specifier, url string) {
	if im.Imports == nil {
		im.Imports = make(map[string]string)
	}
	im.Imports[specifier] = url
}

// ToJSON renders the map as indented JSON, or "" when it is empty.
func (im *ImportMap) ToJSON() string {
	if im == nil || len(im.Imports) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(im, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// ToHTML wraps the JSON form in an importmap script element.
func (im *ImportMap) ToHTML() string {
	body := im.ToJSON()
	if body == "" {
		body = "{}"
	}
	return "<script type=\"importmap\">\n  " + strings.ReplaceAll(body, "\n", "\n  ") + "\n</script>"
}

// Format renders the map as "json" or "html".
func (im *ImportMap) Format(format string) string {
	if format == "html" {
		return im.ToHTML()
	}
	return im.ToJSON()
}
