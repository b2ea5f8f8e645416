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
package resolve

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a CDN dist URL with placeholders:
//
//	{package}  full package name, e.g. "@scope/name"
//	{name}     package name without scope
//	{scope}    scope without the @, empty for unscoped packages
//	{version}  pinned version or range, empty for the latest release
//	{path}     file inside the dist directory
//
// An "@{version}" with no version expands to nothing.
type Template struct {
	pattern string
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

var placeholders = map[string]bool{
	"package": true,
	"name":    true,
	"scope":   true,
	"version": true,
	"path":    true,
}

// ParseTemplate validates a URL template.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty URL template")
	}
	for _, m := range placeholder.FindAllStringSubmatch(pattern, -1) {
		if !placeholders[m[1]] {
			return nil, fmt.Errorf("URL template %q: unknown placeholder {%s}", pattern, m[1])
		}
	}
	return &Template{pattern: pattern}, nil
}

// Expand fills in the placeholders for one file of a package.
func (t *Template) Expand(pkg, version, file string) string {
	name, scope := SplitPackageName(pkg)
	pairs := []string{
		"{package}", pkg,
		"{name}", name,
		"{scope}", scope,
		"{path}", file,
	}
	if version == "" {
		pairs = append(pairs, "@{version}", "")
	}
	pairs = append(pairs, "{version}", version)
	return strings.NewReplacer(pairs...).Replace(t.pattern)
}

// String returns the template pattern.
func (t *Template) String() string {
	return t.pattern
}

// SplitPackageName splits "@scope/name" into ("name", "scope"). Unscoped
// names come back unchanged with an empty scope.
func SplitPackageName(pkg string) (name, scope string) {
	if rest, ok := strings.CutPrefix(pkg, "@"); ok {
		if s, n, ok := strings.Cut(rest, "/"); ok {
			return n, s
		}
	}
	return pkg, ""
}
