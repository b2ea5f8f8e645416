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
	"context"
	"strings"
)

// Strategy customizes a session for a build mode.
type Strategy interface {
	Mode() Mode
	// Compilers returns registry overrides applied on top of the base registry.
	Compilers() Registry
	// Identity returns the module identity of a newly resolved node.
	// It is called with the session lock held and must not call back into
	// the session, except for Previous.
	Identity(s *Session, n *Node) string
	PreBuild(ctx context.Context, s *Session) error
	PostBuild(ctx context.Context, s *Session) error
}

// QuoteModule renders a module identity as a loader argument: numeric
// identities stay bare, others become single-quoted strings.
func QuoteModule(module string) string {
	if module != "" && strings.Trim(module, "0123456789") == "" {
		return module
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(module) + "'"
}

// RequireCall returns the in-module expression that loads module.
func RequireCall(module string) string {
	return "require(" + QuoteModule(module) + ")"
}

// Declare wraps compiled script content in a module declaration.
func (s *Session) Declare(module string, content []byte) []byte {
	var b strings.Builder
	b.Grow(len(content) + len(module) + 64)
	b.WriteString(s.opts.RequireName)
	b.WriteByte('(')
	b.WriteString(QuoteModule(module))
	b.WriteString(",function(module,exports,require){")
	b.Write(content)
	b.WriteString("\n})\n")
	return []byte(b.String())
}
