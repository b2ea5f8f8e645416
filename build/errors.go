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
	"strings"
)

// NotFoundError is returned when no asset exists on any resolution path.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("module %q not found", e.Name)
	}
	return fmt.Sprintf("module %q not found (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

// UnsupportedTypeError is returned when no compiler is registered for an extension.
type UnsupportedTypeError struct {
	Name string
	Ext  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("file %q not supported: no compiler for %q", e.Name, e.Ext)
}

// DownloadError is returned when a remote fetch fails.
type DownloadError struct {
	URL   string
	Cause error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %q failed: %v", e.URL, e.Cause)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// CompileError wraps a compiler failure with the name of the asset.
type CompileError struct {
	Name  string
	Cause error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Name, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// MarkupAssemblyError is returned when a markup document lacks the anchor
// generated tags are inserted at.
type MarkupAssemblyError struct {
	Path   string
	Anchor string
	Cause  error
}

func (e *MarkupAssemblyError) Error() string {
	return fmt.Sprintf("%s: cannot insert tags: %s not found", e.Path, e.Anchor)
}

func (e *MarkupAssemblyError) Unwrap() error {
	return e.Cause
}
