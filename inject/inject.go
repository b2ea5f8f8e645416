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
// Package inject inserts generated tags into markup documents. Tags go
// directly after the last script element of the head, or just before the
// closing head tag when the head has no scripts.
package inject

import (
	"bytes"
	"errors"
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// ErrNoHead is returned when a document has no closing head tag.
var ErrNoHead = errors.New("html head not found")

// InsertPoint is where generated tags are inserted into a document.
type InsertPoint struct {
	// Offset is the byte offset of the insertion.
	Offset int
	// AfterScript is true when Offset directly follows a closing script tag.
	AfterScript bool
}

// FindInsertPoint locates the insertion anchor of a markup document.
func FindInsertPoint(content []byte) (InsertPoint, error) {
	z := xhtml.NewTokenizer(bytes.NewReader(content))
	offset := 0
	lastScript := -1

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return InsertPoint{}, ErrNoHead
			}
			return InsertPoint{}, z.Err()
		}
		raw := len(z.Raw())
		if tt == xhtml.EndTagToken {
			name, _ := z.TagName()
			switch string(name) {
			case "script":
				lastScript = offset + raw
			case "head":
				if lastScript >= 0 {
					return InsertPoint{Offset: lastScript, AfterScript: true}, nil
				}
				return InsertPoint{Offset: offset}, nil
			}
		}
		offset += raw
	}
}

// Insert places tags at the document's insertion point, one per line.
func Insert(content []byte, tags []string) ([]byte, error) {
	point, err := FindInsertPoint(content)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Grow(len(content) + 64*len(tags))
	b.Write(content[:point.Offset])
	b.WriteString("\n  ")
	for _, tag := range tags {
		b.WriteString(tag)
		b.WriteString("\n  ")
	}
	b.Write(content[point.Offset:])
	return b.Bytes(), nil
}

// Script returns an inline script element.
func Script(code string) string {
	return "<script>" + code + "</script>"
}

// ScriptSrc returns an external script element.
func ScriptSrc(src string) string {
	return `<script src="` + html.EscapeString(src) + `"></script>`
}

// Stylesheet returns a style sheet link element.
func Stylesheet(href string) string {
	return `<link rel="stylesheet" href="` + html.EscapeString(href) + `">`
}

// Tag returns the element that includes an artifact, chosen by its
// extension. Unknown extensions yield an empty string.
func Tag(path string) string {
	base, _, _ := strings.Cut(path, "?")
	switch {
	case strings.HasSuffix(base, ".css"):
		return Stylesheet(path)
	case strings.HasSuffix(base, ".js"):
		return ScriptSrc(path)
	default:
		return ""
	}
}
