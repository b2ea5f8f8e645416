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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"bennypowers.dev/appbuild/build"
)

// Component compiles single-file component documents: a template block,
// a script block and any number of style blocks. The script is compiled
// like any other script, with the template attached to its exports as a
// string; styles are compiled by the compiler of their lang and emitted as
// one style artifact.
type Component struct{}

func (Component) Produces() build.Kind {
	return build.KindScript | build.KindStyle
}

func (Component) Compile(ctx context.Context, req *build.Request) (*build.Result, error) {
	blocks, err := splitBlocks(req.Source)
	if err != nil {
		return nil, err
	}

	res := &build.Result{}
	var script, template []byte
	var styles [][]byte
	for _, b := range blocks {
		switch b.tag {
		case "template":
			if template == nil {
				template = bytes.TrimSpace(b.content)
			}
		case "script":
			if lang := b.attrs["lang"]; lang != "" && lang != "js" && lang != "javascript" {
				return nil, &build.UnsupportedTypeError{Name: req.Node.Name, Ext: lang}
			}
			script = b.content
		case "style":
			style, warnings, err := compileStyle(ctx, req, b)
			if err != nil {
				return nil, err
			}
			res.Warnings = append(res.Warnings, warnings...)
			styles = append(styles, style)
		}
	}

	if template != nil {
		quoted, err := jsString(template)
		if err != nil {
			return nil, err
		}
		if script == nil {
			script = []byte("module.exports={template:" + quoted + "}")
		} else {
			script = append(append(script, "\n;module.exports.template="...), quoted+";\n"...)
		}
	}
	if script == nil {
		res.Script = []byte{}
	} else {
		out, err := req.Session.Compile(ctx, "js", &build.Request{Source: script, Node: req.Node, Session: req.Session})
		if err != nil {
			return nil, err
		}
		res.Script = out.Script
		res.Warnings = append(res.Warnings, out.Warnings...)
	}
	if len(styles) > 0 {
		res.Style = bytes.Join(styles, []byte("\n"))
	}
	return res, nil
}

func compileStyle(ctx context.Context, req *build.Request, b block) ([]byte, []string, error) {
	lang := b.attrs["lang"]
	if lang == "" {
		lang = strings.TrimPrefix(b.attrs["type"], "text/")
	}
	if lang == "" {
		lang = "css"
	}
	var warnings []string
	if _, ok := b.attrs["scoped"]; ok {
		warnings = append(warnings, "scoped style emitted unscoped")
	}
	c, ok := req.Session.Compiler(lang)
	if !ok || !c.Produces().Has(build.KindStyle) {
		return nil, nil, &build.UnsupportedTypeError{Name: req.Node.Name, Ext: lang}
	}
	out, err := req.Session.Compile(ctx, lang, &build.Request{Source: b.content, Node: req.Node, Session: req.Session})
	if err != nil {
		return nil, nil, err
	}
	return out.Style, append(warnings, out.Warnings...), nil
}

func jsString(b []byte) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(b)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

type block struct {
	tag     string
	attrs   map[string]string
	content []byte
}

// splitBlocks returns the top-level template, script and style blocks of a
// component document with their raw inner content.
func splitBlocks(source []byte) ([]block, error) {
	z := html.NewTokenizer(bytes.NewReader(source))
	var (
		blocks []block
		cur    *block
		start  int
		nested int
		offset int
	)
	for {
		tt := z.Next()
		size := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return nil, z.Err()
			}
			if cur != nil {
				return nil, fmt.Errorf("unclosed <%s> block", cur.tag)
			}
			return blocks, nil
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case cur == nil && (tag == "template" || tag == "script" || tag == "style"):
				cur = &block{tag: tag, attrs: make(map[string]string)}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					cur.attrs[string(key)] = string(val)
				}
				start = offset + size
				nested = 0
			case cur != nil && tag == cur.tag:
				nested++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if cur != nil && string(name) == cur.tag {
				if nested > 0 {
					nested--
					break
				}
				cur.content = source[start:offset]
				blocks = append(blocks, *cur)
				cur = nil
			}
		}
		offset += size
	}
}
