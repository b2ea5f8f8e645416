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
package graph_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"bennypowers.dev/appbuild/cmd/graph"
	"bennypowers.dev/appbuild/internal/manifest"
)

func sample() *manifest.Manifest {
	m := manifest.New("developer")
	m.Roots = []string{"index.html", "about.html"}
	m.Put(manifest.Entry{Name: "index.html", Output: "index.html", Deps: []string{"index.js"}})
	m.Put(manifest.Entry{Name: "about.html", Output: "about.html", Deps: []string{"about.js"}})
	m.Put(manifest.Entry{Name: "index.js", Output: "index.js", Deps: []string{"greet.js", "vendor/vue.js", "vendor/1a2b3c4d.js"}})
	m.Put(manifest.Entry{Name: "about.js", Output: "about.js", Deps: []string{"greet.js"}})
	m.Put(manifest.Entry{Name: "greet.js", Output: "greet.js"})
	m.Put(manifest.Entry{Name: "vue", Output: "vendor/vue.js", Vendor: true})
	m.Put(manifest.Entry{Name: "https://example.test/x.js", Output: "vendor/1a2b3c4d.js", Vendor: true, URL: "https://example.test/x.js"})
	return m
}

func TestTree(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var b strings.Builder
	graph.Tree(&b, sample())
	want := `developer build
index.html
└── index.js -> index.js
    ├── greet.js -> greet.js
    ├── vue -> vendor/vue.js
    └── https://example.test/x.js -> vendor/1a2b3c4d.js
about.html
└── about.js -> about.js
    └── greet.js
`
	if got := b.String(); got != want {
		t.Errorf("Tree() =\n%s\nwant\n%s", got, want)
	}
}

func TestImportMap(t *testing.T) {
	im := graph.ImportMap(sample())
	tests := map[string]string{
		"greet.js":                  "/greet.js",
		"vue":                       "/vendor/vue.js",
		"https://example.test/x.js": "/vendor/1a2b3c4d.js",
	}
	for name, want := range tests {
		if got := im.Imports[name]; got != want {
			t.Errorf("Imports[%q] = %q, want %q", name, got, want)
		}
	}
	if len(im.Imports) != 7 {
		t.Errorf("Expected 7 imports, got %v", im.Imports)
	}
}
