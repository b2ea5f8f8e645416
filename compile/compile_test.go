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
package compile_test

import (
	"context"
	"errors"
	"path"
	"strings"
	"testing"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/compile"
	"bennypowers.dev/appbuild/internal/mapfs"
	"bennypowers.dev/appbuild/strategy"
	"bennypowers.dev/appbuild/testutil"
)

const (
	root    = "/proj"
	pageDoc = "<!DOCTYPE html>\n<html>\n<head></head>\n<body></body>\n</html>\n"
)

// buildApp runs a developer build of an app importing App.vue.
func buildApp(t *testing.T, component string) (*mapfs.MapFileSystem, *build.Report, *testutil.Logger) {
	t.Helper()
	mfs := mapfs.New()
	files := map[string]string{
		"index.html": pageDoc,
		"index.js":   "import App from './App.vue'\nApp.template\n",
		"App.vue":    component,
	}
	for name, content := range files {
		mfs.AddFile(path.Join(root, "app", name), content, 0644)
	}

	opts := build.DefaultOptions()
	opts.Root = root
	opts.Mode = build.ModeDeveloper
	opts.Minify = false
	logger := &testutil.Logger{}
	s, err := build.New(build.Config{
		Options:  opts,
		FS:       mfs,
		Logger:   logger,
		Strategy: strategy.NewDeveloper(),
		Registry: compile.Default(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	report, err := s.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return mfs, report, logger
}

func readOutput(t *testing.T, mfs *mapfs.MapFileSystem, name string) string {
	t.Helper()
	data, err := mfs.ReadFile(path.Join(root, "build", name))
	if err != nil {
		t.Fatalf("Expected %s artifact: %v", name, err)
	}
	return string(data)
}

func TestComponent(t *testing.T) {
	mfs, report, _ := buildApp(t, `<template>
  <p class="a">{{ msg }}</p>
</template>
<script>
export default { data() { return { msg: "hi" } } }
</script>
<style>
.a { color: red }
</style>
`)
	if len(report.Failures) > 0 {
		t.Fatalf("Unexpected failures: %v", report.Failures)
	}

	script := readOutput(t, mfs, "app.js")
	if !strings.HasPrefix(script, "$req('App.vue',function(module,exports,require){") {
		t.Errorf("Expected a module declaration, got:\n%s", script)
	}
	if !strings.Contains(script, "module.exports={ data()") {
		t.Errorf("Expected the default export to be rewritten, got:\n%s", script)
	}
	if !strings.Contains(script, `module.exports.template="<p class=\"a\">{{ msg }}</p>";`) {
		t.Errorf("Expected the template on the exports, got:\n%s", script)
	}

	style := readOutput(t, mfs, "app.css")
	if !strings.Contains(style, ".a { color: red }") {
		t.Errorf("Expected the style block in app.css, got:\n%s", style)
	}

	markup := readOutput(t, mfs, "index.html")
	if !strings.Contains(markup, `href="/app.css"`) {
		t.Errorf("Expected the component style to be linked, got:\n%s", markup)
	}
}

func TestComponentTemplateOnly(t *testing.T) {
	mfs, report, _ := buildApp(t, "<template><b>x</b></template>\n")
	if len(report.Failures) > 0 {
		t.Fatalf("Unexpected failures: %v", report.Failures)
	}
	script := readOutput(t, mfs, "app.js")
	if !strings.Contains(script, `module.exports={template:"<b>x</b>"}`) {
		t.Errorf("Expected a template-only module, got:\n%s", script)
	}
	if _, err := mfs.Stat(path.Join(root, "build", "app.css")); err == nil {
		t.Error("Expected no style artifact without style blocks")
	}
}

func TestComponentScopedStyleWarns(t *testing.T) {
	_, report, logger := buildApp(t, "<script>export default {}</script>\n<style scoped>.b{}</style>\n")
	if len(report.Failures) > 0 {
		t.Fatalf("Unexpected failures: %v", report.Failures)
	}
	if got := logger.Count("scoped style emitted unscoped"); got != 1 {
		t.Errorf("Expected one scoped style warning, got %d in %v", got, logger.Lines())
	}
}

func TestComponentUnsupportedLang(t *testing.T) {
	tests := []struct {
		name      string
		component string
		ext       string
	}{
		{
			name:      "script lang",
			component: `<script lang="ts">export default {}</script>`,
			ext:       "ts",
		},
		{
			name:      "style lang",
			component: `<style lang="scss">.a{}</style>`,
			ext:       "scss",
		},
		{
			name:      "style type",
			component: `<style type="text/less">.a{}</style>`,
			ext:       "less",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, report, _ := buildApp(t, tt.component)
			err, ok := report.Failures["index.html"]
			if !ok {
				t.Fatalf("Expected index.html to fail, got %v", report.Failures)
			}
			var unsupported *build.UnsupportedTypeError
			if !errors.As(err, &unsupported) {
				t.Fatalf("Expected UnsupportedTypeError, got %v", err)
			}
			if unsupported.Ext != tt.ext {
				t.Errorf("Ext = %q, want %q", unsupported.Ext, tt.ext)
			}
		})
	}
}

func TestComponentUnclosedBlock(t *testing.T) {
	_, report, _ := buildApp(t, "<script>export default {}\n")
	err, ok := report.Failures["index.html"]
	if !ok {
		t.Fatalf("Expected index.html to fail, got %v", report.Failures)
	}
	var cerr *build.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected CompileError, got %v", err)
	}
	if !strings.Contains(err.Error(), "unclosed <script> block") {
		t.Errorf("Expected an unclosed block error, got %v", err)
	}
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    string
		wantErr bool
	}{
		{name: "object", source: `{"a": [1, 2]}`, want: `module.exports={"a": [1, 2]}`},
		{name: "surrounding space", source: "\n  42\n", want: "module.exports=42"},
		{name: "invalid", source: `{"a":`, wantErr: true},
		{name: "empty", source: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := compile.JSON{}.Compile(context.Background(), &build.Request{Source: []byte(tt.source)})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := string(res.Script); got != tt.want {
				t.Errorf("Compile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := compile.Default()
	tests := []struct {
		ext  string
		kind build.Kind
	}{
		{"js", build.KindScript},
		{"json", build.KindScript},
		{"css", build.KindStyle},
		{"html", build.KindMarkup},
		{"png", build.KindRaw},
		{"vue", build.KindScript | build.KindStyle},
	}
	for _, tt := range tests {
		c, ok := r[tt.ext]
		if !ok {
			t.Errorf("Expected a compiler for %s", tt.ext)
			continue
		}
		if got := c.Produces(); got != tt.kind {
			t.Errorf("%s produces %v, want %v", tt.ext, got, tt.kind)
		}
	}
	if _, ok := r["xyz"]; ok {
		t.Error("Expected no compiler for xyz")
	}
}
