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
package build_test

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"bennypowers.dev/appbuild/build"
	"bennypowers.dev/appbuild/cdn"
	"bennypowers.dev/appbuild/compile"
	"bennypowers.dev/appbuild/internal/mapfs"
	"bennypowers.dev/appbuild/strategy"
	"bennypowers.dev/appbuild/testutil"
)

const (
	root    = "/proj"
	t1URL   = "http://example.test/temp/t1.js"
	t2URL   = "http://example.test/temp/t2.json"
	headDoc = "<!DOCTYPE html>\n<html>\n<head>\n<title>test</title>\n</head>\n<body></body>\n</html>\n"
)

// project writes files relative to the input root of an in-memory project.
func project(files map[string]string) *mapfs.MapFileSystem {
	mfs := mapfs.New()
	for name, content := range files {
		mfs.AddFile(path.Join(root, "app", name), content, 0644)
	}
	return mfs
}

func scenario() map[string]string {
	return map[string]string{
		"index.html": headDoc,
		"index.js": "import t3 from './t3'\n" +
			"import t1 from '" + t1URL + "'\n" +
			"import t2 from '" + t2URL + "'\n" +
			"t3(t1, t2)\n",
		"t3.js": "export default function t3(a, b) { return [a, b] }\n",
	}
}

func scenarioFetcher() *testutil.MockFetcher {
	f := testutil.NewMockFetcher()
	f.AddResponse(t1URL, "module.exports = function t1() {}\n")
	f.AddResponse(t2URL, `{"answer": 42}`)
	return f
}

func newSession(t *testing.T, mfs *mapfs.MapFileSystem, fetcher cdn.Fetcher, configure ...func(*build.Options)) (*build.Session, *testutil.Logger) {
	t.Helper()
	opts := build.DefaultOptions()
	opts.Root = root
	opts.Mode = build.ModeDeveloper
	opts.Minify = false
	opts.Rebuild = false
	for _, fn := range configure {
		fn(&opts)
	}
	var strat build.Strategy = strategy.NewDeveloper()
	if opts.Mode == build.ModeProduction {
		strat = strategy.NewProduction()
	}
	logger := &testutil.Logger{}
	cfg := build.Config{
		Options:  opts,
		FS:       mfs,
		Logger:   logger,
		Strategy: strat,
		Registry: compile.Default(),
	}
	if fetcher != nil {
		cfg.Fetcher = fetcher
	}
	s, err := build.New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, logger
}

func mustBuild(t *testing.T, s *build.Session) *build.Report {
	t.Helper()
	report, err := s.Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for entry, err := range report.Failures {
		t.Errorf("entry %s failed: %v", entry, err)
	}
	return report
}

func outputNames(nodes []*build.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.OutputPath
	}
	return names
}

func TestBuildScenario(t *testing.T) {
	mfs := project(scenario())
	fetcher := scenarioFetcher()
	s, _ := newSession(t, mfs, fetcher)
	mustBuild(t, s)

	entry, ok := s.Node("index.js")
	if !ok {
		t.Fatal("Expected index.js to be resolved")
	}
	ordered := s.Ordered(entry)
	if len(ordered) != 4 {
		t.Fatalf("Expected 4 ordered nodes, got %v", outputNames(ordered))
	}
	if ordered[0].OutputPath != "t3.js" || ordered[3] != entry {
		t.Errorf("Expected t3.js first and index.js last, got %v", outputNames(ordered))
	}
	for _, n := range ordered[1:3] {
		if n.URL == "" || !strings.HasPrefix(n.OutputPath, "vendor/") {
			t.Errorf("Expected a download in vendor/, got %+v", n)
		}
	}

	markup, err := mfs.ReadFile(path.Join(root, "build", "index.html"))
	if err != nil {
		t.Fatalf("Expected index.html artifact: %v", err)
	}
	last := -1
	for _, n := range ordered {
		i := strings.Index(string(markup), `src="/`+n.OutputPath+`"`)
		if i < 0 {
			t.Errorf("Expected a tag for %s in:\n%s", n.OutputPath, markup)
			continue
		}
		if i < last {
			t.Errorf("Expected %s after its dependencies", n.OutputPath)
		}
		last = i
	}

	script, err := mfs.ReadFile(path.Join(root, "build", "index.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(script), "$req('index.js',function(module,exports,require){") {
		t.Errorf("Expected declaration wrapper, got:\n%s", script)
	}
	if strings.Contains(string(script), "import ") {
		t.Errorf("Expected imports to be rewritten, got:\n%s", script)
	}

	data, err := mfs.ReadFile(path.Join(root, "build", ordered[2].OutputPath))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `module.exports={"answer": 42}`) {
		t.Errorf("Expected downloaded JSON as a module, got:\n%s", data)
	}
}

func TestBuildSecondSessionCompilesNothing(t *testing.T) {
	mfs := project(scenario())
	fetcher := scenarioFetcher()

	first, _ := newSession(t, mfs, fetcher)
	if report := mustBuild(t, first); report.Compiled == 0 {
		t.Fatal("Expected the first build to compile")
	}

	second, _ := newSession(t, mfs, fetcher)
	report := mustBuild(t, second)
	if report.Compiled != 0 {
		t.Errorf("Expected zero compilations, got %d", report.Compiled)
	}
	entry, ok := second.Node("index.js")
	if !ok {
		t.Fatal("Expected index.js to be resolved from the previous build state")
	}
	if got := len(second.Ordered(entry)); got != 4 {
		t.Errorf("Expected the restored graph to hold 4 ordered nodes, got %d", got)
	}
	if got := fetcher.TotalCalls(); got != 2 {
		t.Errorf("Expected 2 fetches over both sessions, got %d", got)
	}
}

func TestBuildRebuildFlagCompilesEverything(t *testing.T) {
	mfs := project(scenario())
	fetcher := scenarioFetcher()
	first, _ := newSession(t, mfs, fetcher)
	mustBuild(t, first)

	second, _ := newSession(t, mfs, fetcher, func(o *build.Options) { o.Rebuild = true })
	report := mustBuild(t, second)
	// index.html, index.js, t3.js; downloads on disk are kept.
	if report.Compiled != 3 {
		t.Errorf("Expected 3 compilations, got %d", report.Compiled)
	}
}

func TestEntries(t *testing.T) {
	files := map[string]string{
		"index.html":          headDoc,
		"about/team.html":     headDoc,
		"docs/guide.htm":      headDoc,
		"assets/demo.html":    headDoc,
		"vendor/foo/doc.html": headDoc,
		"vendorish.html":      headDoc,
		"index.js":            "x()\n",
	}
	tests := []struct {
		name  string
		types []string
		want  []string
	}{
		{"default", nil, []string{"about/team.html", "index.html", "vendorish.html"}},
		{"several", []string{"html", "htm"}, []string{"about/team.html", "docs/guide.htm", "index.html", "vendorish.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t, project(files), nil, func(o *build.Options) {
				if tt.types != nil {
					o.EntryTypes = tt.types
				}
			})
			got, err := s.Entries()
			if err != nil {
				t.Fatalf("Entries failed: %v", err)
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("Entries = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("missing input", func(t *testing.T) {
		s, _ := newSession(t, mapfs.New(), nil)
		if _, err := s.Entries(); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Entries error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestConcurrentEntriesShareCycle(t *testing.T) {
	files := map[string]string{
		"a.html": headDoc,
		"a.js":   "import x from './x'\nx()\n",
		"b.html": headDoc,
		"b.js":   "import y from './y'\ny()\n",
		"x.js":   "import y from './y'\nexport default function x() { return y }\n",
		"y.js":   "import x from './x'\nexport default function y() { return x }\n",
	}
	for i := range 20 {
		mfs := project(files)
		s, _ := newSession(t, mfs, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		report, err := s.Build(ctx)
		cancel()
		if err != nil {
			t.Fatalf("run %d: Build failed: %v", i, err)
		}
		if len(report.Failures) > 0 {
			t.Fatalf("run %d: failures %v", i, report.Failures)
		}
		// a.html, a.js, b.html, b.js, x.js, y.js
		if report.Compiled != 6 {
			t.Fatalf("run %d: expected 6 compilations, got %d", i, report.Compiled)
		}
		x, _ := s.Node("x.js")
		y, _ := s.Node("y.js")
		if deps := s.Dependencies(x); len(deps) != 1 || deps[0] != y {
			t.Errorf("run %d: expected x.js -> y.js, got %v", i, outputNames(deps))
		}
		if deps := s.Dependencies(y); len(deps) != 1 || deps[0] != x {
			t.Errorf("run %d: expected y.js -> x.js, got %v", i, outputNames(deps))
		}
	}
}

func TestResolveMemoized(t *testing.T) {
	files := scenario()
	files["other.html"] = headDoc
	files["other.js"] = "import t1 from '" + t1URL + "'\nt1()\n"
	mfs := project(files)
	fetcher := scenarioFetcher()
	s, _ := newSession(t, mfs, fetcher, func(o *build.Options) { o.Concurrency = 1 })
	mustBuild(t, s)

	if got := fetcher.Calls(t1URL); got != 1 {
		t.Errorf("Expected one fetch of %s, got %d", t1URL, got)
	}
	// index.html->index.js, index.js->{t3,t1,t2}, other.html->other.js, other.js->t1
	if got := s.EdgeCount(); got != 6 {
		t.Errorf("Expected 6 edges, got %d", got)
	}

	index, _ := s.Node("index.js")
	other, _ := s.Node("other.js")
	ctx := context.Background()
	a, err := s.Resolve(ctx, t1URL, index)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Resolve(ctx, t1URL, other)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Expected the same node for the same URL")
	}
	if got := s.EdgeCount(); got != 6 {
		t.Errorf("Expected repeated requests to add no edges, got %d", got)
	}

	t3, _ := s.Node("t3.js")
	if _, err := s.Resolve(ctx, "./t3", other); err != nil {
		t.Fatal(err)
	}
	if got := s.EdgeCount(); got != 7 {
		t.Errorf("Expected one new edge, got %d", got)
	}
	if deps := s.Dependencies(other); deps[len(deps)-1] != t3 {
		t.Errorf("Expected other.js to depend on t3.js last, got %v", outputNames(deps))
	}
}

func TestResolveURLOutputNames(t *testing.T) {
	const (
		logoA = "http://a.test/x/logo.png"
		logoB = "http://b.test/logo.png"
		font  = "http://a.test/fonts/Inter"
	)
	files := map[string]string{
		"index.html": headDoc,
		"index.js": "import a from '" + logoA + "'\n" +
			"import b from '" + logoB + "'\n" +
			"import f from '" + font + "'\n",
	}
	fetcher := testutil.NewMockFetcher()
	fetcher.AddResponse(logoA, "png a")
	fetcher.AddResponse(logoB, "png b")
	fetcher.AddResponse(font, "font")
	mfs := project(files)
	s, _ := newSession(t, mfs, fetcher)
	mustBuild(t, s)

	entry, _ := s.Node("index.js")
	outputs := make(map[string]bool)
	for _, url := range []string{logoA, logoB, font} {
		n, err := s.Resolve(context.Background(), url, entry)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", url, err)
		}
		if n.Vendor {
			t.Errorf("Expected %s not to be a vendor module", url)
		}
		if !strings.HasPrefix(n.OutputPath, "vendor/") || strings.Contains(n.OutputPath, "logo") {
			t.Errorf("Expected a hashed output name for %s, got %q", url, n.OutputPath)
		}
		if outputs[n.OutputPath] {
			t.Errorf("Expected distinct outputs, %q repeats", n.OutputPath)
		}
		outputs[n.OutputPath] = true
	}
	a, _ := s.Resolve(context.Background(), logoA, entry)
	if path.Ext(a.OutputPath) != ".png" {
		t.Errorf("Expected the .png extension kept, got %q", a.OutputPath)
	}
	f, _ := s.Resolve(context.Background(), font, entry)
	if path.Ext(f.OutputPath) != "" {
		t.Errorf("Expected no extension for %s, got %q", font, f.OutputPath)
	}

	second, _ := newSession(t, mfs, fetcher)
	mustBuild(t, second)
	entry2, _ := second.Node("index.js")
	again, err := second.Resolve(context.Background(), logoA, entry2)
	if err != nil {
		t.Fatal(err)
	}
	if again.OutputPath != a.OutputPath {
		t.Errorf("Expected a stable output name across sessions, got %q then %q", a.OutputPath, again.OutputPath)
	}
}

func TestResolveLookupSuffixes(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{
			name:  "script first",
			files: []string{"widget.js", "widget.vue", "widget/index.js"},
			want:  "widget.js",
		},
		{
			name:  "component before index",
			files: []string{"widget.vue", "widget/index.js"},
			want:  "widget.vue",
		},
		{
			name:  "directory index",
			files: []string{"widget/index.js"},
			want:  "widget/index.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			for _, f := range tt.files {
				switch path.Ext(f) {
				case ".vue":
					files[f] = "<template><p>w</p></template>\n"
				default:
					files[f] = "export default 1\n"
				}
			}
			s, _ := newSession(t, project(files), nil)

			n, err := s.Resolve(context.Background(), "./widget", nil)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if n.InputPath != tt.want {
				t.Errorf("Resolve(./widget) = %s, want %s", n.InputPath, tt.want)
			}
		})
	}
}

func TestResolveVendor(t *testing.T) {
	files := map[string]string{
		"index.html":     headDoc,
		"index.js":       "import Vue from 'vue'\nnew Vue()\n",
		"vendor/vue.js":  "window.Vue = function () {}\n",
		"vendor/vue.css": ".v { color: red }\n",
	}
	mfs := project(files)
	s, _ := newSession(t, mfs, nil)
	mustBuild(t, s)

	vue, ok := s.Node("vue")
	if !ok {
		t.Fatal("Expected vue to resolve")
	}
	if !vue.Vendor || vue.OutputPath != "vendor/vue.js" {
		t.Errorf("Expected vendor artifact vendor/vue.js, got %+v", vue)
	}
	deps := s.Dependencies(vue)
	if len(deps) != 1 || deps[0].Kind != build.KindStyle {
		t.Fatalf("Expected the sibling style sheet as a dependency, got %v", outputNames(deps))
	}

	markup, err := mfs.ReadFile(path.Join(root, "build", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(markup), `href="/`+deps[0].OutputPath+`"`) {
		t.Errorf("Expected vendor style sheet link, got:\n%s", markup)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		check func(error) bool
	}{
		{
			name: "missing module",
			files: map[string]string{
				"index.html": headDoc,
				"index.js":   "import x from './missing'\n",
			},
			check: func(err error) bool {
				var target *build.NotFoundError
				return errors.As(err, &target) && len(target.Tried) == 4
			},
		},
		{
			name: "unsupported type",
			files: map[string]string{
				"index.html": headDoc,
				"index.js":   "import x from './data.xyz'\n",
				"data.xyz":   "?",
			},
			check: func(err error) bool {
				var target *build.UnsupportedTypeError
				return errors.As(err, &target) && target.Ext == "xyz"
			},
		},
		{
			name: "failed download",
			files: map[string]string{
				"index.html": headDoc,
				"index.js":   "import x from 'http://example.test/gone.js'\n",
			},
			check: func(err error) bool {
				var target *build.DownloadError
				return errors.As(err, &target) && cdn.IsNotFound(err)
			},
		},
		{
			name: "compile failure",
			files: map[string]string{
				"index.html": headDoc,
				"index.js":   "import data from './data.json'\n",
				"data.json":  "{not json",
			},
			check: func(err error) bool {
				var target *build.CompileError
				return errors.As(err, &target) && target.Name == "data.json"
			},
		},
		{
			name: "markup without head",
			files: map[string]string{
				"index.html": "<html><body></body></html>",
				"index.js":   "export default 1\n",
			},
			check: func(err error) bool {
				var target *build.MarkupAssemblyError
				return errors.As(err, &target) && target.Path == "index.html"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, logger := newSession(t, project(tt.files), testutil.NewMockFetcher())
			report, err := s.Build(context.Background())
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			err = report.Failures["index.html"]
			if err == nil {
				t.Fatal("Expected index.html to fail")
			}
			if !tt.check(err) {
				t.Errorf("Unexpected error %T: %v", err, err)
			}
			if logger.Count("error: index.html") != 1 {
				t.Errorf("Expected the failure to be logged once, got %v", logger.Lines())
			}
		})
	}
}

func TestBuildSiblingSurvivesFailure(t *testing.T) {
	files := map[string]string{
		"bad.html":  headDoc,
		"bad.js":    "import x from './missing'\n",
		"good.html": headDoc,
		"good.js":   "export default 1\n",
	}
	mfs := project(files)
	s, _ := newSession(t, mfs, nil)
	report, err := s.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failures) != 1 || report.Failures["bad.html"] == nil {
		t.Errorf("Expected only bad.html to fail, got %v", report.Failures)
	}
	if !mfs.Exists(path.Join(root, "build", "good.html")) {
		t.Error("Expected good.html to be built")
	}
}

func TestHandleChangeRebuildsDependents(t *testing.T) {
	files := map[string]string{
		"a.html": headDoc,
		"a.js":   "import b from './b'\nb()\n",
		"b.js":   "export default function b() {}\n",
		"c.html": headDoc,
		"c.js":   "export default 1\n",
	}
	mfs := project(files)
	s, _ := newSession(t, mfs, nil)
	mustBuild(t, s)

	built := mfs.Now()
	mfs.Advance(2 * time.Second)
	mfs.AddFile(path.Join(root, "app", "b.js"), "export default function b() { return 2 }\n", 0644)

	var mu sync.Mutex
	var changed []string
	unsubscribe := s.Subscribe(func(e build.Event) {
		if e.Kind == build.EventChanged {
			mu.Lock()
			changed = append(changed, e.Node.OutputPath)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	before := s.Compiled()
	if err := s.HandleChange(context.Background(), "b.js"); err != nil {
		t.Fatalf("HandleChange failed: %v", err)
	}
	if got := s.Compiled() - before; got != 3 {
		t.Errorf("Expected b.js, a.js and a.html to recompile, got %d compilations", got)
	}
	want := []string{"b.js", "a.js", "a.html"}
	mu.Lock()
	if strings.Join(changed, ",") != strings.Join(want, ",") {
		t.Errorf("Expected changes %v, got %v", want, changed)
	}
	mu.Unlock()

	info, err := mfs.Stat(path.Join(root, "build", "c.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(built) {
		t.Errorf("Expected c.js to be left untouched, modified at %v", info.ModTime())
	}
	if s.State() != build.StateReady {
		t.Errorf("Expected ready state, got %s", s.State())
	}
}

func TestIncrementalAcrossSessions(t *testing.T) {
	files := map[string]string{
		"a.html": headDoc,
		"a.js":   "import b from './b'\nb()\n",
		"b.js":   "export default function b() {}\n",
		"c.html": headDoc,
		"c.js":   "export default 1\n",
	}
	mfs := project(files)
	first, _ := newSession(t, mfs, nil)
	mustBuild(t, first)

	mfs.Advance(2 * time.Second)
	mfs.AddFile(path.Join(root, "app", "b.js"), "export default function b() { return 2 }\n", 0644)

	second, _ := newSession(t, mfs, nil)
	report := mustBuild(t, second)
	if report.Compiled != 3 {
		t.Errorf("Expected 3 compilations, got %d", report.Compiled)
	}
	info, err := mfs.Stat(path.Join(root, "build", "c.html"))
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().After(mfs.Now().Add(-time.Second)) {
		t.Error("Expected c.html to be left untouched")
	}
}

func TestHandleChangeNotUsed(t *testing.T) {
	s, logger := newSession(t, project(scenario()), scenarioFetcher())
	mustBuild(t, s)

	for range 3 {
		if err := s.HandleChange(context.Background(), "notes.txt"); err != nil {
			t.Fatal(err)
		}
	}
	if got := logger.Count("notes.txt is not used"); got != 1 {
		t.Errorf("Expected one not-used message, got %d", got)
	}
}

func TestEvents(t *testing.T) {
	s, _ := newSession(t, project(scenario()), scenarioFetcher())
	if s.State() != build.StateScanning {
		t.Errorf("Expected scanning state before Build, got %s", s.State())
	}

	var mu sync.Mutex
	counts := map[build.EventKind]int{}
	var lastKind build.EventKind
	s.Subscribe(func(e build.Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[e.Kind]++
		lastKind = e.Kind
	})
	report := mustBuild(t, s)

	mu.Lock()
	defer mu.Unlock()
	if counts[build.EventBuild] != report.Compiled {
		t.Errorf("Expected one build event per compilation, got %d for %d", counts[build.EventBuild], report.Compiled)
	}
	if counts[build.EventChanged] != 0 {
		t.Errorf("Expected no changed events during the initial scan, got %d", counts[build.EventChanged])
	}
	if counts[build.EventReady] != 1 || lastKind != build.EventReady {
		t.Errorf("Expected a single trailing ready event, got %v", counts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.WaitReady(ctx); err != nil {
		t.Errorf("WaitReady failed: %v", err)
	}
}

func TestWaitReadyBlocksWhileScanning(t *testing.T) {
	s, _ := newSession(t, project(scenario()), scenarioFetcher())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.WaitReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected WaitReady to block before Build, got %v", err)
	}
}

func TestCloseStopsBuilding(t *testing.T) {
	mfs := project(scenario())
	s, _ := newSession(t, mfs, scenarioFetcher())
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Expected a second Close to be a no-op, got %v", err)
	}
	report := mustBuild(t, s)
	if report.Compiled != 0 {
		t.Errorf("Expected a closed session to compile nothing, got %d", report.Compiled)
	}
}

func TestNewRejectsMismatchedStrategy(t *testing.T) {
	opts := build.DefaultOptions()
	opts.Mode = build.ModeDeveloper
	_, err := build.New(build.Config{
		Options:  opts,
		FS:       mapfs.New(),
		Strategy: strategy.NewProduction(),
	})
	if err == nil {
		t.Error("Expected an error for a production strategy in developer mode")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		want    build.Mode
		wantErr bool
	}{
		{"developer", build.ModeDeveloper, false},
		{"production", build.ModeProduction, false},
		{"debug", "", true},
	}
	for _, tt := range tests {
		got, err := build.ParseMode(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.name, got, err)
		}
	}
}

func TestResolveVendorFromCDN(t *testing.T) {
	tests := []struct {
		name     string
		template string
		url      string
	}{
		{
			name: "provider",
			url:  "https://cdn.jsdelivr.net/npm/vue@2.7.16/dist/vue.min.js",
		},
		{
			name:     "custom template",
			template: "https://cdn.example.test/{name}/{version}/{path}",
			url:      "https://cdn.example.test/vue/2.7.16/vue.min.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := project(map[string]string{
				"index.html": headDoc,
				"index.js":   "import Vue from 'vue'\nnew Vue()\n",
			})
			mfs.AddFile(path.Join(root, "package.json"), `{"dependencies": {"vue": "2.7.16"}}`, 0644)
			fetcher := testutil.NewMockFetcher()
			fetcher.AddResponse(tt.url, "window.Vue = function () {}\n")

			s, _ := newSession(t, mfs, fetcher, func(o *build.Options) { o.CDNTemplate = tt.template })
			mustBuild(t, s)

			if got := fetcher.Calls(tt.url); got != 1 {
				t.Errorf("Expected one fetch of %s, got %d", tt.url, got)
			}
			vue, ok := s.Node("vue")
			if !ok {
				t.Fatal("Expected vue to resolve")
			}
			if !vue.Vendor || vue.OutputPath != "vendor/vue.min.js" {
				t.Errorf("Expected vendor artifact vendor/vue.min.js, got %+v", vue)
			}
			data, err := mfs.ReadFile(path.Join(root, "build", "vendor", "vue.min.js"))
			if err != nil || !strings.Contains(string(data), "window.Vue") {
				t.Errorf("Expected the downloaded bundle in the output, got %q, %v", data, err)
			}
		})
	}
}

func TestNewRejectsInvalidCDNTemplate(t *testing.T) {
	opts := build.DefaultOptions()
	opts.Root = root
	opts.CDNTemplate = "https://cdn.example.test/{pkg}/{path}"
	_, err := build.New(build.Config{
		Options:  opts,
		FS:       mapfs.New(),
		Fetcher:  testutil.NewMockFetcher(),
		Strategy: strategy.NewProduction(),
	})
	if err == nil || !strings.Contains(err.Error(), "{pkg}") {
		t.Errorf("Expected an unknown placeholder error, got %v", err)
	}
}
