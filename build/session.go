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
// Package build resolves, compiles and tracks the assets of a browser
// application. A Session memoizes one node per module, records which node
// requested which, and compiles a node only when its artifacts are older
// than its source or one of its dependencies changed.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/appbuild/cdn"
	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/manifest"
	"bennypowers.dev/appbuild/resolve"
)

// Config assembles the collaborators of a Session.
type Config struct {
	Options  Options
	FS       appfs.FileSystem
	Fetcher  cdn.Fetcher
	Logger   Logger
	Strategy Strategy
	// Registry maps source extensions to compilers. The strategy's
	// overrides are layered on top.
	Registry Registry
	// Locators find vendor packages in order. Nil means DefaultLocators.
	Locators []resolve.VendorLocator
}

// Report summarizes a Build.
type Report struct {
	// Entries are the scanned entry points, input-root-relative.
	Entries []string
	// Failures maps entry points to the error that stopped them.
	Failures map[string]error
	// Compiled counts the compilations run by the session so far.
	Compiled int
}

// Session is one build run, optionally kept alive to watch and serve.
type Session struct {
	opts     Options
	fs       appfs.FileSystem
	fetcher  cdn.Fetcher
	logger   Logger
	strategy Strategy
	registry Registry
	locators []resolve.VendorLocator
	previous *manifest.Manifest

	mu       sync.Mutex
	nodes    []*Node
	byName   map[string]*Node
	byOutput map[string]*Node
	byInput  map[string]*Node
	waiting  map[uint64]*Node
	roots    []string
	notUsed  map[string]bool
	unwatch  context.CancelFunc
	graph    *resolve.DependencyGraph[NodeID]

	scanning   bool
	building   int
	idle       chan struct{}
	idleClosed bool

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int

	chains   atomic.Uint64
	compiled atomic.Int64
	closed   atomic.Bool
}

// New creates a session and loads the manifest a previous session left in
// the output directory.
func New(cfg Config) (*Session, error) {
	if cfg.FS == nil {
		return nil, errors.New("build: no file system")
	}
	if cfg.Strategy == nil {
		return nil, errors.New("build: no strategy")
	}
	if cfg.Strategy.Mode() != cfg.Options.Mode {
		return nil, fmt.Errorf("build: %s strategy for %s mode", cfg.Strategy.Mode(), cfg.Options.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger{}
	}
	if cfg.Options.RequireName == "" {
		cfg.Options.RequireName = DefaultOptions().RequireName
	}
	var fetcher cdn.Fetcher
	if cfg.Fetcher != nil {
		fetcher = cdn.NewCachingFetcher(cfg.Fetcher, 64)
	}

	s := &Session{
		opts:      cfg.Options,
		fs:        cfg.FS,
		fetcher:   fetcher,
		logger:    cfg.Logger,
		strategy:  cfg.Strategy,
		registry:  cfg.Registry.With(cfg.Strategy.Compilers()),
		locators:  cfg.Locators,
		byName:    make(map[string]*Node),
		byOutput:  make(map[string]*Node),
		byInput:   make(map[string]*Node),
		waiting:   make(map[uint64]*Node),
		notUsed:   make(map[string]bool),
		graph:     resolve.NewDependencyGraph[NodeID](),
		scanning:  true,
		idle:      make(chan struct{}),
		observers: make(map[int]func(Event)),
	}
	if s.locators == nil {
		locators, err := DefaultLocators(s.fs, s.opts, s.fetcher, s.logger)
		if err != nil {
			return nil, err
		}
		s.locators = locators
	}

	prev, err := manifest.Load(s.fs, s.manifestPath())
	if err != nil {
		s.logger.Warning("ignoring previous build state: %v", err)
	} else if prev != nil {
		if err := prev.Compatible(string(s.opts.Mode)); err != nil {
			s.logger.Debug("ignoring previous build state: %v", err)
		} else {
			s.previous = prev
		}
	}
	return s, nil
}

// Options returns the session options.
func (s *Session) Options() Options { return s.opts }

// Logger returns the session logger.
func (s *Session) Logger() Logger { return s.logger }

// FS returns the session file system.
func (s *Session) FS() appfs.FileSystem { return s.fs }

// Previous returns the record a previous session kept for a node name.
func (s *Session) Previous(name string) (manifest.Entry, bool) {
	return s.previous.Lookup(name)
}

// PreviousEntries returns every record of the previous session.
func (s *Session) PreviousEntries() []manifest.Entry {
	if s.previous == nil {
		return nil
	}
	entries := make([]manifest.Entry, 0, len(s.previous.Entries))
	for _, name := range s.previous.Names() {
		entries = append(entries, s.previous.Entries[name])
	}
	return entries
}

// Build scans the input root for entry points and resolves each of them,
// compiling whatever is stale. Entry failures are logged and reported,
// not returned: one broken page does not stop the others.
func (s *Session) Build(ctx context.Context) (*Report, error) {
	if err := s.strategy.PreBuild(ctx, s); err != nil {
		s.finishScan()
		return nil, fmt.Errorf("prepare %s build: %w", s.opts.Mode, err)
	}

	entries, err := s.Entries()
	if err != nil {
		s.finishScan()
		return nil, err
	}
	s.mu.Lock()
	s.roots = entries
	s.mu.Unlock()

	report := &Report{Entries: entries, Failures: make(map[string]error)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.concurrency())
	for _, entry := range entries {
		g.Go(func() error {
			if s.closed.Load() || ctx.Err() != nil {
				return nil
			}
			if _, err := s.Resolve(ctx, entry, nil); err != nil {
				s.logger.Error("%s: %v", entry, err)
				mu.Lock()
				report.Failures[entry] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	s.finishScan()
	report.Compiled = s.Compiled()

	if err := s.SaveManifest(); err != nil {
		s.logger.Warning("saving build state: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := s.strategy.PostBuild(ctx, s); err != nil {
		return report, fmt.Errorf("finish %s build: %w", s.opts.Mode, err)
	}
	return report, nil
}

// Entries lists the entry point documents under the input root,
// skipping the assets and vendor directories.
func (s *Session) Entries() ([]string, error) {
	root := s.opts.InputDir()
	if !appfs.IsDir(s.fs, root) {
		return nil, fmt.Errorf("scan %s: %w", root, fs.ErrNotExist)
	}
	pattern := "**/*." + strings.Join(s.opts.EntryTypes, ",")
	if len(s.opts.EntryTypes) > 1 {
		pattern = "**/*.{" + strings.Join(s.opts.EntryTypes, ",") + "}"
	}
	var skip []string
	for _, dir := range []string{s.opts.Assets, s.opts.Vendor} {
		if dir != "" {
			skip = append(skip, dir+"/")
		}
	}

	var entries []string
	err := doublestar.GlobWalk(appfs.Sub(s.fs, root), pattern, func(rel string, d fs.DirEntry) error {
		for _, dir := range skip {
			if strings.HasPrefix(rel, dir) {
				return nil
			}
		}
		entries = append(entries, rel)
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.Sort(entries)
	return entries, nil
}

// Roots returns the entry points of the last Build.
func (s *Session) Roots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.roots)
}

// Compiled returns the number of compilations run so far.
func (s *Session) Compiled() int {
	return int(s.compiled.Load())
}

// Node returns the node memoized under a canonical name.
func (s *Session) Node(name string) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byName[name]
	for ok && n.alias != nil {
		n = n.alias
	}
	return n, ok && n.OutputPath != ""
}

// NodeByOutput returns the node that writes an output path.
func (s *Session) NodeByOutput(output string) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byOutput[output]
	return n, ok
}

// NodeByInput returns the node compiled from an input-root-relative path.
func (s *Session) NodeByInput(input string) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byInput[input]
	return n, ok
}

// Nodes returns every resolved node, secondary artifacts included, in
// creation order.
func (s *Session) Nodes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.alias == nil && !n.abandoned && n.OutputPath != "" {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Dependencies returns the direct dependencies of n in request order.
func (s *Session) Dependencies(n *Node) []*Node {
	return s.lookup(s.graph.Dependencies(n.ID))
}

// Ordered returns n and its transitive dependencies, each dependency before
// its dependents, the way markup must reference them.
func (s *Session) Ordered(n *Node) []*Node {
	return s.lookup(s.graph.Ordered(n.ID))
}

// EdgeCount returns the number of distinct dependency edges.
func (s *Session) EdgeCount() int {
	return s.graph.EdgeCount()
}

func (s *Session) lookup(ids []NodeID) []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// ReadOutput reads the primary artifact of n.
func (s *Session) ReadOutput(n *Node) ([]byte, error) {
	return s.fs.ReadFile(s.outputFile(n.OutputPath))
}

// InputExists reports whether an input-root-relative file exists.
func (s *Session) InputExists(rel string) bool {
	return appfs.IsFile(s.fs, filepath.Join(s.opts.InputDir(), filepath.FromSlash(rel)))
}

// Compiler returns the compiler registered for a source extension.
func (s *Session) Compiler(ext string) (Compiler, bool) {
	c, ok := s.registry[ext]
	return c, ok
}

// Compile runs the compiler registered for ext on req. Compilers use it to
// hand embedded blocks to the compiler of their language.
func (s *Session) Compile(ctx context.Context, ext string, req *Request) (*Result, error) {
	c, ok := s.registry[ext]
	if !ok {
		return nil, &UnsupportedTypeError{Name: req.Node.Name, Ext: ext}
	}
	if t, ok := c.(Transformer); ok {
		return t.Compile(ctx, req)
	}
	res := &Result{}
	res.set(c.Produces().Primary(), req.Source)
	return res, nil
}

// Close stops watching and persists the build state. Builds still in
// flight finish their current node and stop.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
	return s.SaveManifest()
}

// SaveManifest writes the current graph to the output directory.
func (s *Session) SaveManifest() error {
	m := manifest.New(string(s.opts.Mode))
	s.mu.Lock()
	m.Roots = slices.Clone(s.roots)
	var nodes []*Node
	for _, n := range s.nodes {
		if n.alias != nil || n.abandoned || n.parent != nil || n.OutputPath == "" || n.err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	s.mu.Unlock()

	for _, n := range nodes {
		s.mu.Lock()
		entry := manifest.Entry{
			Name:      n.Name,
			Module:    n.Module,
			Input:     n.InputPath,
			Output:    n.OutputPath,
			Vendor:    n.Vendor,
			URL:       n.URL,
			Artifacts: uint8(n.artifacts),
			Requests:  slices.Clone(n.requests),
		}
		s.mu.Unlock()
		for _, dep := range s.Dependencies(n) {
			entry.Deps = append(entry.Deps, dep.OutputPath)
		}
		m.Put(entry)
	}
	return m.Save(s.fs, s.manifestPath())
}

func (s *Session) manifestPath() string {
	return filepath.Join(s.opts.OutputDir(), manifest.FileName)
}

func (s *Session) outputFile(rel string) string {
	return filepath.Join(s.opts.OutputDir(), filepath.FromSlash(rel))
}
