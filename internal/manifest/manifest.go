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
// Package manifest persists the dependency graph of a build session so the
// next session can skip compiling unchanged assets yet still know their edges.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	appfs "bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/internal/version"
)

// Current schema version - increment when the Manifest format changes
const schemaVersion uint16 = 1

// FileName is the manifest's name inside the output directory.
const FileName = ".appbuild-manifest"

// ErrSchemaMismatch is returned by Load for manifests written by another schema version.
var ErrSchemaMismatch = errors.New("manifest schema mismatch")

// Entry records one build node.
type Entry struct {
	Name   string
	Module string
	Input  string
	Output string
	Vendor bool
	URL    string
	// Artifacts is the set of artifact kinds the last compile produced.
	Artifacts uint8
	// Requests are the references resolved while compiling, in order.
	Requests []string
	// Deps are the output paths of direct dependencies, in graph order.
	Deps []string
}

// Manifest is the persisted graph of one session.
type Manifest struct {
	Schema uint16
	Mode   string
	// Tool is the version of the appbuild binary that wrote the manifest.
	Tool    string
	Entries map[string]Entry
	// Roots are the names of the scanned entry points.
	Roots []string
}

// New creates an empty manifest for a build mode, stamped with the running
// tool version.
func New(mode string) *Manifest {
	return &Manifest{
		Schema:  schemaVersion,
		Mode:    mode,
		Tool:    version.GetVersion(),
		Entries: make(map[string]Entry),
	}
}

// Load reads a manifest. A missing file yields (nil, nil).
func Load(fsys appfs.FileSystem, path string) (*Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if m.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: %w (have %d, want %d)", path, ErrSchemaMismatch, m.Schema, schemaVersion)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	return &m, nil
}

// Save writes the manifest, creating the parent directory.
func (m *Manifest) Save(fsys appfs.FileSystem, path string) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return appfs.Write(fsys, path, data)
}

// Compatible reports whether m can seed a session of mode run by the
// current tool. Outputs written by another release may have been compiled
// differently, so they are rebuilt.
func (m *Manifest) Compatible(mode string) error {
	switch {
	case m.Mode != mode:
		return fmt.Errorf("written for %s mode", m.Mode)
	case m.Tool != version.GetVersion():
		return fmt.Errorf("written by appbuild %s", m.Tool)
	}
	return nil
}

// Put adds or replaces an entry.
func (m *Manifest) Put(e Entry) {
	m.Entries[e.Name] = e
}

// Lookup returns the entry recorded for name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	e, ok := m.Entries[name]
	return e, ok
}

// Names returns the entry names, sorted.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Entries))
	for name := range m.Entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ByOutput returns the entry whose output path is output.
func (m *Manifest) ByOutput(output string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Output == output {
			return e, true
		}
	}
	return Entry{}, false
}
