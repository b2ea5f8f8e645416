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
// Package testutil provides fixtures and doubles shared by the package tests.
package testutil

import (
	"bytes"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/appbuild/internal/mapfs"
)

var update = flag.Bool("update", false, "rewrite golden files from actual output")

// fixturePath finds name under the testdata directory at the module root,
// from any package directory up to two levels deep.
func fixturePath(t *testing.T, name string) string {
	t.Helper()
	for _, dir := range []string{"testdata", "../testdata", "../../testdata"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Fatalf("fixture %s not found in testdata", name)
	return ""
}

// NewFixtureFS loads a testdata directory into a MapFileSystem rooted at
// rootPath.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()
	src := fixturePath(t, fixtureDir)
	mfs := mapfs.New()
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		mfs.AddFile(filepath.Join(rootPath, rel), string(content), 0644)
		return nil
	})
	if err != nil {
		t.Fatalf("loading fixtures from %s: %v", fixtureDir, err)
	}
	return mfs
}

// Fixture returns the content of a testdata file.
func Fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(fixturePath(t, name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return data
}

// Golden compares actual with a testdata golden file. With -update the
// golden file is rewritten instead.
func Golden(t *testing.T, name string, actual []byte) {
	t.Helper()
	if *update {
		p := filepath.Join(fixturePath(t, filepath.Dir(name)), filepath.Base(name))
		if err := os.WriteFile(p, actual, 0644); err != nil {
			t.Fatalf("writing golden file %s: %v", name, err)
		}
		t.Logf("updated %s", p)
		return
	}
	want := Fixture(t, name)
	if !bytes.Equal(actual, want) {
		t.Errorf("output differs from %s\n--- got ---\n%s\n--- want ---\n%s", name, actual, want)
	}
}
