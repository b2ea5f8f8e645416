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
package mapfs

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	mfs := New()
	start := mfs.Now()
	mfs.AddFile("/a.js", "a", 0644)

	mfs.Advance(time.Minute)
	if err := mfs.WriteFile("/b.js", []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := mfs.Stat("/a.js")
	if err != nil {
		t.Fatal(err)
	}
	b, err := mfs.Stat("/b.js")
	if err != nil {
		t.Fatal(err)
	}
	if !a.ModTime().Equal(start) {
		t.Errorf("a.js ModTime = %v, want %v", a.ModTime(), start)
	}
	if got := b.ModTime().Sub(a.ModTime()); got != time.Minute {
		t.Errorf("b.js is %v newer than a.js, want 1m", got)
	}

	if err := mfs.SetModTime("/a.js", start.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if a, _ = mfs.Stat("/a.js"); !a.ModTime().After(b.ModTime()) {
		t.Error("Expected SetModTime to move a.js past b.js")
	}
	if err := mfs.SetModTime("/missing.js", start); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("SetModTime(missing) = %v, want ErrNotExist", err)
	}
}

func TestRemoveAll(t *testing.T) {
	mfs := New()
	mfs.AddFile("/proj/build/a.js", "a", 0644)
	mfs.AddFile("/proj/build/vendor/vue.js", "v", 0644)
	mfs.AddFile("/proj/build-old/a.js", "a", 0644)

	if err := mfs.RemoveAll("/proj/build"); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"/proj/build/a.js", "/proj/build/vendor/vue.js", "/proj/build"} {
		if mfs.Exists(p) {
			t.Errorf("Expected %s removed", p)
		}
	}
	if !mfs.Exists("/proj/build-old/a.js") {
		t.Error("Expected sibling with shared prefix kept")
	}
}
