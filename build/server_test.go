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
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"bennypowers.dev/appbuild/build"
)

// fakeConn is a SocketConn fed from a channel. Closing in ends the read loop.
type fakeConn struct {
	in      chan []byte
	mu      sync.Mutex
	written [][]byte
	json    []build.ChangeMessage
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-c.in
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return 1, data, nil
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var msg build.ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.json = append(c.json, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestServeLiveReload(t *testing.T) {
	files := map[string]string{
		"index.html": headDoc,
		"index.js":   "import b from './b'\nb()\n",
		"b.js":       "export default function b() {}\n",
	}
	mfs := project(files)
	s, _ := newSession(t, mfs, nil, func(o *build.Options) { o.Live = true })
	mustBuild(t, s)

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		s.ServeLiveReload(conn)
		close(done)
	}()

	// The handler has subscribed once it echoes.
	conn.in <- []byte("ping")

	mfs.Advance(2 * time.Second)
	mfs.AddFile(path.Join(root, "app", "b.js"), "export default function b() { return 1 }\n", 0644)
	if err := s.HandleChange(context.Background(), "b.js"); err != nil {
		t.Fatal(err)
	}
	close(conn.in)
	<-done

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.written) != 1 || string(conn.written[0]) != "ping" {
		t.Errorf("Expected the message to be echoed, got %q", conn.written)
	}
	want := []build.ChangeMessage{
		{Action: "changed", Path: "/b.js"},
		{Action: "changed", Path: "/index.js"},
		{Action: "changed", Path: "/index.html"},
	}
	if len(conn.json) != len(want) {
		t.Fatalf("Expected %d change messages, got %v", len(want), conn.json)
	}
	for i := range want {
		if conn.json[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, conn.json[i], want[i])
		}
	}
	if !conn.closed {
		t.Error("Expected the connection to be closed")
	}
}

type fakeServer struct {
	static  map[string]string
	gated   map[string]bool
	sockets []string
}

func (f *fakeServer) Static(prefix, dir string, gate func(ctx context.Context) error) {
	if f.static == nil {
		f.static = map[string]string{}
		f.gated = map[string]bool{}
	}
	f.static[prefix] = dir
	f.gated[prefix] = gate != nil
}

func (f *fakeServer) Socket(path string, _ func(conn build.SocketConn)) {
	f.sockets = append(f.sockets, path)
}

func TestRegisterWithServer(t *testing.T) {
	tests := []struct {
		name    string
		mode    build.Mode
		live    bool
		root    string
		sockets int
	}{
		{"developer live", build.ModeDeveloper, true, "/proj/build", 1},
		{"developer", build.ModeDeveloper, false, "/proj/build", 0},
		{"production", build.ModeProduction, false, "/proj/dist", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := project(map[string]string{"assets/logo.png": "png"})
			s, _ := newSession(t, mfs, nil, func(o *build.Options) {
				o.Mode = tt.mode
				o.Live = tt.live
			})
			srv := &fakeServer{}
			s.RegisterWithServer(srv)

			if srv.static["/"] != tt.root || !srv.gated["/"] {
				t.Errorf("Expected gated root %s, got %v", tt.root, srv.static)
			}
			if srv.static["/assets/"] != "/proj/app/assets" || srv.gated["/assets/"] {
				t.Errorf("Expected ungated assets, got %v", srv.static)
			}
			if len(srv.sockets) != tt.sockets {
				t.Errorf("Expected %d sockets, got %v", tt.sockets, srv.sockets)
			}
		})
	}
}
