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
package build

import (
	"context"
	"path/filepath"
	"sync"

	appfs "bennypowers.dev/appbuild/fs"
)

// LiveReloadPath is the socket endpoint of the live-reload protocol.
const LiveReloadPath = "/livereload"

// Server is the subset of an HTTP server a session registers with.
type Server interface {
	// Static serves dir under prefix. A non-nil gate runs before every
	// request; requests fail when it returns an error.
	Static(prefix, dir string, gate func(ctx context.Context) error)
	// Socket upgrades requests on path and hands the connection to handler.
	Socket(path string, handler func(conn SocketConn))
}

// SocketConn is a message-oriented connection, as provided by
// github.com/gorilla/websocket.
type SocketConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteJSON(v any) error
	Close() error
}

// ChangeMessage tells live-reload clients that an artifact was rewritten.
type ChangeMessage struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

// ServeDir returns the directory browsers are served from: the output
// root in developer mode, the distribution root in production mode.
func (s *Session) ServeDir() string {
	if s.opts.Mode == ModeProduction {
		return s.opts.DistDir()
	}
	return s.opts.OutputDir()
}

// RegisterWithServer serves the assets directory, the built application
// gated on readiness, and the live-reload socket when live reload is on.
func (s *Session) RegisterWithServer(srv Server) {
	if s.opts.Assets != "" {
		assets := filepath.Join(s.opts.InputDir(), s.opts.Assets)
		if appfs.IsDir(s.fs, assets) {
			srv.Static("/"+s.opts.Assets+"/", assets, nil)
		}
	}
	srv.Static("/", s.ServeDir(), s.WaitReady)
	if s.opts.Live {
		srv.Socket(LiveReloadPath, s.ServeLiveReload)
	}
}

// ServeLiveReload pushes a ChangeMessage for every rewritten artifact and
// echoes whatever the client sends, until the connection fails.
func (s *Session) ServeLiveReload(conn SocketConn) {
	var mu sync.Mutex
	unsubscribe := s.Subscribe(func(e Event) {
		if e.Kind != EventChanged {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		msg := ChangeMessage{Action: "changed", Path: "/" + e.Node.OutputPath}
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("live reload: %v", err)
		}
	})
	defer unsubscribe()
	defer conn.Close() //nolint:errcheck

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		mu.Lock()
		err = conn.WriteMessage(mt, data)
		mu.Unlock()
		if err != nil {
			return
		}
	}
}
