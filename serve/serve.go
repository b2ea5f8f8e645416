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
// Package serve is the HTTP front of a build session: static roots gated on
// readiness, the live-reload socket, and an optional backend proxy.
package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bennypowers.dev/appbuild/build"
	appfs "bennypowers.dev/appbuild/fs"
)

// ReadyTimeout bounds how long a request waits for the build to settle.
const ReadyTimeout = 30 * time.Second

// Server implements build.Server over net/http.
type Server struct {
	fs       appfs.FileSystem
	logger   build.Logger
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	proxy    *httputil.ReverseProxy
}

// New creates a server reading static files from fsys.
func New(fsys appfs.FileSystem, logger build.Logger) *Server {
	if logger == nil {
		logger = build.NopLogger{}
	}
	return &Server{
		fs:     fsys,
		logger: logger,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// WithProxy forwards requests no static root can answer to target.
func (s *Server) WithProxy(target string) (*Server, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: scheme and host required", target)
	}
	s.proxy = httputil.NewSingleHostReverseProxy(u)
	return s, nil
}

// Static serves dir under prefix. Directory requests serve index.html.
func (s *Server) Static(prefix, dir string, gate func(ctx context.Context) error) {
	s.mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if gate != nil {
			ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
			err := gate(ctx)
			cancel()
			if err != nil {
				http.Error(w, "build not ready", http.StatusServiceUnavailable)
				return
			}
		}
		rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), path.Clean("/"+prefix))
		s.serveFile(w, r, filepath.Join(dir, filepath.FromSlash(rel)))
	})
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	if appfs.IsDir(s.fs, name) {
		name = filepath.Join(name, "index.html")
	}
	f, err := s.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && s.proxy != nil {
			s.proxy.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

// Socket upgrades requests on path to WebSocket connections.
func (s *Server) Socket(path string, handler func(conn build.SocketConn)) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warning("%s: %v", path, err)
			return
		}
		handler(conn)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
