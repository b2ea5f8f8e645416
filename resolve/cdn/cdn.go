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
// Package cdn locates vendor packages by downloading their dist bundles
// from a CDN into an on-disk cache.
package cdn

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	appcdn "bennypowers.dev/appbuild/cdn"
	"bennypowers.dev/appbuild/fs"
	"bennypowers.dev/appbuild/resolve"
)

// scriptCandidates are the dist files tried, in order, for a package.
var scriptCandidates = []string{".min.js", ".umd.js"}

// Locator downloads vendor bundles on demand.
type Locator struct {
	fetcher  appcdn.Fetcher
	fs       fs.FileSystem
	cacheDir string
	provider appcdn.Provider
	template *resolve.Template
	versions map[string]string
	logger   resolve.Logger
	group    *singleflight.Group
}

// New creates a Locator that stores downloads under cacheDir.
func New(fetcher appcdn.Fetcher, fsys fs.FileSystem, cacheDir string) *Locator {
	tmpl, _ := resolve.ParseTemplate(appcdn.DefaultProvider.DistTemplate)
	return &Locator{
		fetcher:  fetcher,
		fs:       fsys,
		cacheDir: cacheDir,
		provider: appcdn.DefaultProvider,
		template: tmpl,
		group:    &singleflight.Group{},
	}
}

// WithProvider returns a new Locator using the specified CDN provider.
func (l *Locator) WithProvider(provider appcdn.Provider) *Locator {
	clone := *l
	clone.provider = provider
	clone.template, _ = resolve.ParseTemplate(provider.DistTemplate)
	return &clone
}

// WithTemplate returns a new Locator using a custom dist URL template.
func (l *Locator) WithTemplate(pattern string) (*Locator, error) {
	tmpl, err := resolve.ParseTemplate(pattern)
	if err != nil {
		return nil, err
	}
	clone := *l
	clone.template = tmpl
	return &clone, nil
}

// WithVersions returns a new Locator that pins package versions.
// Packages missing from versions resolve to the CDN's latest release.
func (l *Locator) WithVersions(versions map[string]string) *Locator {
	clone := *l
	clone.versions = versions
	return &clone
}

// WithLogger returns a new Locator that logs downloads.
func (l *Locator) WithLogger(logger resolve.Logger) *Locator {
	clone := *l
	clone.logger = logger
	return &clone
}

// Provider returns the configured CDN provider.
func (l *Locator) Provider() appcdn.Provider {
	return l.provider
}

// URL returns the download URL of a dist file of a package.
func (l *Locator) URL(name, file string) string {
	return l.template.Expand(name, l.versions[name], file)
}

// Locate implements resolve.VendorLocator. The exts preference is not
// consulted: CDN dist directories are probed for the minified bundle first
// and the UMD bundle second. Downloaded files are reused on later calls.
func (l *Locator) Locate(ctx context.Context, name string, exts []string) (resolve.VendorFile, error) {
	var lastErr error
	for _, ext := range scriptCandidates {
		file := name + ext
		script, err := l.download(ctx, name, file)
		if err != nil {
			lastErr = err
			continue
		}
		return resolve.VendorFile{
			Script: script,
			Style:  l.style(ctx, name),
		}, nil
	}
	if lastErr != nil && !appcdn.IsNotFound(lastErr) && l.logger != nil {
		l.logger.Warning("vendor %s from %s: %v", name, l.provider.Name, lastErr)
	}
	return resolve.VendorFile{}, fmt.Errorf("%s: %w", name, resolve.ErrVendorNotFound)
}

// style fetches the minified style sheet of a package when the CDN has one.
func (l *Locator) style(ctx context.Context, name string) string {
	path, err := l.download(ctx, name, name+".min.css")
	if err != nil {
		return ""
	}
	return path
}

// download stores a dist file in the cache directory unless a non-empty
// copy is already there. Concurrent requests for the same file share one fetch.
func (l *Locator) download(ctx context.Context, name, file string) (string, error) {
	dest := filepath.Join(l.cacheDir, file)
	if info, err := l.fs.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}

	_, err, _ := l.group.Do(dest, func() (any, error) {
		url := l.URL(name, file)
		data, err := l.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, &appcdn.FetchError{URL: url, Message: "empty response"}
		}
		if err := fs.Write(l.fs, dest, data); err != nil {
			return nil, err
		}
		if l.logger != nil {
			l.logger.Debug("downloaded %s", url)
		}
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}
