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
package packagejson

import "sync"

// Cache stores parsed package.json files keyed by path so repeated vendor
// lookups during a session read each manifest once.
type Cache interface {
	Get(path string) (*PackageJSON, bool)
	Invalidate(path string)
	// GetOrLoad returns the cached value or runs loader. Concurrent callers
	// for the same path share one loader call.
	GetOrLoad(path string, loader func() (*PackageJSON, error)) (*PackageJSON, error)
}

type cacheEntry struct {
	once sync.Once
	pkg  *PackageJSON
	err  error
}

// MemoryCache is a thread-safe in-memory implementation of Cache.
// Failed loads are cached too, until invalidated.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewMemoryCache creates a new in-memory cache for package.json files.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*cacheEntry)}
}

func (c *MemoryCache) entry(path string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{}
		c.entries[path] = e
	}
	return e
}

// Get returns a successfully loaded package.json.
func (c *MemoryCache) Get(path string) (*PackageJSON, bool) {
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.once.Do(func() { e.err = ErrNoEntry })
	return e.pkg, e.err == nil
}

// Invalidate drops a cached entry so the next GetOrLoad reloads it.
func (c *MemoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// GetOrLoad implements Cache.
func (c *MemoryCache) GetOrLoad(path string, loader func() (*PackageJSON, error)) (*PackageJSON, error) {
	e := c.entry(path)
	e.once.Do(func() {
		e.pkg, e.err = loader()
	})
	return e.pkg, e.err
}
