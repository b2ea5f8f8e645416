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
package cdn

import (
	"context"
	"sync"
)

// CachingFetcher wraps a Fetcher so each URL is fetched at most once while it
// stays in the cache. Concurrent requests for the same URL share one fetch.
// Failed fetches are not kept, so a later request retries.
type CachingFetcher struct {
	next    Fetcher
	mu      sync.Mutex
	entries map[string]*fetchEntry
	order   []string // LRU order tracking
	maxSize int
}

type fetchEntry struct {
	once sync.Once
	body []byte
	err  error
}

// NewCachingFetcher creates a caching fetcher holding at most maxSize responses.
// When the cache exceeds this size, the oldest entries are evicted.
func NewCachingFetcher(next Fetcher, maxSize int) *CachingFetcher {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &CachingFetcher{
		next:    next,
		entries: make(map[string]*fetchEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Fetch implements Fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	entry, ok := c.entries[url]
	if !ok {
		entry = &fetchEntry{}
		c.entries[url] = entry
		c.order = append(c.order, url)
		if len(c.order) > c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.mu.Unlock()

	// Fetch outside the lock
	entry.once.Do(func() {
		entry.body, entry.err = c.next.Fetch(ctx, url)
	})

	if entry.err != nil {
		c.forget(url, entry)
		return nil, entry.err
	}
	return entry.body, nil
}

func (c *CachingFetcher) forget(url string, entry *fetchEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[url] != entry {
		return
	}
	delete(c.entries, url)
	for i, k := range c.order {
		if k == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Size returns the current number of cached responses.
func (c *CachingFetcher) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
