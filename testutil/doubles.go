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
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bennypowers.dev/appbuild/cdn"
)

// MockFetcher serves canned responses and counts requests per URL.
// Unknown URLs fail with a 404 FetchError.
type MockFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	errors    map[string]error
	calls     map[string]int
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// AddResponse registers the body served for url.
func (m *MockFetcher) AddResponse(url string, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = []byte(data)
}

// AddError registers the error returned for url.
func (m *MockFetcher) AddError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = err
}

// Fetch implements cdn.Fetcher.
func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[url]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.errors[url]; ok {
		return nil, err
	}
	if data, ok := m.responses[url]; ok {
		return data, nil
	}
	return nil, &cdn.FetchError{URL: url, StatusCode: 404, Message: "Not Found"}
}

// Calls returns how often url was fetched.
func (m *MockFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// TotalCalls returns the number of fetches of any URL.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Logger records log lines by level.
type Logger struct {
	mu    sync.Mutex
	lines []string
}

func (l *Logger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any)    { l.record("info", format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.record("warning", format, args...) }
func (l *Logger) Debug(format string, args ...any)   { l.record("debug", format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.record("error", format, args...) }

// Lines returns the recorded lines, each prefixed with its level.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Count returns the number of recorded lines containing substr.
func (l *Logger) Count(substr string) int {
	n := 0
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
