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
	"errors"
	"sync"
	"testing"

	appcdn "bennypowers.dev/appbuild/cdn"
	"bennypowers.dev/appbuild/internal/mapfs"
	"bennypowers.dev/appbuild/resolve"
)

// MockFetcher is a test implementation of the Fetcher interface.
type MockFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	errors    map[string]error
	calls     map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (m *MockFetcher) AddResponse(url string, data []byte) {
	m.responses[url] = data
}

func (m *MockFetcher) AddError(url string, err error) {
	m.errors[url] = err
}

func (m *MockFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls[url]++
	m.mu.Unlock()
	if err, ok := m.errors[url]; ok {
		return nil, err
	}
	if data, ok := m.responses[url]; ok {
		return data, nil
	}
	return nil, &appcdn.FetchError{URL: url, StatusCode: 404, Message: "Not Found"}
}

func TestLocateMinified(t *testing.T) {
	mock := NewMockFetcher()
	mock.AddResponse("https://cdn.jsdelivr.net/npm/vue/dist/vue.min.js", []byte("/*vue*/"))
	mock.AddResponse("https://cdn.jsdelivr.net/npm/vue/dist/vue.min.css", []byte(".v{}"))

	mfs := mapfs.New()
	locator := New(mock, mfs, "/out/.cdn")

	got, err := locator.Locate(context.Background(), "vue", resolve.PlainExts)
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	want := resolve.VendorFile{Script: "/out/.cdn/vue.min.js", Style: "/out/.cdn/vue.min.css"}
	if got != want {
		t.Errorf("Locate() = %+v, want %+v", got, want)
	}
	data, err := mfs.ReadFile("/out/.cdn/vue.min.js")
	if err != nil || string(data) != "/*vue*/" {
		t.Errorf("Expected cached download, got %q (%v)", data, err)
	}
}

func TestLocateUMDFallback(t *testing.T) {
	mock := NewMockFetcher()
	mock.AddResponse("https://cdn.jsdelivr.net/npm/lib/dist/lib.umd.js", []byte("umd"))

	locator := New(mock, mapfs.New(), "/cache")

	got, err := locator.Locate(context.Background(), "lib", resolve.MinifiedExts)
	if err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if got.Script != "/cache/lib.umd.js" {
		t.Errorf("Expected UMD fallback, got %q", got.Script)
	}
	if got.Style != "" {
		t.Errorf("Expected no style, got %q", got.Style)
	}
}

func TestLocateNotFound(t *testing.T) {
	locator := New(NewMockFetcher(), mapfs.New(), "/cache")

	_, err := locator.Locate(context.Background(), "missing", resolve.PlainExts)
	if !errors.Is(err, resolve.ErrVendorNotFound) {
		t.Errorf("Expected ErrVendorNotFound, got %v", err)
	}
}

func TestLocateReusesCache(t *testing.T) {
	const url = "https://cdn.jsdelivr.net/npm/vue/dist/vue.min.js"
	mock := NewMockFetcher()
	mock.AddResponse(url, []byte("vue"))
	locator := New(mock, mapfs.New(), "/cache")

	for range 3 {
		if _, err := locator.Locate(context.Background(), "vue", resolve.PlainExts); err != nil {
			t.Fatalf("Locate error: %v", err)
		}
	}
	if n := mock.Calls(url); n != 1 {
		t.Errorf("Expected one download, got %d", n)
	}
}

func TestLocateConcurrent(t *testing.T) {
	const url = "https://cdn.jsdelivr.net/npm/vue/dist/vue.min.js"
	mock := NewMockFetcher()
	mock.AddResponse(url, []byte("vue"))
	locator := New(mock, mapfs.New(), "/cache")

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			if _, err := locator.Locate(context.Background(), "vue", resolve.PlainExts); err != nil {
				t.Errorf("Locate error: %v", err)
			}
		})
	}
	wg.Wait()

	// singleflight collapses concurrent calls, later calls hit the disk cache
	if n := mock.Calls(url); n < 1 || n > 20 {
		t.Errorf("Unexpected download count %d", n)
	}
}

func TestWithProviderAndVersions(t *testing.T) {
	mock := NewMockFetcher()
	mock.AddResponse("https://unpkg.com/vue@2.7.16/dist/vue.min.js", []byte("vue"))

	locator := New(mock, mapfs.New(), "/cache").
		WithProvider(appcdn.Unpkg).
		WithVersions(map[string]string{"vue": "2.7.16"})

	if _, err := locator.Locate(context.Background(), "vue", resolve.PlainExts); err != nil {
		t.Fatalf("Locate error: %v", err)
	}
	if locator.Provider().Name != "unpkg" {
		t.Errorf("Expected unpkg provider, got %s", locator.Provider().Name)
	}
}

func TestWithTemplate(t *testing.T) {
	mock := NewMockFetcher()
	mock.AddResponse("https://mirror.example/vue/vue.min.js", []byte("vue"))

	locator, err := New(mock, mapfs.New(), "/cache").WithTemplate("https://mirror.example/{package}/{path}")
	if err != nil {
		t.Fatalf("WithTemplate error: %v", err)
	}
	if _, err := locator.Locate(context.Background(), "vue", resolve.PlainExts); err != nil {
		t.Errorf("Locate error: %v", err)
	}
}
