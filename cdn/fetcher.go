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

// Package cdn provides HTTP fetching for remote modules and CDN-hosted
// vendor packages.
package cdn

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinywasm/fetch"
)

// Fetcher provides an abstraction over HTTP fetching.
type Fetcher interface {
	// Fetch retrieves content from the given URL.
	// Returns the response body bytes or an error if the request fails.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher implements Fetcher using tinywasm/fetch.
type HTTPFetcher struct {
	maxSize int
}

// NewHTTPFetcher creates a new HTTP fetcher without a size limit.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// WithMaxSize returns a copy of the fetcher that rejects bodies larger than n bytes.
// Zero or negative n disables the limit.
func (f *HTTPFetcher) WithMaxSize(n int) *HTTPFetcher {
	clone := *f
	clone.maxSize = n
	return &clone
}

// Fetch implements Fetcher. Non-2xx responses and bodies over the size
// limit fail with a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)

	fetch.Get(url).Send(func(resp *fetch.Response, err error) {
		body, err := f.check(url, resp, err)
		done <- result{body, err}
	})

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, &FetchError{URL: url, Message: "canceled", Err: ctx.Err()}
	}
}

func (f *HTTPFetcher) check(url string, resp *fetch.Response, err error) ([]byte, error) {
	switch {
	case err != nil:
		return nil, &FetchError{URL: url, Message: err.Error(), Err: err}
	case resp.Status < 200 || resp.Status > 299:
		return nil, &FetchError{URL: url, StatusCode: resp.Status, Message: fmt.Sprintf("HTTP %d", resp.Status)}
	}
	body := resp.Body()
	if f.maxSize > 0 && len(body) > f.maxSize {
		return nil, &FetchError{
			URL:      url,
			Message:  fmt.Sprintf("response of %d bytes exceeds limit of %d", len(body), f.maxSize),
			TooLarge: true,
		}
	}
	return body, nil
}

// FetchError describes a failed download.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	TooLarge   bool
	// Err is the transport or context error, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the response was a 404.
func (e *FetchError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsNotFound reports whether err wraps a 404 FetchError.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.IsNotFound()
}
