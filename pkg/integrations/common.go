// Package integrations provides the shared HTTP plumbing for every host
// this tool scrapes: the package index, the health advisor and the code
// host. It owns the browser header table, timeouts, retry policy, response
// caching and the error taxonomy the command layer branches on.
package integrations

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds every page fetch. Without it one request to a
// stalled host would hang the command indefinitely.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a page, package or file doesn't exist,
	// whether signalled by a 404 or by a sentinel phrase in a 200 body.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, unexpected status codes).
	ErrNetwork = errors.New("network error")

	// ErrPageShape is returned when a page fetched successfully but an
	// expected fragment is missing from its markup, which usually means
	// the upstream layout changed.
	ErrPageShape = errors.New("unexpected page shape")
)

// DefaultHeaders is sent with every request. The hosts scraped here serve
// their full pages only to browser-looking clients.
var DefaultHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Linux; x86)",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/png,image/svg+xml,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Sec-GPC":                   "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Priority":                  "u=0, i",
}

// NewHTTPClient creates an HTTP client with the given request timeout.
// A non-positive timeout falls back to [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
