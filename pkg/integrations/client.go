package integrations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/l1asis/pip-ext/pkg/httputil"
)

// maxBodySize caps how much of a response body is read. Pages scraped here
// are a few hundred KB at most.
const maxBodySize = 10 << 20

// Client fetches pages from the scraped hosts. It applies the shared header
// table, retries transient failures with backoff and optionally caches
// response bodies. One client is reused across all calls of a command so
// connections are pooled.
type Client struct {
	http    *http.Client
	cache   *httputil.Cache
	headers map[string]string
}

// NewClient creates a Client. Pass a nil cache to disable response caching.
func NewClient(cache *httputil.Cache, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		http:    httpClient,
		cache:   cache,
		headers: DefaultHeaders,
	}
}

// Page performs a GET for pageURL with optional query parameters and returns
// the response body as text.
//
// Status handling:
//   - 200: body returned
//   - 404: [ErrNotFound]
//   - 5xx and transport failures: retried, then [ErrNetwork]
//   - anything else: [ErrNetwork]
func (c *Client) Page(ctx context.Context, pageURL string, params url.Values) (string, error) {
	if len(params) > 0 {
		pageURL += "?" + params.Encode()
	}

	if c.cache != nil {
		var body string
		if ok, _ := c.cache.Get(pageURL, &body); ok {
			return body, nil
		}
	}

	var body string
	err := httputil.DefaultPolicy.Do(ctx, func() error {
		b, err := c.fetch(ctx, pageURL)
		body = b
		return err
	})
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		_ = c.cache.Set(pageURL, body)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return string(data), nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
