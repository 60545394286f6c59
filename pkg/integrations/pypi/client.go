// Package pypi scrapes package metadata from the Python Package Index
// project pages.
//
// PyPI's JSON API does not carry everything the project page shows (release
// date, the ordered project-links sidebar), so this client works from the
// public HTML and feeds it through the capture scanner in pkg/scan.
package pypi

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/l1asis/pip-ext/pkg/integrations"
)

// notFoundSentinel appears in the 200 body PyPI serves for unknown projects.
const notFoundSentinel = "We looked everywhere but couldn't find this page"

var (
	didYouMeanRE = regexp.MustCompile(`Did you mean '(?P<name>.*?)'\?`)
	validNameRE  = regexp.MustCompile(`^[a-zA-Z](?:[a-zA-Z0-9]+|(?:\-|\.[a-zA-Z0-9]+))*$`)
)

// ValidName reports whether name is a plausible index package name.
func ValidName(name string) bool {
	return validNameRE.MatchString(name)
}

// Link is one (label, url) pair from the project-links sidebar.
// Pairs keep the page's order.
type Link struct {
	Label string
	URL   string
}

// Package is the metadata scraped from one project page.
// Name and Version are present together or the record is incomplete;
// [Client.FetchProject] never returns an incomplete record.
type Package struct {
	Name        string
	Version     string
	Summary     string
	License     string
	Release     string
	Requires    string
	Author      string
	AuthorEmail string
	Links       []Link
}

// LinkURLs returns just the link URLs in page order.
func (p *Package) LinkURLs() []string {
	urls := make([]string, len(p.Links))
	for i, l := range p.Links {
		urls[i] = l.URL
	}
	return urls
}

// Client fetches and extracts PyPI project pages.
type Client struct {
	client  *integrations.Client
	baseURL string
}

// NewClient creates a PyPI client on top of the shared page client.
func NewClient(c *integrations.Client) *Client {
	return &Client{client: c, baseURL: "https://pypi.org"}
}

// Suggestion runs the index search for query and returns the "did you mean"
// correction the search page offers, or "" when there is none.
func (c *Client) Suggestion(ctx context.Context, query string) (string, error) {
	body, err := c.client.Page(ctx, c.baseURL+"/search/", url.Values{"q": {query}})
	if err != nil {
		return "", err
	}
	if m := didYouMeanRE.FindStringSubmatch(body); m != nil {
		return m[1], nil
	}
	return "", nil
}

// FetchProject retrieves the project page for name (optionally pinned to
// version) and extracts its metadata.
//
// Returns [integrations.ErrNotFound] when the index has no such project,
// detected either by the page sentinel or by a page that carries no package
// header.
func (c *Client) FetchProject(ctx context.Context, name, version string) (*Package, error) {
	pageURL := fmt.Sprintf("%s/project/%s/", c.baseURL, name)
	if version != "" {
		pageURL += version + "/"
	}

	body, err := c.client.Page(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if strings.Contains(body, notFoundSentinel) {
		return nil, fmt.Errorf("%w: project %q", integrations.ErrNotFound, name)
	}

	pkg, err := extractPackage(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	if pkg.Name == "" || pkg.Version == "" {
		return nil, fmt.Errorf("%w: project page for %q has no package header", integrations.ErrNotFound, name)
	}
	return pkg, nil
}
