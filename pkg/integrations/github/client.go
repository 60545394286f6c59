// Package github locates a package's source repository on the code host and
// resolves a fetchable reference into it: the default branch when no version
// is requested, or the tag matching a requested version, found by walking
// the paginated tag listing.
//
// Everything here works from the public HTML pages, not the API, so the
// fragment patterns are page-shape assumptions; when one stops matching the
// error surfaces as [integrations.ErrPageShape].
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/l1asis/pip-ext/pkg/integrations"
)

// Host is the canonical code-hosting domain source links must point at.
const Host = "github.com"

// maxTagPages bounds the tag-listing walk. The host paginates roughly ten
// tags per page; a version that hasn't appeared within this many pages is
// reported as not found instead of walking the listing forever.
const maxTagPages = 20

var (
	branchRE       = regexp.MustCompile(`<span class="Text-sc-17v1xeu-0 bOMzPg">.*?>(?P<branch>.*?)</span>`)
	tagRE          = regexp.MustCompile(`<a.*?href=".*?/releases/tag/.*?>(?P<tag>.*?)</a>`)
	versionTagTmpl = `<a.*?href=".*?/releases/tag/.*?>(?P<tag>.*?%s.*?)</a>`
)

// Source identifies a repository on the code host.
type Source struct {
	Host  string
	Owner string
	Repo  string
}

// Path returns "owner/repo".
func (s Source) Path() string { return s.Owner + "/" + s.Repo }

// SelectSource picks the repository location from a package's link
// collection: the first link whose scheme is https and whose host is the
// code-hosting domain, truncated to its first two path segments with query
// and fragment discarded. Returns ok=false when no link qualifies.
func SelectSource(urls []string) (Source, bool) {
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "https" || u.Host != Host {
			continue
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		return Source{Host: Host, Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}, true
	}
	return Source{}, false
}

// Ref is a resolved pointer into a repository: a branch or a tag name,
// never both.
type Ref struct {
	Name  string
	IsTag bool
}

// Client resolves references against the code host.
type Client struct {
	client  *integrations.Client
	baseURL string // repository pages
	rawURL  string // raw file content
}

// NewClient creates a code-host client on top of the shared page client.
func NewClient(c *integrations.Client) *Client {
	return &Client{
		client:  c,
		baseURL: "https://github.com",
		rawURL:  "https://raw.githubusercontent.com",
	}
}

// Resolve yields the reference for src: the tag matching version when one is
// given, the default branch otherwise.
func (c *Client) Resolve(ctx context.Context, src Source, version string) (Ref, error) {
	if version == "" {
		return c.DefaultBranch(ctx, src)
	}
	return c.FindTag(ctx, src, version)
}

// DefaultBranch extracts the repository's default branch name from its root
// page. A page without the expected fragment yields
// [integrations.ErrPageShape].
func (c *Client) DefaultBranch(ctx context.Context, src Source) (Ref, error) {
	body, err := c.client.Page(ctx, c.baseURL+"/"+src.Path(), nil)
	if err != nil {
		return Ref{}, err
	}
	m := branchRE.FindStringSubmatch(body)
	if m == nil {
		return Ref{}, fmt.Errorf("%w: default branch fragment missing on %s", integrations.ErrPageShape, src.Path())
	}
	return Ref{Name: m[1]}, nil
}

// FindTag searches the repository's tag listing for a tag whose text
// contains version, following the listing's "after" pagination cursor.
//
// The walk is bounded: an empty listing page or maxTagPages pages without a
// match both return [integrations.ErrNotFound]. The host promises that a
// non-exhausted listing carries at least one tag and that the cursor
// strictly advances, but a momentary empty page must terminate the walk,
// not spin it.
func (c *Client) FindTag(ctx context.Context, src Source, version string) (Ref, error) {
	re, err := regexp.Compile(fmt.Sprintf(versionTagTmpl, regexp.QuoteMeta(version)))
	if err != nil {
		return Ref{}, err
	}

	tagsURL := c.baseURL + "/" + src.Path() + "/tags"
	body, err := c.client.Page(ctx, tagsURL, nil)
	if err != nil {
		return Ref{}, err
	}

	for page := 1; ; page++ {
		if m := re.FindStringSubmatch(body); m != nil {
			return Ref{Name: m[1], IsTag: true}, nil
		}
		if page == maxTagPages {
			return Ref{}, fmt.Errorf("%w: no tag matching %q within %d pages of %s",
				integrations.ErrNotFound, version, maxTagPages, src.Path())
		}

		tags := tagRE.FindAllStringSubmatch(body, -1)
		if len(tags) == 0 {
			return Ref{}, fmt.Errorf("%w: no tag matching %q in %s",
				integrations.ErrNotFound, version, src.Path())
		}
		last := tags[len(tags)-1][1]

		body, err = c.client.Page(ctx, tagsURL, url.Values{"after": {last}})
		if err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return Ref{}, fmt.Errorf("%w: tag listing for %s ended before %q",
					integrations.ErrNotFound, src.Path(), version)
			}
			return Ref{}, err
		}
	}
}

// RawBase returns the base URL under which the repository's files can be
// fetched raw at the given reference.
func (c *Client) RawBase(src Source, ref Ref) string {
	return c.rawURL + "/" + src.Path() + "/" + ref.Name
}
