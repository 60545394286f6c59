// Package advisor scrapes the package-health score page of the Snyk Advisor
// service. The page is a flat sequence of labelled metric fragments, so the
// extractor is a label-trigger-only configuration of the capture scanner.
package advisor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/l1asis/pip-ext/pkg/integrations"
	"github.com/l1asis/pip-ext/pkg/scan"
)

// notFoundSentinel appears in the body the advisor serves for unknown
// packages.
const notFoundSentinel = "Package not found"

// LatestVersionLabel names the metric filled retroactively when the page
// marks a version with the literal "(Latest)" token.
const LatestVersionLabel = "Latest Version"

// Labels is the fixed metric vocabulary, in the order the report prints.
// Each label is honored at most once per page even when the markup repeats
// a fragment.
var Labels = []string{
	"Package Health Score",
	"Popularity",
	"GitHub Stars",
	"Forks",
	"Maintenance",
	"Open Issues",
	"Open PR",
	"Last Release",
	"Last Commit",
	"Security",
	"License",
	"Security Policy",
	"Community",
	"Readme",
	"Contributing Guide",
	"Code of Conduct",
	"Contributors",
	"Funding",
	"Python Versions Compatibility",
	"Age",
	"Latest Release",
	"Dependencies",
	"Versions",
	"Maintainers",
	"Wheels",
}

// Health is the flat metric record for one package.
type Health struct {
	Metrics map[string]string
}

// Get returns the value for a metric label, or "" when the page didn't
// carry it.
func (h *Health) Get(label string) string { return h.Metrics[label] }

// Client fetches and extracts advisor health pages.
type Client struct {
	client  *integrations.Client
	baseURL string
}

// NewClient creates an advisor client on top of the shared page client.
func NewClient(c *integrations.Client) *Client {
	return &Client{client: c, baseURL: "https://snyk.io/advisor/python"}
}

// FetchHealth retrieves the health page for a package and extracts its
// metrics. Returns [integrations.ErrNotFound] when the advisor has no page
// for the package.
func (c *Client) FetchHealth(ctx context.Context, name string) (*Health, error) {
	body, err := c.client.Page(ctx, c.baseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	if strings.Contains(body, notFoundSentinel) {
		return nil, fmt.Errorf("%w: advisor page for %q", integrations.ErrNotFound, name)
	}
	return extractHealth(strings.NewReader(body))
}

func extractHealth(r io.Reader) (*Health, error) {
	h := &Health{Metrics: make(map[string]string, len(Labels))}

	labels := make(map[string]string, len(Labels))
	for _, l := range Labels {
		labels[l] = l
	}

	cfg := scan.Config{
		Labels:  labels,
		Markers: map[string]string{"(Latest)": LatestVersionLabel},
		OnValue: func(field, value string) {
			if _, dup := h.Metrics[field]; !dup {
				h.Metrics[field] = value
			}
		},
	}

	if err := scan.New(cfg).Run(r); err != nil {
		return nil, err
	}
	return h, nil
}
