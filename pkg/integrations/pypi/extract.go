package pypi

import (
	"io"
	"strings"

	"github.com/l1asis/pip-ext/pkg/scan"
)

// Field names used by the project-page scanner configuration.
const (
	fieldName        = "name"
	fieldRelease     = "release"
	fieldSummary     = "summary"
	fieldLicense     = "license"
	fieldAuthor      = "author"
	fieldAuthorEmail = "author-email"
	fieldRequires    = "requires"
	fieldLinks       = "links"
)

// extractPackage walks one project page and builds the package record.
//
// The rule table mirrors the page layout: the header h1 carries "name
// version", the date lives in a <time> child of the header date paragraph,
// and the License/Author/Requires fields are announced by literal labels in
// the page body rather than by attributes. Project links is the one
// multi-item field; it collects (label, href) pairs until its list closes.
// While the author capture is open, an anchor href doubles as the author
// email without disturbing the capture itself.
func extractPackage(r io.Reader) (*Package, error) {
	pkg := &Package{}

	cfg := scan.Config{
		Tags: []scan.TagTrigger{
			{Tag: "h1", Attr: "class", Value: "package-header__name", Field: fieldName},
			{Tag: "p", Attr: "class", Value: "package-header__date", Field: fieldRelease},
			{Tag: "p", Attr: "class", Value: "package-description__summary", Field: fieldSummary},
		},
		Labels: map[string]string{
			"License:":      fieldLicense,
			"Author:":       fieldAuthor,
			"Requires:":     fieldRequires,
			"Project links": fieldLinks,
		},
		Fields: map[string]scan.Field{
			fieldRelease:  {Routes: []scan.Route{{PrevTag: "time"}}},
			fieldRequires: {Routes: []scan.Route{{PrevTag: "strong"}}},
			fieldAuthor: {
				Routes:    []scan.Route{{PrevTag: "strong"}, {PrevTag: "a"}},
				HrefField: fieldAuthorEmail,
			},
			fieldLinks: {Multi: true, Container: "ul"},
		},
		OnValue: func(field, value string) {
			switch field {
			case fieldName:
				parts := strings.Fields(value)
				if len(parts) > 0 {
					pkg.Name = parts[0]
				}
				if len(parts) > 1 {
					pkg.Version = parts[1]
				}
			case fieldRelease:
				pkg.Release = value
			case fieldSummary:
				pkg.Summary = value
			case fieldLicense:
				pkg.License = value
			case fieldAuthor:
				pkg.Author = value
			case fieldAuthorEmail:
				pkg.AuthorEmail = value
			case fieldRequires:
				pkg.Requires = value
			}
		},
		OnPair: func(field, label, url string) {
			if field == fieldLinks {
				pkg.Links = append(pkg.Links, Link{Label: label, URL: url})
			}
		},
	}

	if err := scan.New(cfg).Run(r); err != nil {
		return nil, err
	}
	return pkg, nil
}
