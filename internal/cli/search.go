package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l1asis/pip-ext/pkg/integrations"
	"github.com/l1asis/pip-ext/pkg/integrations/github"
	"github.com/l1asis/pip-ext/pkg/integrations/pypi"
	"github.com/l1asis/pip-ext/pkg/manifest"
)

// searchOpts holds the command-line flags for the search command.
type searchOpts struct {
	version string // pin the lookup to a release
	noCache bool   // bypass the response cache
	noDeps  bool   // skip repository dependency resolution
}

// searchCommand creates the search command: look a package up on the index,
// show its metadata, then resolve its declared dependencies from the source
// repository.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{}

	cmd := &cobra.Command{
		Use:   "search <package>",
		Short: "Look up a package on PyPI and resolve its dependencies",
		Long: `Look up a package on PyPI, show its project page metadata, and resolve
its declared dependencies from the linked source repository.

Without --version the repository's default branch is inspected; with it
the matching release tag is located first.

Examples:
  pip-ext search requests
  pip-ext search requests --version 2.31.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.version, "version", "", "look up a specific release")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the response cache")
	cmd.Flags().BoolVar(&opts.noDeps, "no-deps", false, "skip repository dependency resolution")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, name string, opts searchOpts) error {
	if !pypi.ValidName(name) {
		printError("%q is not a valid package name", name)
		return nil
	}

	client := c.newClient(opts.noCache)
	index := pypi.NewClient(client)

	pkg, err := c.fetchProject(ctx, index, name, opts.version)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			printError("Package %q not found on PyPI", name)
			return nil
		}
		return err
	}
	printPackage(pkg)

	if opts.noDeps {
		return nil
	}
	return c.resolveDependencies(ctx, client, pkg, opts.version)
}

// fetchProject looks the project up, consulting the index search for a
// spelling suggestion when the direct lookup misses.
func (c *CLI) fetchProject(ctx context.Context, index *pypi.Client, name, version string) (*pypi.Package, error) {
	pkg, err := index.FetchProject(ctx, name, version)
	if err == nil || !errors.Is(err, integrations.ErrNotFound) {
		return pkg, err
	}

	suggestion, serr := index.Suggestion(ctx, name)
	if serr != nil || suggestion == "" {
		return nil, err
	}
	if c.Confirm == nil || !c.Confirm(fmt.Sprintf("Did you mean %q?", suggestion)) {
		return nil, err
	}
	return index.FetchProject(ctx, suggestion, version)
}

// resolveDependencies follows the package's source link to its repository
// and prints the dependencies its manifests declare.
func (c *CLI) resolveDependencies(ctx context.Context, client *integrations.Client, pkg *pypi.Package, version string) error {
	src, ok := github.SelectSource(pkg.LinkURLs())
	if !ok {
		printWarning("No GitHub source link on the project page; cannot resolve dependencies")
		return nil
	}
	printNewline()
	printInfo("Source: %s", StyleLink.Render("https://"+src.Host+"/"+src.Path()))

	gh := github.NewClient(client)

	spin := newSpinner(ctx, "Resolving repository reference...")
	spin.Start()
	ref, err := gh.Resolve(ctx, src, version)
	spin.Stop()
	if err != nil {
		switch {
		case errors.Is(err, integrations.ErrNotFound) && version != "":
			printWarning("No release tag matching %q in %s", version, src.Path())
			return nil
		case errors.Is(err, integrations.ErrNotFound):
			printWarning("Repository %s not found", src.Path())
			return nil
		}
		return err
	}

	kind := "branch"
	if ref.IsTag {
		kind = "tag"
	}
	printDetail("Using %s %s", kind, ref.Name)

	spin = newSpinner(ctx, "Fetching manifests...")
	spin.Start()
	res, err := manifest.Fetch(ctx, client, gh.RawBase(src, ref))
	spin.Stop()
	if err != nil {
		return err
	}
	printManifest(res)
	return nil
}

func printPackage(pkg *pypi.Package) {
	printNewline()
	fmt.Println(StyleTitle.Render(pkg.Name) + " " + StyleValue.Render(pkg.Version))
	if pkg.Summary != "" {
		printDetail("%s", pkg.Summary)
	}
	printNewline()

	for _, row := range packageRows(pkg) {
		printKeyValue(row[0], row[1])
	}

	if len(pkg.Links) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Project links"))
		for _, l := range pkg.Links {
			printLink(l.Label, l.URL)
		}
	}
}

// packageRows returns the labeled metadata rows for display. Project pages
// don't carry every field for every package; absent ones are skipped rather
// than printed blank.
func packageRows(pkg *pypi.Package) [][2]string {
	var rows [][2]string
	for _, row := range [][2]string{
		{"Released", pkg.Release},
		{"License", pkg.License},
		{"Author", pkg.Author},
		{"Author email", pkg.AuthorEmail},
		{"Requires", pkg.Requires},
	} {
		if row[1] != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

func printManifest(res *manifest.Result) {
	if res.Empty() {
		printWarning("No dependencies declared in the repository manifests")
		return
	}

	printNewline()
	fmt.Println(StyleTitle.Render("Dependencies") + " " + StyleDim.Render("("+res.Source+")"))
	for _, req := range res.Requirements {
		printDetail("%s", req)
	}
	for _, extra := range res.Extras {
		printNewline()
		fmt.Println(StyleTitle.Render("Optional: "+extra.Name) + " " + StyleDim.Render("("+res.Source+")"))
		for _, req := range extra.Requirements {
			printDetail("%s", req)
		}
	}
}
