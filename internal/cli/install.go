package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l1asis/pip-ext/pkg/integrations"
	"github.com/l1asis/pip-ext/pkg/integrations/advisor"
	"github.com/l1asis/pip-ext/pkg/integrations/pypi"
	"github.com/l1asis/pip-ext/pkg/pep508"
)

// installCommand creates the careful-install command: show a package's
// health report before the user decides to install it. The command never
// runs pip itself; it stops at the report and the suggested next step.
func (c *CLI) installCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "careful-install <requirement>",
		Short: "Check a package's health report before installing",
		Long: `Check a package's health report on Snyk Advisor before installing it.

The argument is a pip requirement string; only its package name is used
for the lookup.

Examples:
  pip-ext careful-install requests
  pip-ext careful-install "requests>=2.31"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")

	return cmd
}

func (c *CLI) runInstall(ctx context.Context, requirement string, noCache bool) error {
	req, err := pep508.Parse(requirement)
	if err != nil {
		printError("Cannot parse requirement %q: %v", requirement, err)
		return nil
	}

	client := c.newClient(noCache)
	adv := advisor.NewClient(client)

	spin := newSpinner(ctx, "Fetching health report...")
	spin.Start()
	health, err := adv.FetchHealth(ctx, req.Name)
	spin.Stop()

	if err != nil && errors.Is(err, integrations.ErrNotFound) {
		health, err = c.retrySuggested(ctx, client, req.Name, noCache)
	}
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			printError("No health report for %q", req.Name)
			return nil
		}
		return err
	}

	printHealth(req.Name, health)
	printNewline()
	printDetail("To install: pip install %s", requirement)
	return nil
}

// retrySuggested consults the index search for a spelling correction and,
// if the user accepts it, retries the advisor lookup under that name.
func (c *CLI) retrySuggested(ctx context.Context, client *integrations.Client, name string, noCache bool) (*advisor.Health, error) {
	suggestion, err := pypi.NewClient(client).Suggestion(ctx, name)
	if err != nil || suggestion == "" {
		return nil, fmt.Errorf("%w: advisor page for %q", integrations.ErrNotFound, name)
	}
	if c.Confirm == nil || !c.Confirm(fmt.Sprintf("Did you mean %q?", suggestion)) {
		return nil, fmt.Errorf("%w: advisor page for %q", integrations.ErrNotFound, name)
	}
	return advisor.NewClient(client).FetchHealth(ctx, suggestion)
}

func printHealth(name string, health *advisor.Health) {
	printNewline()
	fmt.Println(StyleTitle.Render(name))
	printNewline()

	for _, label := range advisor.Labels {
		if value := health.Get(label); value != "" {
			printKeyValue(label, value)
		}
	}
	if latest := health.Get(advisor.LatestVersionLabel); latest != "" {
		printKeyValue(advisor.LatestVersionLabel, latest)
	}
}
