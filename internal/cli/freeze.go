package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l1asis/pip-ext/pkg/freeze"
	"github.com/l1asis/pip-ext/pkg/inventory"
	"github.com/l1asis/pip-ext/pkg/pep508"
)

// freezeOpts holds the command-line flags for the compact-freeze command.
type freezeOpts struct {
	noVersion bool   // omit the ==version suffix
	python    string // interpreter whose environment is inspected
}

// freezeCommand creates the compact-freeze command: reduce the installed
// packages to the roots nothing else depends on, the set a hand-written
// requirements.txt would contain.
func (c *CLI) freezeCommand() *cobra.Command {
	opts := freezeOpts{}

	cmd := &cobra.Command{
		Use:   "compact-freeze",
		Short: "List only the packages nothing else depends on",
		Long: `List the installed packages nothing else installed depends on.

pip freeze prints every installed distribution; this command removes the
ones that are only present as dependencies of others, leaving the set you
would put in a requirements.txt. Packages pulled in through extras decorate
their dependent as "package[extra]".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFreeze(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noVersion, "no-version", false, "omit version pins from the output")
	cmd.Flags().StringVar(&opts.python, "python", "", "interpreter whose environment to inspect (default from config)")

	return cmd
}

func (c *CLI) runFreeze(ctx context.Context, opts freezeOpts) error {
	python := opts.python
	if python == "" {
		python = c.Config.Python
	}

	spin := newSpinner(ctx, "Inspecting installed packages...")
	spin.Start()
	dists, err := inventory.Installed(ctx, python)
	spin.Stop()
	if err != nil {
		return err
	}
	if len(dists) == 0 {
		printInfo("No packages installed")
		return nil
	}

	lines := freeze.Reduce(dists, freeze.Options{
		WithVersion: !opts.noVersion,
		Env:         markerEnv(c.Config.PythonVersion),
		Logf:        c.Logger.Debugf,
	})

	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

// markerEnv overlays the configured interpreter version on the default
// marker environment. Both version variables must track the configured
// interpreter, or a marker written against python_full_version would be
// judged for a different interpreter than one written against
// python_version.
func markerEnv(version string) pep508.Environment {
	return pep508.Default().
		With("python_version", version).
		With("python_full_version", version+".0")
}
