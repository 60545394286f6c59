// Package cli implements the pip-ext command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/l1asis/pip-ext/internal/config"
	"github.com/l1asis/pip-ext/pkg/buildinfo"
	"github.com/l1asis/pip-ext/pkg/httputil"
	"github.com/l1asis/pip-ext/pkg/integrations"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	// Confirm asks the user a yes/no question. Commands fall back to "no"
	// when it is nil.
	Confirm Confirmer
}

// New creates a new CLI instance with a default logger and loaded
// configuration. A configuration error is logged and the defaults used;
// commands should still run when the config file is broken.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Confirm: askConfirm,
	}

	cfg, err := config.Load()
	if err != nil {
		c.Logger.Warnf("Ignoring config file %s: %v", config.Path(), err)
		cfg = config.Default()
	}
	c.Config = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pip-ext",
		Short:        "pip-ext extends pip with package research commands",
		Long:         `pip-ext is a companion CLI for pip: it looks packages up on the index, checks their health before installing, resolves their declared dependencies from the source repository, and reduces pip freeze output to the packages you actually asked for.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.freezeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newClient creates the shared page client for a command invocation.
func (c *CLI) newClient(noCache bool) *integrations.Client {
	var cache *httputil.Cache
	if !noCache {
		if fc, err := httputil.NewCache(config.CacheDir(), c.Config.CacheTTL()); err != nil {
			c.Logger.Warnf("Response cache disabled: %v", err)
		} else {
			cache = fc
		}
	}
	return integrations.NewClient(cache, integrations.NewHTTPClient(c.Config.Timeout()))
}

// interactive reports whether prompts can be shown.
func interactive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
