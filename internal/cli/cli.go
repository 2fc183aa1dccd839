// Package cli implements the hoister command-line interface.
//
// Commands:
//   - install: resolve package.json and print or write the hoisted layout
//   - why: show the dependency chains that pull in a package
//   - graph: export the resolved graph or hoisted tree as DOT or SVG
//   - cache: inspect and clear the registry response cache
//   - version: print build information
//
// Every command reads hoister.toml from the project directory unless
// --config names another file. Flags override file values.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hoister/pkg/buildinfo"
	"github.com/matzehuels/hoister/pkg/observability"
)

// appName is used for directories and display.
const appName = "hoister"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	refresh    bool
}

// New creates a CLI logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Debug level also routes
// resolution, HTTP and cache events to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		h := &logHooks{logger: c.Logger}
		observability.Register(observability.Hooks{Resolve: h, Cache: h, HTTP: h})
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "hoister resolves and hoists JavaScript dependency trees",
		Long:         `hoister resolves the dependencies of a package.json against a registry and computes the flattened node_modules layout a package manager would install.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: <dir>/hoister.toml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the registry response cache")
	flags.BoolVar(&c.refresh, "refresh", false, "ignore cached registry responses")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.whyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/hoister/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

