// Package cli implements the bannerman command-line interface.
//
// Commands map onto the manager's lifecycle: refresh rescans and resolves
// the load order, sort previews a resolution without persisting, sync moves
// configuration files between the live and profile trees, hook runs the
// lifecycle triggers a mod organizer fires, graph exports the constraint
// graph and watch re-triggers refreshes on filesystem changes.
//
// All commands support --verbose (-v) for debug-level logging and --config
// for a settings file overriding the compiled-in defaults.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/knightfall-dh/bannerman/pkg/buildinfo"
	"github.com/knightfall-dh/bannerman/pkg/config"
	"github.com/knightfall-dh/bannerman/pkg/manager"
)

// appName is the application name used for display and completion scripts.
const appName = "bannerman"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Bannerman resolves and maintains Bannerlord mod load orders",
		Long:         `Bannerman scans module descriptors, resolves a dependency-correct load order, persists the launcher data document and keeps per-profile configuration files in sync with the game's live tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (TOML)")

	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.sortCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.hookCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadSettings reads the settings file named by --config, or the defaults.
func (c *CLI) loadSettings() (config.Settings, error) {
	return config.Load(c.configPath)
}

// newManager assembles a manager from the effective settings.
func (c *CLI) newManager() (*manager.Manager, error) {
	cfg, err := c.loadSettings()
	if err != nil {
		return nil, err
	}
	return manager.New(cfg, c.Logger), nil
}
