// Root command for the traitctl CLI.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// cli holds the global flag values and the state shared by subcommands.
type cli struct {
	configDir  string
	configFile string
	verbose    bool

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "traitctl",
		Short:         "traitctl inspects trait-based application configuration",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.setupLogging(cmd)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/traitctl)")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "configuration file (default: <config-dir>/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug records to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(c),
		newDescribeCmd(),
		newShowCmd(c),
		newWatchCmd(c),
	)
	return root
}

// setupLogging installs a text logger on stderr and routes the trait
// engine's debug records to it when --verbose is set.
func (c *cli) setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if c.verbose {
		traits.SetLogger(c.logger)
	} else {
		traits.SetLogger(nil)
	}
}
