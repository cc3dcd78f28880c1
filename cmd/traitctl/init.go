// Init command for the traitctl CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configPath()
			if err != nil {
				return err
			}
			created, err := ensureDefaultConfigFile(path)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "config already exists:", path)
			}
			return nil
		},
	}
}
