// Describe command for the traitctl CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitkit/internal/appconfig"
	"github.com/mesh-intelligence/traitkit/internal/docgen"
	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

func newDescribeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "describe [class]",
		Short: "Describe the configurable traits of a class",
		Long: `Describe prints the configurable traits of one class, or of every class
when none is named, with their accepted values and defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := selectClasses(args)
			if err != nil {
				return err
			}
			parts := make([]string, 0, len(classes))
			for _, cls := range classes {
				out, err := docgen.Render(format, cls)
				if err != nil {
					return fmt.Errorf("%w: %v", errUsage, err)
				}
				parts = append(parts, out)
			}
			sep := "\n"
			if format == docgen.FormatYAML {
				sep = "---\n"
			}
			fmt.Fprint(cmd.OutOrStdout(), strings.Join(parts, sep))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", docgen.FormatText, "output format: text, rst or yaml")
	return cmd
}

// selectClasses returns the class named in args, or every class.
func selectClasses(args []string) ([]*traits.Class, error) {
	if len(args) == 0 {
		return appconfig.Classes(), nil
	}
	cls, ok := appconfig.Lookup(args[0])
	if !ok {
		names := make([]string, 0, len(appconfig.Classes()))
		for _, c := range appconfig.Classes() {
			names = append(names, c.Name())
		}
		return nil, fmt.Errorf("%w: unknown class %q (want one of %s)", errUsage, args[0], strings.Join(names, ", "))
	}
	return []*traits.Class{cls}, nil
}
