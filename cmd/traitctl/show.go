// Show command for the traitctl CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/traitkit/internal/appconfig"
	"github.com/mesh-intelligence/traitkit/internal/configure"
	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

func newShowCmd(c *cli) *cobra.Command {
	var (
		assignments []string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "show [class]",
		Short: "Show the effective trait values",
		Long: `Show builds one object per class, applies the config file, then the
--Class.trait flags, then --set assignments, and prints every trait value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := selectClasses(args)
			if err != nil {
				return err
			}
			_, objs, err := c.configuredObjects()
			if err != nil {
				return err
			}
			if err := configure.ApplyFlags(cmd.Flags(), objs...); err != nil {
				return err
			}
			settings, err := configure.ParseAssignments(assignments)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			if err := configure.ApplyAssignments(settings, objs...); err != nil {
				return err
			}
			values, err := collectValues(objs, classes)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), values)
			}
			writeText(cmd.OutOrStdout(), values)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "assign a trait: Class.trait=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	configure.BindFlags(cmd.Flags(), appconfig.Classes()...)
	return cmd
}

// configuredObjects loads the config file, creates one object per class and
// applies the file to them.
func (c *cli) configuredObjects() (*viper.Viper, []*traits.Object, error) {
	v, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	objs, err := appconfig.NewObjects()
	if err != nil {
		return nil, nil, err
	}
	if err := configure.ApplyViper(v, objs...); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", v.ConfigFileUsed(), err)
	}
	return v, objs, nil
}

// classValues is the formatted state of one object.
type classValues struct {
	Class  string
	Names  []string
	Values map[string]string
}

// collectValues formats every trait of the objects whose class is in classes.
// Reading a trait materializes its default.
func collectValues(objs []*traits.Object, classes []*traits.Class) ([]classValues, error) {
	var out []classValues
	for _, cls := range classes {
		for _, obj := range objs {
			if obj.Class() != cls {
				continue
			}
			cv := classValues{Class: cls.Name(), Names: obj.Names(), Values: make(map[string]string)}
			for _, name := range cv.Names {
				v, err := obj.Get(name)
				if err != nil {
					return nil, err
				}
				cv.Values[name] = formatValue(cls, name, v)
			}
			out = append(out, cv)
		}
	}
	return out, nil
}

func formatValue(cls *traits.Class, name string, v any) string {
	d, _ := cls.Trait(name)
	s, err := d.Format(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

func writeText(w io.Writer, values []classValues) {
	for i, cv := range values {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s]\n", cv.Class)
		for _, name := range cv.Names {
			fmt.Fprintf(w, "  %s = %s\n", name, cv.Values[name])
		}
	}
}

func writeJSON(w io.Writer, values []classValues) error {
	out := make(map[string]map[string]string, len(values))
	for _, cv := range values {
		out[cv.Class] = cv.Values
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
