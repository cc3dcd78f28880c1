package configure

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// FlagName returns the command-line flag for a trait: "Class.trait".
func FlagName(cls *traits.Class, trait string) string {
	return cls.Name() + "." + trait
}

// BindFlags registers one string flag per configurable trait of each class.
// The usage text is the trait's help followed by the accepted values.
func BindFlags(fs *pflag.FlagSet, classes ...*traits.Class) {
	for _, cls := range classes {
		for _, name := range cls.TraitNames(traits.Configurable()) {
			d, _ := cls.Trait(name)
			usage := d.InfoText()
			if help := d.HelpText(); help != "" {
				usage = help + " (" + usage + ")"
			}
			fs.String(FlagName(cls, name), "", usage)
		}
	}
}

// ApplyFlags applies the trait flags that were set on the command line,
// one batch per object.
func ApplyFlags(fs *pflag.FlagSet, objs ...*traits.Object) error {
	settings := make(map[string]map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		class, trait, ok := strings.Cut(f.Name, ".")
		if !ok {
			return
		}
		if settings[class] == nil {
			settings[class] = make(map[string]any)
		}
		settings[class][trait] = f.Value.String()
	})

	for _, obj := range objs {
		values, ok := settings[obj.Class().Name()]
		if !ok {
			continue
		}
		if err := Apply(obj, values); err != nil {
			return fmt.Errorf("flags for %s: %w", obj.Class().Name(), err)
		}
	}
	return nil
}
