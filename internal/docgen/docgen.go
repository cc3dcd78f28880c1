// Package docgen renders the configurable traits of a class as help text,
// reStructuredText, a YAML description and a commented config template.
package docgen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// computedDefault is shown for traits whose default comes from a generator.
const computedDefault = "<computed>"

// Formats accepted by Render.
const (
	FormatText = "text"
	FormatRST  = "rst"
	FormatYAML = "yaml"
)

// Render dispatches to the renderer for format.
func Render(format string, cls *traits.Class) (string, error) {
	switch format {
	case FormatText, "":
		return ClassHelp(cls), nil
	case FormatRST:
		return ClassRST(cls), nil
	case FormatYAML:
		return ClassYAML(cls)
	}
	return "", fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatRST, FormatYAML)
}

// title returns "Server(Application)".
func title(cls *traits.Class) string {
	parents := cls.Parents()
	if len(parents) == 0 {
		return cls.Name()
	}
	names := make([]string, len(parents))
	for i, p := range parents {
		names[i] = p.Name()
	}
	return cls.Name() + "(" + strings.Join(names, ", ") + ")"
}

// placeholder returns the "<int>" part of "--Server.port=<int>".
func placeholder(d *traits.Descriptor) string {
	return "<" + string(d.Kind().ValueKind()) + ">"
}

// defaultText renders the default of a trait, validated and formatted the
// way a config file would spell it.
func defaultText(cls *traits.Class, d *traits.Descriptor) string {
	if cls.HasGenerator(d.Name()) {
		return computedDefault
	}
	raw := d.StaticDefault()
	if traits.IsUndefined(raw) {
		return ""
	}
	v, err := d.Validate(nil, raw)
	if err != nil {
		return ""
	}
	s, err := d.Format(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// ClassHelp renders the configurable traits of cls as command-line help.
func ClassHelp(cls *traits.Class) string {
	var b strings.Builder
	head := title(cls) + " options"
	b.WriteString(head + "\n" + strings.Repeat("-", len(head)) + "\n")
	for _, name := range cls.TraitNames(traits.Configurable()) {
		d, _ := cls.Trait(name)
		fmt.Fprintf(&b, "--%s.%s=%s\n", cls.Name(), name, placeholder(d))
		if help := d.HelpText(); help != "" {
			fmt.Fprintf(&b, "    %s\n", help)
		}
		fmt.Fprintf(&b, "    Accepts: %s\n", d.InfoText())
		if def := defaultText(cls, d); def != "" {
			fmt.Fprintf(&b, "    Default: %s\n", def)
		}
	}
	return b.String()
}

// ClassRST renders the configurable traits of cls as reStructuredText.
func ClassRST(cls *traits.Class) string {
	var b strings.Builder
	head := title(cls)
	b.WriteString(head + "\n" + strings.Repeat("=", len(head)) + "\n")
	for _, name := range cls.TraitNames(traits.Configurable()) {
		d, _ := cls.Trait(name)
		fmt.Fprintf(&b, "\n.. option:: --%s.%s=%s\n\n", cls.Name(), name, placeholder(d))
		if help := d.HelpText(); help != "" {
			fmt.Fprintf(&b, "    %s\n\n", help)
		}
		fmt.Fprintf(&b, "    :trait type: %s\n", d.InfoRST())
		if def := defaultText(cls, d); def != "" {
			fmt.Fprintf(&b, "    :default: ``%s``\n", def)
		}
	}
	return b.String()
}

// TraitDoc is the YAML description of one trait.
type TraitDoc struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	Accepts      string `yaml:"accepts"`
	Help         string `yaml:"help,omitempty"`
	Default      string `yaml:"default,omitempty"`
	Configurable bool   `yaml:"configurable"`
	ReadOnly     bool   `yaml:"read_only,omitempty"`
	AllowNone    bool   `yaml:"allow_none,omitempty"`
	DeclaredBy   string `yaml:"declared_by"`
}

// ClassDoc is the YAML description of a class.
type ClassDoc struct {
	Name    string     `yaml:"name"`
	Parents []string   `yaml:"parents,omitempty"`
	Traits  []TraitDoc `yaml:"traits"`
}

// Describe builds the description of every trait of cls.
func Describe(cls *traits.Class) ClassDoc {
	doc := ClassDoc{Name: cls.Name()}
	for _, p := range cls.Parents() {
		doc.Parents = append(doc.Parents, p.Name())
	}
	for _, name := range cls.TraitNames() {
		d, _ := cls.Trait(name)
		_, configurable := d.MetadataValue(traits.MetadataConfig)
		td := TraitDoc{
			Name:         name,
			Kind:         string(d.Kind().ValueKind()),
			Accepts:      d.InfoText(),
			Help:         d.HelpText(),
			Default:      defaultText(cls, d),
			Configurable: configurable,
			ReadOnly:     d.IsReadOnly(),
			AllowNone:    d.AllowsNone(),
		}
		if owner := d.DeclaredBy(); owner != nil {
			td.DeclaredBy = owner.Name()
		}
		doc.Traits = append(doc.Traits, td)
	}
	return doc
}

// ClassYAML renders Describe(cls) as YAML.
func ClassYAML(cls *traits.Class) (string, error) {
	out, err := yaml.Marshal(Describe(cls))
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", cls.Name(), err)
	}
	return string(out), nil
}

// ConfigTemplate renders a config file for classes with every configurable
// trait commented out at its default value.
func ConfigTemplate(header string, classes ...*traits.Class) (string, error) {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(header), "\n") {
		if line != "" {
			b.WriteString("# " + line + "\n")
		}
	}
	for _, cls := range classes {
		names := cls.TraitNames(traits.Configurable())
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n# %s options\n# %s:\n", title(cls), cls.Name())
		for _, name := range names {
			d, _ := cls.Trait(name)
			if help := d.HelpText(); help != "" {
				fmt.Fprintf(&b, "#   # %s\n", help)
			}
			def := defaultText(cls, d)
			if def == "" || def == computedDefault {
				fmt.Fprintf(&b, "#   %s:\n", name)
				continue
			}
			value, err := yaml.Marshal(def)
			if err != nil {
				return "", fmt.Errorf("marshal default of %s.%s: %w", cls.Name(), name, err)
			}
			fmt.Fprintf(&b, "#   %s: %s\n", name, strings.TrimSpace(string(value)))
		}
	}
	return b.String(), nil
}
