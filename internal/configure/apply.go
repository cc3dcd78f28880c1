// Package configure populates trait objects from configuration sources:
// plain maps, viper-loaded files and command-line flags.
//
// Every source is applied per object inside one HoldNotifications batch, so
// a bad value rolls back the whole section and observers see only the net
// changes of a good one.
package configure

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// Apply sets the configurable traits of obj from settings. String values are
// parsed with the trait's textual form; other values are validated as they
// are. Keys match trait names exactly or, failing that, case-insensitively,
// because viper folds keys to lower case.
func Apply(obj *traits.Object, settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	cls := obj.Class()
	configurable := cls.TraitNames(traits.Configurable())
	byFold := make(map[string]string, len(configurable))
	for _, name := range configurable {
		byFold[strings.ToLower(name)] = name
	}

	resolved := make(map[string]any, len(settings))
	for key, raw := range settings {
		name, ok := key, slices.Contains(configurable, key)
		if !ok {
			name, ok = byFold[strings.ToLower(key)]
		}
		if !ok {
			if cls.HasTrait(key) {
				return fmt.Errorf("%w: %s.%s is not configurable", traits.ErrUnknownTrait, cls.Name(), key)
			}
			return fmt.Errorf("%w: %s has no configurable trait %q", traits.ErrUnknownTrait, cls.Name(), key)
		}
		if _, exact := settings[name]; exact && name != key {
			continue
		}
		resolved[name] = raw
	}

	return obj.HoldNotifications(func() error {
		for _, name := range configurable {
			raw, ok := resolved[name]
			if !ok {
				continue
			}
			if err := set(obj, name, raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func set(obj *traits.Object, name string, raw any) error {
	if s, ok := raw.(string); ok {
		return obj.SetString(name, s)
	}
	return obj.Set(name, raw)
}

// ApplyViper applies the section named after each object's class.
// Objects whose class has no section are left alone.
func ApplyViper(v *viper.Viper, objs ...*traits.Object) error {
	for _, obj := range objs {
		section := obj.Class().Name()
		if !v.IsSet(section) {
			continue
		}
		if err := Apply(obj, v.GetStringMap(section)); err != nil {
			return fmt.Errorf("apply [%s]: %w", section, err)
		}
	}
	return nil
}

// ParseAssignments parses "Class.trait=value" strings into per-class
// settings. Values stay strings and are parsed by Apply.
func ParseAssignments(assignments []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("assignment %q: want Class.trait=value", a)
		}
		class, trait, ok := strings.Cut(strings.TrimSpace(key), ".")
		if !ok || class == "" || trait == "" {
			return nil, fmt.Errorf("assignment %q: want Class.trait=value", a)
		}
		if out[class] == nil {
			out[class] = make(map[string]any)
		}
		out[class][trait] = value
	}
	return out, nil
}

// ApplyAssignments applies parsed assignments to the objects whose class
// names they mention. An assignment for a class with no object is an error.
func ApplyAssignments(settings map[string]map[string]any, objs ...*traits.Object) error {
	byClass := make(map[string]*traits.Object, len(objs))
	for _, obj := range objs {
		byClass[obj.Class().Name()] = obj
	}
	for class, values := range settings {
		obj, ok := byClass[class]
		if !ok {
			return fmt.Errorf("%w: no object of class %s", traits.ErrUnknownTrait, class)
		}
		if err := Apply(obj, values); err != nil {
			return fmt.Errorf("apply %s: %w", class, err)
		}
	}
	return nil
}
