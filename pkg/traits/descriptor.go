// Trait descriptors: the typed, named slot definitions that classes
// register and objects hold values for.
package traits

import (
	"errors"
	"maps"
	"strings"
)

// MetadataConfig marks a trait as settable from configuration sources.
const MetadataConfig = "config"

// Descriptor defines one trait: its name, kind, static default, flags and
// metadata. A descriptor is frozen once the class declaring it is built.
type Descriptor struct {
	name         string
	kind         Kind
	def          any
	defFunc      func() any
	allowNone    bool
	readOnly     bool
	alwaysNotify bool
	help         string
	metadata     map[string]any
	class        *Class
}

// Option configures a Descriptor at declaration time.
type Option func(*Descriptor)

// WithDefault sets a static default value.
func WithDefault(v any) Option {
	return func(d *Descriptor) { d.def = v }
}

// WithDefaultFunc sets a nullary factory for the static default. It is
// called once per object, the first time the default is needed.
func WithDefaultFunc(fn func() any) Option {
	return func(d *Descriptor) { d.defFunc = fn }
}

// AllowNone lets the trait hold nil.
func AllowNone() Option {
	return func(d *Descriptor) { d.allowNone = true }
}

// ReadOnly rejects writes through Object.Set. Object.ForceSet still works.
func ReadOnly() Option {
	return func(d *Descriptor) { d.readOnly = true }
}

// AlwaysNotify emits a change record on every write, even when the value is
// unchanged.
func AlwaysNotify() Option {
	return func(d *Descriptor) { d.alwaysNotify = true }
}

// Help sets the help text used by documentation generators.
func Help(text string) Option {
	return func(d *Descriptor) { d.help = text }
}

// Config tags the trait as configurable.
func Config() Option {
	return WithTag(MetadataConfig, true)
}

// WithTag adds one metadata entry.
func WithTag(key string, value any) Option {
	return func(d *Descriptor) { d.metadata[key] = value }
}

// Declare creates a descriptor. It is not usable until a class built with
// ClassBuilder.Trait declares it.
func Declare(name string, kind Kind, opts ...Option) *Descriptor {
	d := &Descriptor{
		name:     name,
		kind:     kind,
		def:      Undefined,
		metadata: make(map[string]any),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the trait name.
func (d *Descriptor) Name() string { return d.name }

// Kind returns the value kind.
func (d *Descriptor) Kind() Kind { return d.kind }

// DeclaredBy returns the class that declared this descriptor, or nil before
// the class is built.
func (d *Descriptor) DeclaredBy() *Class { return d.class }

// AllowsNone reports whether nil is accepted.
func (d *Descriptor) AllowsNone() bool { return d.allowNone }

// IsReadOnly reports whether normal writes are rejected.
func (d *Descriptor) IsReadOnly() bool { return d.readOnly }

// HelpText returns the help text.
func (d *Descriptor) HelpText() string { return d.help }

// Metadata returns a copy of the metadata map.
func (d *Descriptor) Metadata() map[string]any { return maps.Clone(d.metadata) }

// MetadataValue returns one metadata entry.
func (d *Descriptor) MetadataValue(key string) (any, bool) {
	v, ok := d.metadata[key]
	return v, ok
}

// Tag attaches metadata. An undeclared descriptor is changed in place and
// returned; a declared one is frozen, so Tag returns an undeclared copy
// carrying the merged metadata, ready to be declared by another class.
func (d *Descriptor) Tag(entries map[string]any) *Descriptor {
	target := d
	if d.class != nil {
		target = d.clone()
	}
	maps.Copy(target.metadata, entries)
	return target
}

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.metadata = maps.Clone(d.metadata)
	c.class = nil
	return &c
}

// StaticDefault returns the descriptor's own default: the static value, else
// the factory result, else the kind's default. Undefined means there is
// none, except that a trait allowing nil defaults to nil.
func (d *Descriptor) StaticDefault() any {
	v := d.def
	if IsUndefined(v) && d.defFunc != nil {
		v = d.defFunc()
	}
	if IsUndefined(v) {
		v = d.kind.Default()
	}
	if IsUndefined(v) && d.allowNone {
		return nil
	}
	return v
}

// Validate type-validates v for the given owner and returns the value to
// store. Cross validators are not run.
func (d *Descriptor) Validate(owner *Object, v any) (any, error) {
	className := ""
	switch {
	case owner != nil:
		className = owner.class.name
	case d.class != nil:
		className = d.class.name
	}
	return d.validate(className, v)
}

func (d *Descriptor) validate(className string, v any) (any, error) {
	if v == nil && d.allowNone {
		return nil, nil
	}
	out, err := d.kind.Validate(v)
	if err != nil {
		return nil, d.mismatchError(className, v, err)
	}
	return out, nil
}

// mismatchError wraps a kind-level failure with class and trait context.
func (d *Descriptor) mismatchError(className string, v any, err error) error {
	tm := &TypeMismatchError{
		Class:    className,
		Trait:    d.name,
		Expected: d.InfoText(),
		Value:    v,
		Cause:    err,
	}
	var ke *kindError
	if errors.As(err, &ke) {
		tm.Cause = ke.cause
	}
	return tm
}

// FromString parses the textual form used by command-line and file
// sources. "None" parses to nil when the trait allows nil.
func (d *Descriptor) FromString(s string) (any, error) {
	if d.allowNone && strings.TrimSpace(s) == "None" {
		return nil, nil
	}
	v, err := d.kind.FromString(s)
	if err != nil {
		if errors.Is(err, ErrNoTextForm) {
			return nil, err
		}
		return nil, d.mismatchError(d.className(), s, err)
	}
	return d.validate(d.className(), v)
}

// Format renders v in the textual form FromString accepts.
func (d *Descriptor) Format(v any) (string, error) {
	if v == nil {
		return "None", nil
	}
	return d.kind.Format(v)
}

// InfoText describes the accepted values in plain text.
func (d *Descriptor) InfoText() string {
	info := d.kind.Info()
	if d.allowNone {
		info += " or None"
	}
	return info
}

// InfoRST describes the accepted values in reStructuredText.
func (d *Descriptor) InfoRST() string {
	info := d.kind.Info()
	if r, ok := d.kind.(rstInfo); ok {
		info = r.InfoRST()
	}
	if d.allowNone {
		info += " or None"
	}
	return info
}

func (d *Descriptor) className() string {
	if d.class == nil {
		return ""
	}
	return d.class.name
}
