// Classes: immutable trait registries merged along the C3 linearization of
// their parents, with per-class default generators, cross validators and
// static observers.
package traits

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultFunc computes a trait's default for one object.
type DefaultFunc func(o *Object) (any, error)

// ValidatorFunc cross-validates a proposed value. It may read other traits
// of p.Owner and returns the value to commit.
type ValidatorFunc func(p Proposal) (any, error)

// ObserverFunc receives committed changes.
type ObserverFunc func(c ChangeRecord) error

// Proposal is a value on its way through cross validation.
type Proposal struct {
	Trait *Descriptor
	Value any
	Owner *Object
}

// MetadataFilter selects descriptors by their metadata.
type MetadataFilter func(d *Descriptor) bool

// Tagged matches descriptors whose metadata entry key equals value.
func Tagged(key string, value any) MetadataFilter {
	return func(d *Descriptor) bool {
		v, ok := d.metadata[key]
		return ok && valuesEqual(v, value)
	}
}

// HasMetadata matches descriptors carrying key, whatever its value.
func HasMetadata(key string) MetadataFilter {
	return func(d *Descriptor) bool {
		_, ok := d.metadata[key]
		return ok
	}
}

// Configurable matches traits tagged with Config.
func Configurable() MetadataFilter {
	return Tagged(MetadataConfig, true)
}

func matchAll(d *Descriptor, filters []MetadataFilter) bool {
	for _, f := range filters {
		if !f(d) {
			return false
		}
	}
	return true
}

type validatorEntry struct {
	fn    ValidatorFunc
	names []string
}

type staticObserver struct {
	fn    ObserverFunc
	names []string
	kind  string
}

func (s staticObserver) matches(name, kind string) bool {
	if s.kind != All && s.kind != kind {
		return false
	}
	for _, n := range s.names {
		if n == All || n == name {
			return true
		}
	}
	return false
}

// Class is a built trait registry. It is immutable and safe to share.
type Class struct {
	id        string
	name      string
	parents   []*Class
	mro       []*Class
	synthetic bool

	own      map[string]*Descriptor
	ownOrder []string

	order  []string
	traits map[string]*Descriptor

	generators map[string]DefaultFunc
	validators []validatorEntry
	observers  []staticObserver

	// Resolved along the linearization at build time.
	defaults    map[string]DefaultFunc
	crossChecks map[string][]ValidatorFunc
	staticObs   []staticObserver
}

// ClassBuilder collects the declarations of one class.
type ClassBuilder struct {
	name       string
	parents    []*Class
	own        []*Descriptor
	generators map[string]DefaultFunc
	genOrder   []string
	validators []validatorEntry
	observers  []staticObserver
	synthetic  bool
}

// NewClass starts a class with the given parents, most significant first.
func NewClass(name string, parents ...*Class) *ClassBuilder {
	return &ClassBuilder{
		name:       name,
		parents:    parents,
		generators: make(map[string]DefaultFunc),
	}
}

// Trait declares descriptors on the class. Declaring a name that a parent
// already has replaces the inherited descriptor. The class keeps its own
// frozen copies, so one declaration can be reused by several classes.
func (b *ClassBuilder) Trait(ds ...*Descriptor) *ClassBuilder {
	b.own = append(b.own, ds...)
	return b
}

// Default binds a default generator to a trait name.
func (b *ClassBuilder) Default(name string, fn DefaultFunc) *ClassBuilder {
	if _, ok := b.generators[name]; !ok {
		b.genOrder = append(b.genOrder, name)
	}
	b.generators[name] = fn
	return b
}

// Validate binds a cross validator to one or more trait names.
func (b *ClassBuilder) Validate(fn ValidatorFunc, names ...string) *ClassBuilder {
	b.validators = append(b.validators, validatorEntry{fn: fn, names: names})
	return b
}

// Observe binds a static observer. A nil names slice means All; an empty
// kind means KindChange.
func (b *ClassBuilder) Observe(fn ObserverFunc, names []string, kind string) *ClassBuilder {
	b.observers = append(b.observers, staticObserver{fn: fn, names: normalizeNames(names), kind: normalizeKind(kind)})
	return b
}

// MustBuild is Build for package-level class definitions; it panics on error.
func (b *ClassBuilder) MustBuild() *Class {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Build validates the declarations, linearizes the hierarchy and resolves
// defaults, validators and observers for every trait.
func (b *ClassBuilder) Build() (*Class, error) {
	if b.name == "" || strings.ContainsAny(b.name, ".#") {
		return nil, fmt.Errorf("%w: class name %q", ErrInvalidName, b.name)
	}
	c := &Class{
		id:         b.name,
		name:       b.name,
		parents:    slices.Clone(b.parents),
		synthetic:  b.synthetic,
		own:        make(map[string]*Descriptor, len(b.own)),
		generators: make(map[string]DefaultFunc, len(b.generators)),
		validators: slices.Clone(b.validators),
		observers:  slices.Clone(b.observers),
	}
	if b.synthetic {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating class id: %w", err)
		}
		c.id = b.name + "#" + id.String()
	}
	for _, d := range b.own {
		if d == nil || d.kind == nil {
			return nil, fmt.Errorf("%w: class %s", ErrInvalidKind, b.name)
		}
		if d.name == "" || strings.Contains(d.name, ".") || d.name == All {
			return nil, fmt.Errorf("%w: trait %q of class %s", ErrInvalidName, d.name, b.name)
		}
		if _, dup := c.own[d.name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateTrait, b.name, d.name)
		}
		d = d.clone()
		d.class = c
		c.own[d.name] = d
		c.ownOrder = append(c.ownOrder, d.name)
	}

	mro, err := linearize(c)
	if err != nil {
		return nil, err
	}
	c.mro = mro
	c.mergeTraits()

	for _, name := range b.genOrder {
		if _, ok := c.traits[name]; !ok {
			return nil, &UnknownTraitError{Class: c.name, Trait: name}
		}
		c.generators[name] = b.generators[name]
	}
	for _, v := range c.validators {
		if err := c.checkNames(v.names, false); err != nil {
			return nil, err
		}
	}
	for _, o := range c.observers {
		if err := c.checkNames(o.names, true); err != nil {
			return nil, err
		}
	}
	c.resolve()

	if c.synthetic {
		logger.Debug("built synthetic class", "class", c.id, "traits", len(c.own))
	}
	return c, nil
}

func (c *Class) checkNames(names []string, allowAll bool) error {
	if len(names) == 0 && !allowAll {
		return fmt.Errorf("%w: validator of class %s names no traits", ErrInvalidName, c.name)
	}
	for _, n := range names {
		if n == All && allowAll {
			continue
		}
		if _, ok := c.traits[n]; !ok {
			return &UnknownTraitError{Class: c.name, Trait: n}
		}
	}
	return nil
}

// linearize computes the C3 method resolution order of c.
func linearize(c *Class) ([]*Class, error) {
	seqs := make([][]*Class, 0, len(c.parents)+1)
	for _, p := range c.parents {
		if p == nil {
			return nil, fmt.Errorf("%w: nil parent of %s", ErrInconsistentHierarchy, c.name)
		}
		seqs = append(seqs, slices.Clone(p.mro))
	}
	seqs = append(seqs, slices.Clone(c.parents))

	out := []*Class{c}
	for {
		seqs = slices.DeleteFunc(seqs, func(s []*Class) bool { return len(s) == 0 })
		if len(seqs) == 0 {
			return out, nil
		}
		var next *Class
		for _, s := range seqs {
			head := s[0]
			if !inTail(head, seqs) {
				next = head
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: no consistent order for the parents of %s", ErrInconsistentHierarchy, c.name)
		}
		out = append(out, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, s := range seqs {
		if slices.Contains(s[1:], c) {
			return true
		}
	}
	return false
}

// mergeTraits builds the registry from least derived to most derived, so a
// name keeps the position of its first declaration and the most derived
// descriptor wins.
func (c *Class) mergeTraits() {
	c.traits = make(map[string]*Descriptor)
	c.order = nil
	for i := len(c.mro) - 1; i >= 0; i-- {
		k := c.mro[i]
		for _, name := range k.ownOrder {
			if _, seen := c.traits[name]; !seen {
				c.order = append(c.order, name)
			}
			c.traits[name] = k.own[name]
		}
	}
}

// scope returns the classes whose generators and validators apply to name:
// the linearization from c up to and including the nearest class that
// declares name.
func (c *Class) scope(name string) []*Class {
	for i, k := range c.mro {
		if _, ok := k.own[name]; ok {
			return c.mro[:i+1]
		}
	}
	return c.mro
}

func (c *Class) resolve() {
	c.defaults = make(map[string]DefaultFunc)
	c.crossChecks = make(map[string][]ValidatorFunc)
	for _, name := range c.order {
		scope := c.scope(name)
		for _, k := range scope {
			if fn, ok := k.generators[name]; ok {
				c.defaults[name] = fn
				break
			}
		}
		for i := len(scope) - 1; i >= 0; i-- {
			for _, v := range scope[i].validators {
				if slices.Contains(v.names, name) {
					c.crossChecks[name] = append(c.crossChecks[name], v.fn)
				}
			}
		}
	}
	for i := len(c.mro) - 1; i >= 0; i-- {
		c.staticObs = append(c.staticObs, c.mro[i].observers...)
	}
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// ID returns the class identity. It equals Name except for synthetic
// classes built by AddTraits, which carry a unique suffix.
func (c *Class) ID() string { return c.id }

// Synthetic reports whether the class was built by AddTraits.
func (c *Class) Synthetic() bool { return c.synthetic }

// Parents returns the direct parents.
func (c *Class) Parents() []*Class { return slices.Clone(c.parents) }

// Linearization returns the C3 order, starting with c itself.
func (c *Class) Linearization() []*Class { return slices.Clone(c.mro) }

// IsSubclassOf reports whether other appears in c's linearization.
func (c *Class) IsSubclassOf(other *Class) bool {
	return slices.Contains(c.mro, other)
}

// HasTrait reports whether the class has a trait named name.
func (c *Class) HasTrait(name string) bool {
	_, ok := c.traits[name]
	return ok
}

// Trait returns the effective descriptor for name.
func (c *Class) Trait(name string) (*Descriptor, bool) {
	d, ok := c.traits[name]
	return d, ok
}

// HasGenerator reports whether the default for name comes from a default
// generator rather than the descriptor's static default.
func (c *Class) HasGenerator(name string) bool {
	return c.defaults[name] != nil
}

// Traits returns the effective descriptors that pass every filter.
func (c *Class) Traits(filters ...MetadataFilter) map[string]*Descriptor {
	out := make(map[string]*Descriptor)
	for name, d := range c.traits {
		if matchAll(d, filters) {
			out[name] = d
		}
	}
	return out
}

// TraitNames returns the names of matching traits in declaration order.
func (c *Class) TraitNames(filters ...MetadataFilter) []string {
	out := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if matchAll(c.traits[name], filters) {
			out = append(out, name)
		}
	}
	return out
}

// OwnTraits returns the matching descriptors declared by c itself.
func (c *Class) OwnTraits(filters ...MetadataFilter) map[string]*Descriptor {
	out := make(map[string]*Descriptor)
	for name, d := range c.own {
		if matchAll(d, filters) {
			out[name] = d
		}
	}
	return out
}

// AddTraits returns a synthetic subclass of c that also declares ds.
func (c *Class) AddTraits(ds ...*Descriptor) (*Class, error) {
	b := NewClass(c.name, c).Trait(ds...)
	b.synthetic = true
	return b.Build()
}

// New creates an object and sets values in one batch.
func (c *Class) New(values map[string]any) (*Object, error) {
	o := newObject(c)
	if len(values) == 0 {
		return o, nil
	}
	names := make([]string, 0, len(values))
	for _, name := range c.order {
		if _, ok := values[name]; ok {
			names = append(names, name)
		}
	}
	for name := range values {
		if !c.HasTrait(name) {
			return nil, &UnknownTraitError{Class: c.name, Trait: name}
		}
	}
	err := o.HoldNotifications(func() error {
		for _, name := range names {
			if err := o.Set(name, values[name]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (c *Class) String() string { return c.id }
