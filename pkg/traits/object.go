// Objects: per-instance trait storage and the read and write entry points.
package traits

import (
	"errors"
	"slices"
)

// slot is one stored trait value.
type slot struct {
	value           any
	isSet           bool
	defaultComputed bool
}

func (s *slot) hasValue() bool {
	return s != nil && (s.isSet || s.defaultComputed)
}

// Object holds trait values for one instance of a Class.
type Object struct {
	class     *Class
	slots     map[string]*slot
	observers []registration
	nextID    ObserverID
	tx        *transaction

	validating int
	resolving  map[string]bool
	notifying  map[string]int
}

func newObject(c *Class) *Object {
	return &Object{
		class:     c,
		slots:     make(map[string]*slot),
		resolving: make(map[string]bool),
		notifying: make(map[string]int),
	}
}

// Class returns the object's current class. AddTraits replaces it.
func (o *Object) Class() *Class { return o.class }

// HasTrait reports whether the object's class has a trait named name.
func (o *Object) HasTrait(name string) bool { return o.class.HasTrait(name) }

// HasValue reports whether name holds a value, set or computed, without
// computing a default.
func (o *Object) HasValue(name string) bool {
	return o.slots[name].hasValue()
}

func (o *Object) descriptor(name string) (*Descriptor, error) {
	d, ok := o.class.traits[name]
	if !ok {
		return nil, &UnknownTraitError{Class: o.class.name, Trait: name}
	}
	return d, nil
}

// Get returns the value of name, computing its default on first read.
func (o *Object) Get(name string) (any, error) {
	d, err := o.descriptor(name)
	if err != nil {
		return nil, err
	}
	if s := o.slots[name]; s.hasValue() {
		return s.value, nil
	}
	return o.materializeDefault(d)
}

// MustGet is Get for traits known to exist with valid defaults. It panics on
// error.
func (o *Object) MustGet(name string) any {
	v, err := o.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes name through the full pipeline: read-only check, type
// validation, cross validation, commit and notification. Inside
// HoldNotifications cross validation and notification are deferred to the
// end of the batch.
func (o *Object) Set(name string, v any) error {
	return o.write(name, v, false)
}

// ForceSet is Set without the read-only check. It is the initialization path
// for read-only traits.
func (o *Object) ForceSet(name string, v any) error {
	return o.write(name, v, true)
}

// SetString parses text with the trait's FromString and sets the result.
func (o *Object) SetString(name, text string) error {
	d, err := o.descriptor(name)
	if err != nil {
		o.poison(err)
		return err
	}
	v, err := d.FromString(text)
	if err != nil {
		var tm *TypeMismatchError
		if errors.As(err, &tm) {
			tm.Class = o.class.name
		}
		o.poison(err)
		return err
	}
	return o.Set(name, v)
}

// TraitDefault computes the default for name without storing it or
// notifying.
func (o *Object) TraitDefault(name string) (any, error) {
	d, err := o.descriptor(name)
	if err != nil {
		return nil, err
	}
	return o.computeDefault(d)
}

// TraitValues returns the values of the traits that pass every filter,
// computing defaults as needed.
func (o *Object) TraitValues(filters ...MetadataFilter) (map[string]any, error) {
	out := make(map[string]any)
	for _, name := range o.class.TraitNames(filters...) {
		v, err := o.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Metadata returns a metadata entry of the named trait.
func (o *Object) Metadata(name, key string) (any, bool) {
	d, ok := o.class.traits[name]
	if !ok {
		return nil, false
	}
	return d.MetadataValue(key)
}

// AddTraits moves the object to a synthetic subclass of its class that also
// declares ds. Existing values are kept; other objects of the old class are
// unaffected. Inside a batch that rolls back, the object returns to its
// previous class.
func (o *Object) AddTraits(ds ...*Descriptor) error {
	c, err := o.class.AddTraits(ds...)
	if err != nil {
		return err
	}
	if o.tx != nil && o.tx.class == nil {
		o.tx.class = o.class
	}
	o.class = c
	for _, d := range ds {
		if s, ok := o.slots[d.name]; ok && s.hasValue() {
			if _, err := c.traits[d.name].validate(c.name, s.value); err != nil {
				if o.tx != nil {
					o.tx.touch(o, d.name)
				}
				delete(o.slots, d.name)
			}
		}
	}
	return nil
}

// write is the single entry for Set and ForceSet.
func (o *Object) write(name string, v any, force bool) error {
	d, err := o.descriptor(name)
	if err != nil {
		o.poison(err)
		return err
	}
	if o.validating > 0 {
		return ErrAssignDuringValidation
	}
	if d.readOnly && !force {
		err := &ReadOnlyError{Class: o.class.name, Trait: name}
		o.poison(err)
		return err
	}
	value, err := d.validate(o.class.name, v)
	if err != nil {
		o.poison(err)
		return err
	}
	if o.tx != nil {
		o.tx.touch(o, name)
		o.tx.noteWrite(name)
		return o.commit(d, value)
	}
	value, err = o.crossValidate(d, value)
	if err != nil {
		return err
	}
	return o.commit(d, value)
}

// commit stores value and reports the change. An equal value is not
// reported unless the trait always notifies; inside the trait's own dispatch
// an equal value is never reported.
func (o *Object) commit(d *Descriptor, value any) error {
	s, ok := o.slots[d.name]
	if !ok {
		s = &slot{}
		o.slots[d.name] = s
	}
	old := any(Undefined)
	if s.hasValue() {
		old = s.value
	}
	s.value = value
	s.isSet = true

	if !IsUndefined(old) && valuesEqual(old, value) {
		if o.notifying[d.name] > 0 || !d.alwaysNotify {
			return nil
		}
	}
	return o.emit(ChangeRecord{Owner: o, Name: d.name, Old: old, New: value, Kind: KindChange})
}

func (o *Object) poison(err error) {
	if o.tx != nil {
		o.tx.fail(err)
	}
}

// snapshot copies the slots so tests and callers can compare states.
func (o *Object) snapshot() map[string]slot {
	out := make(map[string]slot, len(o.slots))
	for name, s := range o.slots {
		out[name] = *s
	}
	return out
}

// Names returns the trait names of the object's class in declaration order.
func (o *Object) Names() []string { return slices.Clone(o.class.order) }
