// Default resolution: the generator chosen at class build time, else the
// descriptor's static default, computed at most once per object.
package traits

import "fmt"

// materializeDefault computes, stores and reports the default for d. The
// value stays stored even when an observer of the "default" record fails.
func (o *Object) materializeDefault(d *Descriptor) (any, error) {
	v, err := o.computeDefault(d)
	if err != nil {
		return nil, err
	}
	if o.tx != nil {
		o.tx.touch(o, d.name)
	}
	s, ok := o.slots[d.name]
	if !ok {
		s = &slot{}
		o.slots[d.name] = s
	}
	s.value = v
	s.defaultComputed = true

	err = o.emit(ChangeRecord{Owner: o, Name: d.name, Old: Undefined, New: v, Kind: KindDefault})
	return v, err
}

// computeDefault runs the resolved generator, or falls back to the static
// default, and type-validates the result. Cross validators do not run.
func (o *Object) computeDefault(d *Descriptor) (any, error) {
	if o.resolving[d.name] {
		return nil, fmt.Errorf("%w: %s.%s", ErrDefaultCycle, o.class.name, d.name)
	}
	o.resolving[d.name] = true
	defer delete(o.resolving, d.name)

	var raw any
	if gen := o.class.defaults[d.name]; gen != nil {
		v, err := gen(o)
		if err != nil {
			return nil, fmt.Errorf("default for %s.%s: %w", o.class.name, d.name, err)
		}
		raw = v
	} else {
		raw = d.StaticDefault()
	}
	if IsUndefined(raw) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoDefault, o.class.name, d.name)
	}
	return d.validate(o.class.name, raw)
}
