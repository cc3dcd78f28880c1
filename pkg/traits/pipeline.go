// Validation pipeline: cross validators run after type validation, and the
// final value is type-validated again before it is committed.
package traits

import "errors"

// crossValidate runs the validators bound to d's name in order, each
// receiving the previous one's result. Writes to the owner are refused while
// validators run.
func (o *Object) crossValidate(d *Descriptor, value any) (any, error) {
	checks := o.class.crossChecks[d.name]
	if len(checks) == 0 {
		return value, nil
	}
	o.validating++
	defer func() { o.validating-- }()

	for _, fn := range checks {
		next, err := fn(Proposal{Trait: d, Value: value, Owner: o})
		if err != nil {
			return nil, o.rejection(d, err)
		}
		value = next
	}
	return d.validate(o.class.name, value)
}

// rejection wraps a validator error unless it already carries a trait
// error kind.
func (o *Object) rejection(d *Descriptor, err error) error {
	if errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrValidationRejected) ||
		errors.Is(err, ErrUnknownTrait) || errors.Is(err, ErrAssignDuringValidation) {
		return err
	}
	return &ValidationRejectedError{Class: o.class.name, Trait: d.name, Err: err}
}
