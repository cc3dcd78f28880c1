// Error types for trait declaration, validation and access.
package traits

import (
	"errors"
	"fmt"
	"reflect"
)

// Access and validation errors.
var (
	ErrTypeMismatch           = errors.New("type mismatch")
	ErrValidationRejected     = errors.New("validation rejected")
	ErrReadOnly               = errors.New("trait is read-only")
	ErrUnknownTrait           = errors.New("unknown trait")
	ErrNoDefault              = errors.New("no default value")
	ErrDefaultCycle           = errors.New("default generator reads its own trait")
	ErrAssignDuringValidation = errors.New("assignment from inside a cross validator")
	ErrNoTextForm             = errors.New("kind has no textual form")
	ErrBrokenLink             = errors.New("broken link")
)

// Class definition errors.
var (
	ErrInvalidName           = errors.New("invalid name")
	ErrDuplicateTrait        = errors.New("trait declared twice in one class")
	ErrInconsistentHierarchy = errors.New("inconsistent class hierarchy")
	ErrInvalidKind           = errors.New("invalid kind")
)

// TypeMismatchError reports a value that the trait's kind cannot accept.
type TypeMismatchError struct {
	Class    string
	Trait    string
	Expected string
	Value    any
	// Cause is the kind-level reason, e.g. the offending element of a list.
	Cause error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("the %q trait of a %s instance expected %s, not %s",
		e.Trait, e.Class, e.Expected, describe(e.Value))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports ErrTypeMismatch so callers can use errors.Is.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// Unwrap returns the kind-level cause.
func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// ValidationRejectedError wraps an error returned by a cross validator.
type ValidationRejectedError struct {
	Class string
	Trait string
	Err   error
}

func (e *ValidationRejectedError) Error() string {
	return fmt.Sprintf("%s.%s rejected: %v", e.Class, e.Trait, e.Err)
}

// Is reports ErrValidationRejected so callers can use errors.Is.
func (e *ValidationRejectedError) Is(target error) bool { return target == ErrValidationRejected }

// Unwrap returns the validator's own error.
func (e *ValidationRejectedError) Unwrap() error { return e.Err }

// ReadOnlyError reports a normal write to a read-only trait.
type ReadOnlyError struct {
	Class string
	Trait string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("the %q trait of %s is read-only", e.Trait, e.Class)
}

// Is reports ErrReadOnly so callers can use errors.Is.
func (e *ReadOnlyError) Is(target error) bool { return target == ErrReadOnly }

// UnknownTraitError reports access by a name absent from the class registry.
type UnknownTraitError struct {
	Class string
	Trait string
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("class %s does not have a trait named %q", e.Class, e.Trait)
}

// Is reports ErrUnknownTrait so callers can use errors.Is.
func (e *UnknownTraitError) Is(target error) bool { return target == ErrUnknownTrait }

// kindError is the kind-level failure a Kind returns from Validate. The
// descriptor turns it into a TypeMismatchError with class and trait context.
type kindError struct {
	info  string
	value any
	cause error
}

func (e *kindError) Error() string {
	msg := "expected " + e.info + ", not " + describe(e.value)
	if e.cause != nil {
		msg += " (" + e.cause.Error() + ")"
	}
	return msg
}

func (e *kindError) Unwrap() error { return e.cause }

func mismatch(info string, value any) error {
	return &kindError{info: info, value: value}
}

func mismatchCause(info string, value any, cause error) error {
	return &kindError{info: info, value: value, cause: cause}
}

// elementError names the element of a container that failed validation.
type elementError struct {
	where string
	err   error
}

func (e *elementError) Error() string { return e.where + ": " + e.err.Error() }

func (e *elementError) Unwrap() error { return e.err }

// describe renders a value with its Go type for error messages.
func describe(v any) string {
	if v == nil {
		return "nil"
	}
	if IsUndefined(v) {
		return "Undefined"
	}
	t := reflect.TypeOf(v)
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("the %s %q", t, x)
	case []byte:
		return fmt.Sprintf("the %s %q", t, x)
	}
	return fmt.Sprintf("the %s %v", t, v)
}
