// Links keep a trait of one object in step with a trait of another, using
// nothing but the public observer API.
package traits

import "fmt"

// Endpoint names one trait of one object.
type Endpoint struct {
	Object *Object
	Name   string
}

func (e Endpoint) String() string {
	return e.Object.class.name + "." + e.Name
}

func (e Endpoint) check() error {
	if e.Object == nil {
		return fmt.Errorf("%w: nil object", ErrUnknownTrait)
	}
	if !e.Object.HasTrait(e.Name) {
		return &UnknownTraitError{Class: e.Object.class.name, Trait: e.Name}
	}
	return nil
}

// TransformFunc maps a value between linked traits.
type TransformFunc func(v any) (any, error)

// LinkOption configures a Link.
type LinkOption func(*Link)

// WithTransform maps source values to the target with forward and target
// values back to the source with inverse.
func WithTransform(forward, inverse TransformFunc) LinkOption {
	return func(l *Link) {
		l.forward = forward
		l.inverse = inverse
	}
}

// Link is an active synchronization between two traits.
type Link struct {
	source   Endpoint
	target   Endpoint
	forward  TransformFunc
	inverse  TransformFunc
	both     bool
	updating bool
	srcID    ObserverID
	dstID    ObserverID
}

func identity(v any) (any, error) { return v, nil }

// NewLink keeps source and target equal (up to the transforms) in both
// directions. The target takes the source's current value first.
func NewLink(source, target Endpoint, opts ...LinkOption) (*Link, error) {
	l := &Link{source: source, target: target, forward: identity, inverse: identity, both: true}
	for _, opt := range opts {
		opt(l)
	}
	return l, l.start()
}

// NewDirectionalLink copies source changes to target. A nil transform copies
// values unchanged.
func NewDirectionalLink(source, target Endpoint, transform TransformFunc) (*Link, error) {
	if transform == nil {
		transform = identity
	}
	l := &Link{source: source, target: target, forward: transform, inverse: identity}
	return l, l.start()
}

func (l *Link) start() error {
	if err := l.source.check(); err != nil {
		return err
	}
	if err := l.target.check(); err != nil {
		return err
	}
	v, err := l.source.Object.Get(l.source.Name)
	if err != nil {
		return err
	}
	if err := l.push(l.target, l.forward, v); err != nil {
		return err
	}
	l.srcID = l.source.Object.Observe(l.updateTarget, []string{l.source.Name}, KindChange)
	if l.both {
		l.dstID = l.target.Object.Observe(l.updateSource, []string{l.target.Name}, KindChange)
	}
	return nil
}

// push writes fn(v) to dst with the busy flag raised.
func (l *Link) push(dst Endpoint, fn TransformFunc, v any) error {
	x, err := fn(v)
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", l.source, l.target, err)
	}
	l.updating = true
	defer func() { l.updating = false }()
	return dst.Object.Set(dst.Name, x)
}

func (l *Link) updateTarget(c ChangeRecord) error {
	if l.updating {
		return nil
	}
	if err := l.push(l.target, l.forward, c.New); err != nil {
		return err
	}
	return l.verify(l.source, c.New)
}

func (l *Link) updateSource(c ChangeRecord) error {
	if l.updating {
		return nil
	}
	if err := l.push(l.source, l.inverse, c.New); err != nil {
		return err
	}
	return l.verify(l.target, c.New)
}

// verify fails when the originating trait was changed again while the
// other side was being updated.
func (l *Link) verify(origin Endpoint, want any) error {
	got, err := origin.Object.Get(origin.Name)
	if err != nil {
		return err
	}
	if !valuesEqual(got, want) {
		return fmt.Errorf("%w %s <-> %s: %s changed while the other side was updated", ErrBrokenLink, l.source, l.target, origin)
	}
	return nil
}

// Unlink stops the synchronization.
func (l *Link) Unlink() {
	l.source.Object.Unobserve(l.srcID, []string{l.source.Name}, KindChange)
	if l.both {
		l.target.Object.Unobserve(l.dstID, []string{l.target.Name}, KindChange)
	}
}
