// Notification: change records, observer registration and synchronous
// dispatch in registration order.
package traits

import "slices"

// Record kinds and the wildcard for names and kinds.
const (
	KindChange  = "change"
	KindDefault = "default"
	All         = "*"
)

// ChangeRecord describes one committed change. Old is Undefined when the
// trait had no value before.
type ChangeRecord struct {
	Owner *Object
	Name  string
	Old   any
	New   any
	Kind  string
}

// ObserverID identifies a dynamic observer registration.
type ObserverID uint64

type registration struct {
	id   ObserverID
	fn   ObserverFunc
	name string
	kind string
}

func (r registration) matches(name, kind string) bool {
	return (r.name == All || r.name == name) && (r.kind == All || r.kind == kind)
}

func normalizeNames(names []string) []string {
	if len(names) == 0 {
		return []string{All}
	}
	return slices.Clone(names)
}

func normalizeKind(kind string) string {
	if kind == "" {
		return KindChange
	}
	return kind
}

// Observe registers fn for records of kind on the given trait names. Nil
// names means every trait, an empty kind means KindChange and All matches
// every kind. Names are not checked against the class, so an observer may
// be registered for a trait added later with AddTraits.
func (o *Object) Observe(fn ObserverFunc, names []string, kind string) ObserverID {
	o.nextID++
	id := o.nextID
	kind = normalizeKind(kind)
	for _, name := range normalizeNames(names) {
		o.observers = append(o.observers, registration{id: id, fn: fn, name: name, kind: kind})
	}
	return id
}

// Unobserve removes the registrations of id for names and kind, with the
// same defaults as Observe. It reports whether anything was removed.
func (o *Object) Unobserve(id ObserverID, names []string, kind string) bool {
	kind = normalizeKind(kind)
	names = normalizeNames(names)
	before := len(o.observers)
	o.observers = slices.DeleteFunc(o.observers, func(r registration) bool {
		return r.id == id && r.kind == kind && slices.Contains(names, r.name)
	})
	return len(o.observers) != before
}

// UnobserveAll removes every dynamic registration for name, or every
// registration at all when name is empty or All. Static observers stay.
func (o *Object) UnobserveAll(name string) {
	if name == "" || name == All {
		o.observers = nil
		return
	}
	o.observers = slices.DeleteFunc(o.observers, func(r registration) bool {
		return r.name == name
	})
}

// NotifyChange reports a custom record to observers. An empty Kind means
// KindChange. Inside HoldNotifications the record is held with the rest.
func (o *Object) NotifyChange(rec ChangeRecord) error {
	if !o.HasTrait(rec.Name) {
		return &UnknownTraitError{Class: o.class.name, Trait: rec.Name}
	}
	rec.Owner = o
	rec.Kind = normalizeKind(rec.Kind)
	return o.emit(rec)
}

// emit holds rec while a batch is open, otherwise dispatches it.
func (o *Object) emit(rec ChangeRecord) error {
	if o.tx != nil {
		o.tx.hold(rec)
		return nil
	}
	return o.dispatch(rec)
}

// dispatch calls static observers, then a snapshot of the dynamic ones. The
// first error stops dispatch.
func (o *Object) dispatch(rec ChangeRecord) error {
	o.notifying[rec.Name]++
	defer func() {
		if o.notifying[rec.Name]--; o.notifying[rec.Name] == 0 {
			delete(o.notifying, rec.Name)
		}
	}()

	for _, s := range o.class.staticObs {
		if !s.matches(rec.Name, rec.Kind) {
			continue
		}
		if err := s.fn(rec); err != nil {
			return err
		}
	}
	for _, r := range slices.Clone(o.observers) {
		if !r.matches(rec.Name, rec.Kind) {
			continue
		}
		if err := r.fn(rec); err != nil {
			return err
		}
	}
	return nil
}
