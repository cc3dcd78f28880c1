// Batched updates: writes inside HoldNotifications are stored immediately,
// cross-validated and notified once when the outermost batch closes, and
// rolled back completely on failure.
package traits

import (
	"fmt"
	"slices"
)

// TxState is the state of an object's batch.
type TxState int

// Batch states.
const (
	TxClosed TxState = iota
	TxOpen
	TxCommitting
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxClosed:
		return "closed"
	case TxOpen:
		return "open"
	case TxCommitting:
		return "committing"
	case TxRolledBack:
		return "rolled back"
	}
	return fmt.Sprintf("TxState(%d)", int(s))
}

type transaction struct {
	depth int
	state TxState
	// snapshot holds the pre-batch copy of every touched slot; nil marks a
	// slot that did not exist.
	snapshot map[string]*slot
	written  []string
	records  []ChangeRecord
	failure  error
	// class is the object's class before its first AddTraits in the batch.
	class *Class
}

func (tx *transaction) touch(o *Object, name string) {
	if _, ok := tx.snapshot[name]; ok {
		return
	}
	if s, ok := o.slots[name]; ok {
		c := *s
		tx.snapshot[name] = &c
		return
	}
	tx.snapshot[name] = nil
}

func (tx *transaction) noteWrite(name string) {
	if !slices.Contains(tx.written, name) {
		tx.written = append(tx.written, name)
	}
}

func (tx *transaction) hold(rec ChangeRecord) {
	tx.records = append(tx.records, rec)
}

func (tx *transaction) fail(err error) {
	if tx.failure == nil {
		tx.failure = err
	}
}

// TxState returns the state of the object's batch.
func (o *Object) TxState() TxState {
	if o.tx == nil {
		return TxClosed
	}
	return o.tx.state
}

// HoldNotifications runs fn as one batch. Writes inside fn take effect at
// once, so later reads see them, but cross validation and notification wait
// until the outermost batch ends. The batch rolls back, restoring every
// touched trait and dropping every held record, when fn returns an error,
// when any write inside it failed, or when a cross validator rejects a final
// value. Otherwise the held records are dispatched with one net "change"
// record per trait.
//
// Nested calls join the outer batch; only the outermost call commits.
func (o *Object) HoldNotifications(fn func() error) error {
	if o.tx != nil {
		o.tx.depth++
		defer func() { o.tx.depth-- }()
		return fn()
	}

	tx := &transaction{depth: 1, state: TxOpen, snapshot: make(map[string]*slot)}
	o.tx = tx
	done := false
	defer func() {
		if !done {
			o.rollback(tx, fmt.Errorf("panic in batch"))
		}
	}()

	err := fn()
	if err == nil {
		err = tx.failure
	}
	if err != nil {
		done = true
		o.rollback(tx, err)
		return err
	}

	tx.state = TxCommitting
	if err := o.validateBatch(tx); err != nil {
		done = true
		o.rollback(tx, err)
		return err
	}
	records := o.netRecords(tx)
	done = true
	tx.state = TxClosed
	o.tx = nil

	for _, rec := range records {
		if err := o.dispatch(rec); err != nil {
			return err
		}
	}
	return nil
}

// validateBatch cross-validates each written trait once, in first-write
// order, against its final value.
func (o *Object) validateBatch(tx *transaction) error {
	for _, name := range tx.written {
		d, ok := o.class.traits[name]
		s := o.slots[name]
		if !ok || !s.hasValue() {
			continue
		}
		v, err := o.crossValidate(d, s.value)
		if err != nil {
			return err
		}
		s.value = v
	}
	return nil
}

// netRecords compresses held "change" records to one per trait, placed at
// the trait's first change and running from the value before the batch to
// the final value. Records of other kinds are kept in order.
func (o *Object) netRecords(tx *transaction) []ChangeRecord {
	out := make([]ChangeRecord, 0, len(tx.records))
	first := make(map[string]int)
	for _, rec := range tx.records {
		if rec.Kind != KindChange {
			out = append(out, rec)
			continue
		}
		if _, seen := first[rec.Name]; seen {
			continue
		}
		first[rec.Name] = len(out)
		out = append(out, rec)
	}
	for name, i := range first {
		if s := o.slots[name]; s.hasValue() {
			out[i].New = s.value
		}
	}
	return slices.DeleteFunc(out, func(rec ChangeRecord) bool {
		if rec.Kind != KindChange {
			return false
		}
		if d := o.class.traits[rec.Name]; d != nil && d.alwaysNotify {
			return false
		}
		return !IsUndefined(rec.Old) && valuesEqual(rec.Old, rec.New)
	})
}

func (o *Object) rollback(tx *transaction, cause error) {
	if tx.class != nil {
		o.class = tx.class
	}
	for name, s := range tx.snapshot {
		if s == nil {
			delete(o.slots, name)
			continue
		}
		c := *s
		o.slots[name] = &c
	}
	tx.state = TxRolledBack
	logger.Debug("rolled back batch",
		"class", o.class.id, "traits", len(tx.snapshot), "held", len(tx.records), "cause", cause)
	tx.records = nil
	tx.state = TxClosed
	o.tx = nil
}
