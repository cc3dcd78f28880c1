// Container kinds: lists, sets, tuples and string-keyed mappings whose
// elements are validated against element kinds.
package traits

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ListKind accepts sequences, stored as []any.
type ListKind struct {
	elem           Kind
	minLen, maxLen int
}

// List returns a list kind whose elements must satisfy elem. A nil elem
// accepts any element.
func List(elem Kind) *ListKind {
	return &ListKind{elem: elem, maxLen: math.MaxInt}
}

// Len returns a copy of k that requires a length between min and max.
func (k *ListKind) Len(min, max int) *ListKind {
	c := *k
	c.minLen, c.maxLen = min, max
	return &c
}

// Elem returns the element kind, nil when elements are unchecked.
func (k *ListKind) Elem() Kind { return k.elem }

func (k *ListKind) ValueKind() ValueKind { return ValueKindList }

func (k *ListKind) Info() string {
	if k.elem == nil {
		return "a list"
	}
	return "a list of " + stripArticle(k.elem.Info())
}

func (k *ListKind) Validate(v any) (any, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	if len(items) < k.minLen || len(items) > k.maxLen {
		return nil, mismatchCause(k.Info(), v,
			fmt.Errorf("length %d outside [%d, %d]", len(items), k.minLen, k.maxLen))
	}
	out, err := validateElements(k.elem, items)
	if err != nil {
		return nil, mismatchCause(k.Info(), v, err)
	}
	return out, nil
}

func (k *ListKind) FromString(s string) (any, error) {
	items, err := parseElements(k.elem, splitItems(s, "[", "]"))
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return k.Validate(items)
}

func (k *ListKind) Format(v any) (string, error) {
	return formatElements(k.elem, v, "[", "]")
}

func (k *ListKind) Default() any { return []any{} }

// SetKind accepts sequences without duplicate elements, stored as []any in
// first-seen order. The strict variant rejects duplicates; the casting
// variant drops them.
type SetKind struct {
	elem Kind
	cast bool
}

// Set returns a strict set kind.
func Set(elem Kind) *SetKind { return &SetKind{elem: elem} }

// CSet returns a set kind that silently drops duplicate elements.
func CSet(elem Kind) *SetKind { return &SetKind{elem: elem, cast: true} }

func (k *SetKind) ValueKind() ValueKind { return ValueKindSet }

func (k *SetKind) Info() string {
	if k.elem == nil {
		return "a set"
	}
	return "a set of " + stripArticle(k.elem.Info())
}

func (k *SetKind) Validate(v any) (any, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	checked, err := validateElements(k.elem, items)
	if err != nil {
		return nil, mismatchCause(k.Info(), v, err)
	}
	out := make([]any, 0, len(checked))
	for i, item := range checked {
		dup := false
		for _, seen := range out {
			if valuesEqual(seen, item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
			continue
		}
		if !k.cast {
			return nil, mismatchCause(k.Info(), v,
				&elementError{where: fmt.Sprintf("element %d", i), err: fmt.Errorf("duplicate %s", describe(item))})
		}
	}
	return out, nil
}

func (k *SetKind) FromString(s string) (any, error) {
	items, err := parseElements(k.elem, splitItems(s, "{", "}"))
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return k.Validate(items)
}

func (k *SetKind) Format(v any) (string, error) {
	return formatElements(k.elem, v, "{", "}")
}

func (k *SetKind) Default() any { return []any{} }

// TupleKind accepts fixed-shape sequences, stored as []any.
type TupleKind struct {
	elems []Kind
}

// Tuple returns a tuple kind. With element kinds the length is fixed and each
// position is validated by its kind; without, any sequence is accepted.
func Tuple(elems ...Kind) *TupleKind {
	return &TupleKind{elems: append([]Kind(nil), elems...)}
}

func (k *TupleKind) ValueKind() ValueKind { return ValueKindTuple }

func (k *TupleKind) Info() string {
	if len(k.elems) == 0 {
		return "a tuple"
	}
	parts := make([]string, len(k.elems))
	for i, e := range k.elems {
		parts[i] = stripArticle(e.Info())
	}
	return "a tuple of (" + strings.Join(parts, ", ") + ")"
}

func (k *TupleKind) Validate(v any) (any, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	if len(k.elems) == 0 {
		return append([]any(nil), items...), nil
	}
	if len(items) != len(k.elems) {
		return nil, mismatchCause(k.Info(), v, fmt.Errorf("length %d, want %d", len(items), len(k.elems)))
	}
	out := make([]any, len(items))
	for i, item := range items {
		x, err := k.elems[i].Validate(item)
		if err != nil {
			return nil, mismatchCause(k.Info(), v, &elementError{where: fmt.Sprintf("element %d", i), err: err})
		}
		out[i] = x
	}
	return out, nil
}

func (k *TupleKind) FromString(s string) (any, error) {
	parts := splitItems(s, "(", ")")
	if len(k.elems) == 0 {
		return parseElements(nil, parts)
	}
	if len(parts) != len(k.elems) {
		return nil, mismatchCause(k.Info(), s, fmt.Errorf("%d items, want %d", len(parts), len(k.elems)))
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		x, err := k.elems[i].FromString(p)
		if err != nil {
			return nil, mismatchCause(k.Info(), s, &elementError{where: fmt.Sprintf("element %d", i), err: err})
		}
		out[i] = x
	}
	return k.Validate(out)
}

func (k *TupleKind) Format(v any) (string, error) {
	items, ok := toSlice(v)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		var elem Kind
		if i < len(k.elems) {
			elem = k.elems[i]
		}
		s, err := formatElement(elem, item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func (k *TupleKind) Default() any {
	if len(k.elems) == 0 {
		return []any{}
	}
	out := make([]any, len(k.elems))
	for i, e := range k.elems {
		d := e.Default()
		if IsUndefined(d) {
			return Undefined
		}
		out[i] = d
	}
	return out
}

// DictKind accepts string-keyed mappings, stored as map[string]any.
type DictKind struct {
	value  Kind
	key    Kind
	perKey map[string]Kind
}

// Dict returns a mapping kind whose values must satisfy value. A nil value
// kind accepts any value.
func Dict(value Kind) *DictKind { return &DictKind{value: value} }

// Keys returns a copy of k whose keys are validated by key. The validated key
// must be a string.
func (k *DictKind) Keys(key Kind) *DictKind {
	c := *k
	c.key = key
	return &c
}

// PerKey returns a copy of k that validates the listed keys with their own
// kinds instead of the value kind.
func (k *DictKind) PerKey(kinds map[string]Kind) *DictKind {
	c := *k
	c.perKey = make(map[string]Kind, len(kinds))
	for name, kind := range kinds {
		c.perKey[name] = kind
	}
	return &c
}

func (k *DictKind) ValueKind() ValueKind { return ValueKindMapping }

func (k *DictKind) Info() string {
	if k.value == nil {
		return "a dict"
	}
	return "a dict of " + stripArticle(k.value.Info())
}

func (k *DictKind) valueKindFor(key string) Kind {
	if kind, ok := k.perKey[key]; ok {
		return kind
	}
	return k.value
}

func (k *DictKind) Validate(v any) (any, error) {
	keyOf := func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", &elementError{where: fmt.Sprintf("key %v", raw), err: fmt.Errorf("keys must be strings")}
		}
		return s, nil
	}
	m, ok, err := toStringMap(v, keyOf)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	if err != nil {
		return nil, mismatchCause(k.Info(), v, err)
	}
	out := make(map[string]any, len(m))
	for _, key := range sortedKeys(m) {
		item := m[key]
		newKey := key
		if k.key != nil {
			kv, err := k.key.Validate(key)
			if err != nil {
				return nil, mismatchCause(k.Info(), v, &elementError{where: fmt.Sprintf("key %q", key), err: err})
			}
			s, ok := kv.(string)
			if !ok {
				return nil, mismatchCause(k.Info(), v, &elementError{where: fmt.Sprintf("key %q", key), err: fmt.Errorf("keys must be strings")})
			}
			newKey = s
		}
		if kind := k.valueKindFor(key); kind != nil {
			x, err := kind.Validate(item)
			if err != nil {
				return nil, mismatchCause(k.Info(), v, &elementError{where: fmt.Sprintf("value of key %q", key), err: err})
			}
			item = x
		}
		out[newKey] = item
	}
	return out, nil
}

// FromString parses "key=value" pairs separated by commas, optionally inside
// braces.
func (k *DictKind) FromString(s string) (any, error) {
	out := make(map[string]any)
	for _, pair := range splitRaw(s, "{", "}") {
		key, raw, ok := cutPair(pair)
		if !ok {
			return nil, mismatchCause(k.Info(), s, fmt.Errorf("item %q is not key=value", pair))
		}
		if kind := k.valueKindFor(key); kind != nil {
			x, err := kind.FromString(raw)
			if err != nil {
				return nil, mismatchCause(k.Info(), s, &elementError{where: fmt.Sprintf("value of key %q", key), err: err})
			}
			out[key] = x
			continue
		}
		out[key] = raw
	}
	return k.Validate(out)
}

func (k *DictKind) Format(v any) (string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	parts := make([]string, 0, len(m))
	for _, key := range sortedKeys(m) {
		s, err := formatElement(k.valueKindFor(key), m[key])
		if err != nil {
			return "", err
		}
		parts = append(parts, quoteItem(key)+"="+s)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func (k *DictKind) Default() any { return map[string]any{} }

func validateElements(elem Kind, items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		if elem == nil {
			out[i] = item
			continue
		}
		x, err := elem.Validate(item)
		if err != nil {
			return nil, &elementError{where: fmt.Sprintf("element %d", i), err: err}
		}
		out[i] = x
	}
	return out, nil
}

func parseElements(elem Kind, parts []string) ([]any, error) {
	out := make([]any, len(parts))
	for i, p := range parts {
		if elem == nil {
			out[i] = p
			continue
		}
		x, err := elem.FromString(p)
		if err != nil {
			return nil, &elementError{where: fmt.Sprintf("element %d", i), err: err}
		}
		out[i] = x
	}
	return out, nil
}

func formatElements(elem Kind, v any, open, close string) (string, error) {
	items, ok := toSlice(v)
	if !ok {
		return "", fmt.Errorf("%w: cannot format %s as a sequence", ErrTypeMismatch, describe(v))
	}
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := formatElement(elem, item)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return open + strings.Join(parts, ", ") + close, nil
}

func formatElement(elem Kind, v any) (string, error) {
	if elem == nil {
		return quoteItem(fmt.Sprint(v)), nil
	}
	s, err := elem.Format(v)
	if err != nil {
		return "", err
	}
	switch elem.ValueKind() {
	case ValueKindList, ValueKindSet, ValueKindTuple, ValueKindMapping:
		return s, nil
	}
	return quoteItem(s), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stripArticle turns "an int" into "int" for composite descriptions.
func stripArticle(info string) string {
	for _, prefix := range []string{"an ", "a "} {
		if strings.HasPrefix(info, prefix) {
			return strings.TrimPrefix(info, prefix)
		}
	}
	return info
}
