// Value kinds: the closed set of value categories a trait can hold and the
// Kind interface that validates, parses and formats them.
package traits

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValueKind names the category of values a Kind accepts.
type ValueKind string

// Value kinds.
const (
	ValueKindInteger  ValueKind = "integer"
	ValueKindFloat    ValueKind = "float"
	ValueKindComplex  ValueKind = "complex"
	ValueKindText     ValueKind = "text"
	ValueKindBytes    ValueKind = "bytes"
	ValueKindBoolean  ValueKind = "boolean"
	ValueKindEnum     ValueKind = "enum"
	ValueKindList     ValueKind = "list"
	ValueKindSet      ValueKind = "set"
	ValueKindTuple    ValueKind = "tuple"
	ValueKindMapping  ValueKind = "mapping"
	ValueKindInstance ValueKind = "instance"
	ValueKindUnion    ValueKind = "union"
	ValueKindAny      ValueKind = "any"
)

// validValueKinds is the set of recognized value kinds.
var validValueKinds = map[ValueKind]bool{
	ValueKindInteger:  true,
	ValueKindFloat:    true,
	ValueKindComplex:  true,
	ValueKindText:     true,
	ValueKindBytes:    true,
	ValueKindBoolean:  true,
	ValueKindEnum:     true,
	ValueKindList:     true,
	ValueKindSet:      true,
	ValueKindTuple:    true,
	ValueKindMapping:  true,
	ValueKindInstance: true,
	ValueKindUnion:    true,
	ValueKindAny:      true,
}

// IsValidValueKind reports whether vk is a recognized value kind.
func IsValidValueKind(vk ValueKind) bool {
	return validValueKinds[vk]
}

// Kind validates and converts values for one category of trait.
//
// Validate returns the value to store, possibly converted (a casting kind
// turns "3" into int64(3)). FromString parses the textual form used by
// command-line and file sources; Format renders the canonical textual form,
// so FromString(Format(v)) yields v for every primitive kind. Default is the
// kind's static default, or Undefined when the kind has none.
type Kind interface {
	ValueKind() ValueKind
	Info() string
	Validate(v any) (any, error)
	FromString(s string) (any, error)
	Format(v any) (string, error)
	Default() any
}

// rstInfo is implemented by kinds whose structured-text description differs
// from the plain one.
type rstInfo interface {
	InfoRST() string
}

// valuesEqual compares two trait values for change detection.
func valuesEqual(a, b any) bool {
	if ra, ok := a.(*regexp.Regexp); ok {
		rb, ok := b.(*regexp.Regexp)
		if !ok || ra == nil || rb == nil {
			return ra == rb && ok
		}
		return ra.String() == rb.String()
	}
	return reflect.DeepEqual(a, b)
}

// toInt64 converts any Go integer type to int64.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

// toFloat64 converts any Go float or integer type to float64.
func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// normalizeScalar maps Go numeric types onto the stored representation so
// that declared enum choices compare equal to validated values.
func normalizeScalar(v any) any {
	if i, ok := toInt64(v); ok {
		return i
	}
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	return v
}

// toSlice converts any slice or array to []any. Strings and byte slices are
// not sequences here.
func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return x, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toStringMap converts any map with string keys to map[string]any. Keys of
// other types are passed through keyOf, which may reject them.
func toStringMap(v any, keyOf func(any) (string, error)) (map[string]any, bool, error) {
	if m, ok := v.(map[string]any); ok {
		return m, true, nil
	}
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Map {
		return nil, false, nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := keyOf(iter.Key().Interface())
		if err != nil {
			return nil, true, err
		}
		out[k] = iter.Value().Interface()
	}
	return out, true, nil
}

// splitItems splits the textual form of a sequence: optional surrounding
// brackets, comma separated, whitespace and quotes trimmed.
func splitItems(s string, open, close string) []string {
	parts := splitRaw(s, open, close)
	for i, p := range parts {
		parts[i] = unquote(p)
	}
	return parts
}

// splitRaw is splitItems without unquoting. A comma inside quotes or nested
// brackets does not split; a quote only opens at the start of an item,
// nested ones included.
func splitRaw(s string, open, close string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, open) && strings.HasSuffix(s, close) {
		s = strings.TrimSpace(s[len(open) : len(s)-len(close)])
	}
	if s == "" {
		return nil
	}
	var parts []string
	start := 0
	scanItems(s, func(i int) bool {
		parts = append(parts, strings.TrimSpace(s[start:i]))
		start = i + 1
		return true
	}, ',')
	return append(parts, strings.TrimSpace(s[start:]))
}

// scanItems calls fn with the index of every sep that is outside quotes and
// brackets, until fn returns false.
func scanItems(s string, fn func(i int) bool, sep byte) {
	var quote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && atItemStart(s, i):
			quote = c
		case c == '[' || c == '(' || c == '{':
			depth++
		case (c == ']' || c == ')' || c == '}') && depth > 0:
			depth--
		case c == sep && depth == 0:
			if !fn(i) {
				return
			}
		}
	}
}

// atItemStart reports whether only whitespace separates s[i] from the start
// of s or from the preceding separator or opening bracket.
func atItemStart(s string, i int) bool {
	j := strings.LastIndexFunc(s[:i], func(r rune) bool { return !unicode.IsSpace(r) })
	if j < 0 {
		return true
	}
	return strings.IndexByte(",=[({", s[j]) >= 0
}

// cutPair splits "key=value" at the first '=' outside quotes.
func cutPair(s string) (key, value string, ok bool) {
	at := -1
	scanItems(s, func(i int) bool {
		at = i
		return false
	}, '=')
	if at < 0 {
		return "", "", false
	}
	return unquote(strings.TrimSpace(s[:at])), unquote(strings.TrimSpace(s[at+1:])), true
}

// unquote strips one level of double or single quotes. Double-quoted items
// use Go escapes, as written by quoteItem.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return s[1 : len(s)-1]
	}
	return s
}

// quoteItem quotes an element of a sequence or mapping when splitItems would
// otherwise cut or trim it.
func quoteItem(s string) string {
	if s == "" || s != strings.TrimSpace(s) || strings.ContainsAny(s, ",\"'=[](){}") {
		return strconv.Quote(s)
	}
	return s
}
