// Enumerated kinds: exact, case-insensitive and fuzzy (unique prefix or
// substring) matching against a fixed set of choices.
package traits

import (
	"fmt"
	"strings"
)

// EnumKind accepts one of a fixed set of values, compared by equality.
type EnumKind struct {
	values []any
}

// Enum returns a kind accepting exactly the given values. Numeric choices
// are normalized, so Enum(1, 2) accepts int(1) and int64(1) alike.
func Enum(values ...any) *EnumKind {
	norm := make([]any, len(values))
	for i, v := range values {
		norm[i] = normalizeScalar(v)
	}
	return &EnumKind{values: norm}
}

// Values returns the declared choices.
func (k *EnumKind) Values() []any {
	return append([]any(nil), k.values...)
}

func (k *EnumKind) ValueKind() ValueKind { return ValueKindEnum }

func (k *EnumKind) Info() string { return "any of " + choicesText(k.values) }

func (k *EnumKind) InfoRST() string { return "any of " + choicesRST(k.values) }

func (k *EnumKind) Validate(v any) (any, error) {
	n := normalizeScalar(v)
	for _, c := range k.values {
		if valuesEqual(c, n) {
			return c, nil
		}
	}
	return nil, mismatch(k.Info(), v)
}

func (k *EnumKind) FromString(s string) (any, error) {
	for _, c := range k.values {
		if fmt.Sprint(c) == s {
			return c, nil
		}
	}
	return nil, mismatch(k.Info(), s)
}

func (k *EnumKind) Format(v any) (string, error) {
	c, err := k.Validate(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(c), nil
}

func (k *EnumKind) Default() any { return Undefined }

// CaselessEnumKind accepts one of a set of strings, ignoring case. The
// declared spelling is stored.
type CaselessEnumKind struct {
	values []string
}

// CaselessEnum returns a case-insensitive string enum.
func CaselessEnum(values ...string) *CaselessEnumKind {
	return &CaselessEnumKind{values: append([]string(nil), values...)}
}

func (k *CaselessEnumKind) ValueKind() ValueKind { return ValueKindEnum }

func (k *CaselessEnumKind) Info() string {
	return "any of " + choicesText(stringsToAny(k.values)) + " (case-insensitive)"
}

func (k *CaselessEnumKind) InfoRST() string {
	return "any of " + choicesRST(stringsToAny(k.values)) + " (case-insensitive)"
}

func (k *CaselessEnumKind) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	for _, c := range k.values {
		if strings.EqualFold(c, s) {
			return c, nil
		}
	}
	return nil, mismatch(k.Info(), v)
}

func (k *CaselessEnumKind) FromString(s string) (any, error) { return k.Validate(s) }

func (k *CaselessEnumKind) Format(v any) (string, error) {
	c, err := k.Validate(v)
	if err != nil {
		return "", err
	}
	return c.(string), nil
}

func (k *CaselessEnumKind) Default() any { return Undefined }

// FuzzyEnumKind accepts any string that matches exactly one choice by prefix,
// or by substring when substring matching is enabled.
type FuzzyEnumKind struct {
	values        []string
	caseSensitive bool
	substring     bool
}

// FuzzyEnum returns a case-insensitive prefix-matching string enum.
func FuzzyEnum(values ...string) *FuzzyEnumKind {
	return &FuzzyEnumKind{values: append([]string(nil), values...)}
}

// CaseSensitive returns a copy of k that compares case exactly.
func (k *FuzzyEnumKind) CaseSensitive() *FuzzyEnumKind {
	c := *k
	c.caseSensitive = true
	return &c
}

// Substring returns a copy of k that matches anywhere in a choice instead of
// only at its start.
func (k *FuzzyEnumKind) Substring() *FuzzyEnumKind {
	c := *k
	c.substring = true
	return &c
}

func (k *FuzzyEnumKind) ValueKind() ValueKind { return ValueKindEnum }

func (k *FuzzyEnumKind) info(choices string) string {
	kase := "insensitive"
	if k.caseSensitive {
		kase = "sensitive"
	}
	match := "prefix"
	if k.substring {
		match = "substring"
	}
	return fmt.Sprintf("any case-%s %s of %s", kase, match, choices)
}

func (k *FuzzyEnumKind) Info() string { return k.info(choicesText(stringsToAny(k.values))) }

func (k *FuzzyEnumKind) InfoRST() string { return k.info(choicesRST(stringsToAny(k.values))) }

func (k *FuzzyEnumKind) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	conv := func(x string) string { return x }
	if !k.caseSensitive {
		conv = strings.ToLower
	}
	match := strings.HasPrefix
	if k.substring {
		match = strings.Contains
	}
	s = conv(s)
	found := -1
	for i, c := range k.values {
		if match(conv(c), s) {
			if found >= 0 {
				return nil, mismatchCause(k.Info(), v, fmt.Errorf("ambiguous between %q and %q", k.values[found], c))
			}
			found = i
		}
	}
	if found < 0 {
		return nil, mismatch(k.Info(), v)
	}
	return k.values[found], nil
}

func (k *FuzzyEnumKind) FromString(s string) (any, error) { return k.Validate(s) }

func (k *FuzzyEnumKind) Format(v any) (string, error) {
	c, err := k.Validate(v)
	if err != nil {
		return "", err
	}
	return c.(string), nil
}

func (k *FuzzyEnumKind) Default() any { return Undefined }

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func choicesText(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func choicesRST(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("``%v``", v)
	}
	return strings.Join(parts, "|")
}
