// Scalar kinds: integers, floats, text, bytes and booleans, each in a strict
// and a casting variant.
package traits

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IntKind accepts integers, stored as int64.
type IntKind struct {
	cast     bool
	min, max *int64
}

// Int returns a strict integer kind. Any Go integer type is accepted.
func Int() *IntKind { return &IntKind{} }

// CInt returns a casting integer kind that also accepts floats (truncated),
// booleans and decimal strings.
func CInt() *IntKind { return &IntKind{cast: true} }

// Min returns a copy of k that rejects values below v.
func (k *IntKind) Min(v int64) *IntKind {
	c := *k
	c.min = &v
	return &c
}

// Max returns a copy of k that rejects values above v.
func (k *IntKind) Max(v int64) *IntKind {
	c := *k
	c.max = &v
	return &c
}

func (k *IntKind) ValueKind() ValueKind { return ValueKindInteger }

func (k *IntKind) Info() string {
	switch {
	case k.min != nil && k.max != nil:
		return fmt.Sprintf("an int between %d and %d", *k.min, *k.max)
	case k.min != nil:
		return fmt.Sprintf("an int >= %d", *k.min)
	case k.max != nil:
		return fmt.Sprintf("an int <= %d", *k.max)
	}
	return "an int"
}

func (k *IntKind) Validate(v any) (any, error) {
	i, ok := toInt64(v)
	if !ok && k.cast {
		i, ok = castInt(v)
	}
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	return k.bounds(i)
}

func (k *IntKind) bounds(i int64) (any, error) {
	if k.min != nil && i < *k.min {
		return nil, mismatchCause(k.Info(), i, fmt.Errorf("%d is less than the minimum %d", i, *k.min))
	}
	if k.max != nil && i > *k.max {
		return nil, mismatchCause(k.Info(), i, fmt.Errorf("%d is greater than the maximum %d", i, *k.max))
	}
	return i, nil
}

func castInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if math.IsNaN(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return castInt(float64(x))
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return i, err == nil
	case []byte:
		return castInt(string(x))
	}
	return 0, false
}

func (k *IntKind) FromString(s string) (any, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return k.bounds(i)
}

func (k *IntKind) Format(v any) (string, error) {
	i, ok := toInt64(v)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return strconv.FormatInt(i, 10), nil
}

func (k *IntKind) Default() any { return int64(0) }

// FloatKind accepts floating point numbers, stored as float64.
type FloatKind struct {
	cast     bool
	min, max *float64
}

// Float returns a strict float kind. Integers are accepted and widened.
func Float() *FloatKind { return &FloatKind{} }

// CFloat returns a casting float kind that also accepts booleans and numeric
// strings.
func CFloat() *FloatKind { return &FloatKind{cast: true} }

// Min returns a copy of k that rejects values below v.
func (k *FloatKind) Min(v float64) *FloatKind {
	c := *k
	c.min = &v
	return &c
}

// Max returns a copy of k that rejects values above v.
func (k *FloatKind) Max(v float64) *FloatKind {
	c := *k
	c.max = &v
	return &c
}

func (k *FloatKind) ValueKind() ValueKind { return ValueKindFloat }

func (k *FloatKind) Info() string {
	switch {
	case k.min != nil && k.max != nil:
		return fmt.Sprintf("a float between %g and %g", *k.min, *k.max)
	case k.min != nil:
		return fmt.Sprintf("a float >= %g", *k.min)
	case k.max != nil:
		return fmt.Sprintf("a float <= %g", *k.max)
	}
	return "a float"
}

func (k *FloatKind) Validate(v any) (any, error) {
	f, ok := toFloat64(v)
	if !ok && k.cast {
		switch x := v.(type) {
		case bool:
			f, ok = 0, true
			if x {
				f = 1
			}
		case string:
			var err error
			f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
			ok = err == nil
		case []byte:
			var err error
			f, err = strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
			ok = err == nil
		}
	}
	if !ok {
		return nil, mismatch(k.Info(), v)
	}
	return k.bounds(f)
}

func (k *FloatKind) bounds(f float64) (any, error) {
	if k.min != nil && f < *k.min {
		return nil, mismatchCause(k.Info(), f, fmt.Errorf("%g is less than the minimum %g", f, *k.min))
	}
	if k.max != nil && f > *k.max {
		return nil, mismatchCause(k.Info(), f, fmt.Errorf("%g is greater than the maximum %g", f, *k.max))
	}
	return f, nil
}

func (k *FloatKind) FromString(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return k.bounds(f)
}

func (k *FloatKind) Format(v any) (string, error) {
	f, ok := toFloat64(v)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (k *FloatKind) Default() any { return float64(0) }

// TextKind accepts strings.
type TextKind struct {
	cast bool
}

// Text returns a strict text kind. Byte slices are accepted when they hold
// pure ASCII.
func Text() *TextKind { return &TextKind{} }

// CText returns a casting text kind that renders any value with fmt.
func CText() *TextKind { return &TextKind{cast: true} }

func (k *TextKind) ValueKind() ValueKind { return ValueKindText }

func (k *TextKind) Info() string { return "a string" }

func (k *TextKind) Validate(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		if k.cast {
			if !utf8.Valid(x) {
				return nil, mismatchCause(k.Info(), v, fmt.Errorf("invalid UTF-8"))
			}
			return string(x), nil
		}
		for _, b := range x {
			if b > 0x7f {
				return nil, mismatchCause(k.Info(), v, fmt.Errorf("could not strictly decode %q to ascii", x))
			}
		}
		return string(x), nil
	}
	if k.cast && v != nil && !IsUndefined(v) {
		return fmt.Sprint(v), nil
	}
	return nil, mismatch(k.Info(), v)
}

func (k *TextKind) FromString(s string) (any, error) { return s, nil }

func (k *TextKind) Format(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return s, nil
}

func (k *TextKind) Default() any { return "" }

// BytesKind accepts byte slices.
type BytesKind struct {
	cast bool
}

// Bytes returns a strict bytes kind.
func Bytes() *BytesKind { return &BytesKind{} }

// CBytes returns a casting bytes kind that also accepts strings.
func CBytes() *BytesKind { return &BytesKind{cast: true} }

func (k *BytesKind) ValueKind() ValueKind { return ValueKindBytes }

func (k *BytesKind) Info() string { return "a bytes object" }

func (k *BytesKind) Validate(v any) (any, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		if k.cast {
			return []byte(x), nil
		}
	}
	return nil, mismatch(k.Info(), v)
}

func (k *BytesKind) FromString(s string) (any, error) { return []byte(s), nil }

func (k *BytesKind) Format(v any) (string, error) {
	b, ok := v.([]byte)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return string(b), nil
}

func (k *BytesKind) Default() any { return []byte{} }

// BoolKind accepts booleans.
type BoolKind struct {
	cast bool
}

// Bool returns a strict boolean kind.
func Bool() *BoolKind { return &BoolKind{} }

// CBool returns a casting boolean kind that also accepts numbers (non-zero is
// true) and the strings understood by FromString.
func CBool() *BoolKind { return &BoolKind{cast: true} }

func (k *BoolKind) ValueKind() ValueKind { return ValueKindBoolean }

func (k *BoolKind) Info() string { return "a boolean" }

func (k *BoolKind) Validate(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if k.cast {
		if f, ok := toFloat64(v); ok {
			return f != 0, nil
		}
		if s, ok := v.(string); ok {
			if b, err := parseBool(s); err == nil {
				return b, nil
			}
		}
	}
	return nil, mismatch(k.Info(), v)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func (k *BoolKind) FromString(s string) (any, error) {
	b, err := parseBool(s)
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return b, nil
}

func (k *BoolKind) Format(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return strconv.FormatBool(b), nil
}

func (k *BoolKind) Default() any { return false }

// ComplexKind accepts complex numbers, stored as complex128. Integers and
// floats are widened.
type ComplexKind struct {
	cast bool
}

// Complex returns a strict complex kind.
func Complex() *ComplexKind { return &ComplexKind{} }

// CComplex returns a casting complex kind that also parses strings.
func CComplex() *ComplexKind { return &ComplexKind{cast: true} }

func (k *ComplexKind) ValueKind() ValueKind { return ValueKindComplex }

func (k *ComplexKind) Info() string { return "a complex number" }

func (k *ComplexKind) Validate(v any) (any, error) {
	switch x := v.(type) {
	case complex128:
		return x, nil
	case complex64:
		return complex128(x), nil
	case float64:
		return complex(x, 0), nil
	case float32:
		return complex(float64(x), 0), nil
	case string:
		if k.cast {
			return k.FromString(x)
		}
	}
	if i, ok := toInt64(v); ok {
		return complex(float64(i), 0), nil
	}
	return nil, mismatch(k.Info(), v)
}

func (k *ComplexKind) FromString(s string) (any, error) {
	c, err := strconv.ParseComplex(strings.TrimSpace(s), 128)
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return c, nil
}

func (k *ComplexKind) Format(v any) (string, error) {
	c, ok := v.(complex128)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return strconv.FormatComplex(c, 'g', -1, 128), nil
}

func (k *ComplexKind) Default() any { return complex128(0) }
