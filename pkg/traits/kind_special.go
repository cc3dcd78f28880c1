// Special kinds: Go-typed instances, unions, the permissive Any kind and
// the network address, regular expression and tag-constrained kinds.
package traits

import (
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// InstanceKind accepts values assignable to a Go type.
type InstanceKind struct {
	typ  reflect.Type
	make func() any
}

// Instance returns a kind that accepts values assignable to T. When T is an
// interface any implementation is accepted.
func Instance[T any]() *InstanceKind {
	return &InstanceKind{typ: reflect.TypeFor[T]()}
}

// Make returns a copy of k whose static default is built by fn.
func (k *InstanceKind) Make(fn func() any) *InstanceKind {
	c := *k
	c.make = fn
	return &c
}

// Type returns the accepted Go type.
func (k *InstanceKind) Type() reflect.Type { return k.typ }

func (k *InstanceKind) ValueKind() ValueKind { return ValueKindInstance }

func (k *InstanceKind) Info() string {
	name := k.typ.String()
	if strings.ContainsRune("aeiouAEIOU", rune(name[0])) {
		return "an " + name
	}
	return "a " + name
}

func (k *InstanceKind) Validate(v any) (any, error) {
	if v == nil || IsUndefined(v) || !reflect.TypeOf(v).AssignableTo(k.typ) {
		return nil, mismatch(k.Info(), v)
	}
	return v, nil
}

func (k *InstanceKind) FromString(s string) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoTextForm, k.Info())
}

func (k *InstanceKind) Format(v any) (string, error) {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprint(v), nil
}

func (k *InstanceKind) Default() any {
	if k.make == nil {
		return Undefined
	}
	return k.make()
}

// UnionKind accepts a value that any of its member kinds accepts. Members are
// tried in order and the first success wins.
type UnionKind struct {
	kinds []Kind
}

// Union returns a union of kinds.
func Union(kinds ...Kind) *UnionKind {
	return &UnionKind{kinds: append([]Kind(nil), kinds...)}
}

func (k *UnionKind) ValueKind() ValueKind { return ValueKindUnion }

func (k *UnionKind) Info() string {
	parts := make([]string, len(k.kinds))
	for i, m := range k.kinds {
		parts[i] = m.Info()
	}
	return strings.Join(parts, " or ")
}

func (k *UnionKind) InfoRST() string {
	parts := make([]string, len(k.kinds))
	for i, m := range k.kinds {
		if r, ok := m.(rstInfo); ok {
			parts[i] = r.InfoRST()
			continue
		}
		parts[i] = m.Info()
	}
	return strings.Join(parts, " or ")
}

func (k *UnionKind) Validate(v any) (any, error) {
	for _, m := range k.kinds {
		if x, err := m.Validate(v); err == nil {
			return x, nil
		}
	}
	return nil, mismatch(k.Info(), v)
}

func (k *UnionKind) FromString(s string) (any, error) {
	for _, m := range k.kinds {
		x, err := m.FromString(s)
		if err != nil {
			continue
		}
		if x, err = m.Validate(x); err == nil {
			return x, nil
		}
	}
	return nil, mismatch(k.Info(), s)
}

// Format uses the first member that accepts v unchanged.
func (k *UnionKind) Format(v any) (string, error) {
	for _, m := range k.kinds {
		if x, err := m.Validate(v); err == nil && valuesEqual(x, v) {
			return m.Format(v)
		}
	}
	return "", mismatch(k.Info(), v)
}

func (k *UnionKind) Default() any {
	if len(k.kinds) == 0 {
		return Undefined
	}
	return k.kinds[0].Default()
}

// AnythingKind accepts any value, including nil.
type AnythingKind struct{}

// AnyKind returns the permissive kind.
func AnyKind() AnythingKind { return AnythingKind{} }

func (AnythingKind) ValueKind() ValueKind { return ValueKindAny }

func (AnythingKind) Info() string { return "any value" }

func (k AnythingKind) Validate(v any) (any, error) {
	if IsUndefined(v) {
		return nil, mismatch(k.Info(), v)
	}
	return v, nil
}

func (AnythingKind) FromString(s string) (any, error) { return s, nil }

func (AnythingKind) Format(v any) (string, error) {
	if v == nil {
		return "None", nil
	}
	return fmt.Sprint(v), nil
}

func (AnythingKind) Default() any { return nil }

// TCPAddr is a host and port pair.
type TCPAddr struct {
	Host string
	Port int
}

func (a TCPAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// TCPAddressKind accepts TCPAddr values, "host:port" strings and
// two-element (host, port) sequences.
type TCPAddressKind struct{}

// TCPAddress returns the TCP address kind. The default is 127.0.0.1:0.
func TCPAddress() TCPAddressKind { return TCPAddressKind{} }

func (TCPAddressKind) ValueKind() ValueKind { return ValueKindTuple }

func (TCPAddressKind) Info() string { return "a (host, port) address" }

func (k TCPAddressKind) Validate(v any) (any, error) {
	var addr TCPAddr
	switch x := v.(type) {
	case TCPAddr:
		addr = x
	case *TCPAddr:
		if x == nil {
			return nil, mismatch(k.Info(), v)
		}
		addr = *x
	case string:
		return k.FromString(x)
	default:
		items, ok := toSlice(v)
		if !ok || len(items) != 2 {
			return nil, mismatch(k.Info(), v)
		}
		host, ok := items[0].(string)
		port, ok2 := toInt64(items[1])
		if !ok || !ok2 {
			return nil, mismatch(k.Info(), v)
		}
		addr = TCPAddr{Host: host, Port: int(port)}
	}
	if addr.Port < 0 || addr.Port > 65535 {
		return nil, mismatchCause(k.Info(), v, fmt.Errorf("port %d out of range", addr.Port))
	}
	return addr, nil
}

func (k TCPAddressKind) FromString(s string) (any, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, mismatchCause(k.Info(), s, err)
	}
	return k.Validate(TCPAddr{Host: host, Port: p})
}

func (k TCPAddressKind) Format(v any) (string, error) {
	addr, ok := v.(TCPAddr)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return addr.String(), nil
}

func (TCPAddressKind) Default() any { return TCPAddr{Host: "127.0.0.1", Port: 0} }

// RegexpKind accepts compiled regular expressions or pattern strings, which
// it compiles.
type RegexpKind struct{}

// Regexp returns the casting regular expression kind.
func Regexp() RegexpKind { return RegexpKind{} }

func (RegexpKind) ValueKind() ValueKind { return ValueKindInstance }

func (RegexpKind) Info() string { return "a regular expression" }

func (k RegexpKind) Validate(v any) (any, error) {
	switch x := v.(type) {
	case *regexp.Regexp:
		if x != nil {
			return x, nil
		}
	case string:
		re, err := regexp.Compile(x)
		if err != nil {
			return nil, mismatchCause(k.Info(), v, err)
		}
		return re, nil
	case []byte:
		return k.Validate(string(x))
	}
	return nil, mismatch(k.Info(), v)
}

func (k RegexpKind) FromString(s string) (any, error) { return k.Validate(s) }

func (k RegexpKind) Format(v any) (string, error) {
	re, ok := v.(*regexp.Regexp)
	if !ok || re == nil {
		return "", mismatch(k.Info(), v)
	}
	return re.String(), nil
}

func (RegexpKind) Default() any { return Undefined }

// fieldValidate runs validator tags for constrained kinds.
var fieldValidate = validator.New()

// ConstrainedKind runs a validator tag after its base kind.
type ConstrainedKind struct {
	base Kind
	tag  string
}

// Constrained returns a kind that validates with base and then checks the
// result against a go-playground/validator tag such as "hostname" or
// "gte=1,lte=64".
func Constrained(base Kind, tag string) *ConstrainedKind {
	return &ConstrainedKind{base: base, tag: tag}
}

// Base returns the wrapped kind.
func (k *ConstrainedKind) Base() Kind { return k.base }

func (k *ConstrainedKind) ValueKind() ValueKind { return k.base.ValueKind() }

func (k *ConstrainedKind) Info() string {
	return fmt.Sprintf("%s (%s)", k.base.Info(), k.tag)
}

func (k *ConstrainedKind) Validate(v any) (any, error) {
	x, err := k.base.Validate(v)
	if err != nil {
		return nil, err
	}
	if err := fieldValidate.Var(x, k.tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, mismatchCause(k.Info(), v, fmt.Errorf("failed the %q constraint", verrs[0].ActualTag()))
		}
		return nil, mismatchCause(k.Info(), v, err)
	}
	return x, nil
}

func (k *ConstrainedKind) FromString(s string) (any, error) {
	x, err := k.base.FromString(s)
	if err != nil {
		return nil, err
	}
	return k.Validate(x)
}

func (k *ConstrainedKind) Format(v any) (string, error) { return k.base.Format(v) }

func (k *ConstrainedKind) Default() any { return k.base.Default() }

// CallableKind accepts non-nil Go functions of any signature.
type CallableKind struct{}

// Callable returns a kind that accepts any function value.
func Callable() CallableKind { return CallableKind{} }

func (CallableKind) ValueKind() ValueKind { return ValueKindInstance }

func (CallableKind) Info() string { return "a callable" }

func (k CallableKind) Validate(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, mismatch(k.Info(), v)
	}
	return v, nil
}

func (k CallableKind) FromString(string) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoTextForm, k.Info())
}

func (k CallableKind) Format(v any) (string, error) {
	if _, err := k.Validate(v); err != nil {
		return "", err
	}
	return reflect.TypeOf(v).String(), nil
}

func (CallableKind) Default() any { return Undefined }

// TypeKind accepts reflect.Type values assignable to a Go type: for an
// interface, the types that implement it.
type TypeKind struct {
	typ reflect.Type
}

// Type returns a kind whose values are types assignable to T. The default
// is T itself.
func Type[T any]() *TypeKind {
	return &TypeKind{typ: reflect.TypeFor[T]()}
}

func (k *TypeKind) ValueKind() ValueKind { return ValueKindInstance }

func (k *TypeKind) Info() string { return "a subtype of " + k.typ.String() }

func (k *TypeKind) Validate(v any) (any, error) {
	t, ok := v.(reflect.Type)
	if !ok || t == nil || !t.AssignableTo(k.typ) {
		return nil, mismatch(k.Info(), v)
	}
	return t, nil
}

func (k *TypeKind) FromString(string) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNoTextForm, k.Info())
}

func (k *TypeKind) Format(v any) (string, error) {
	t, ok := v.(reflect.Type)
	if !ok || t == nil {
		return "", mismatch(k.Info(), v)
	}
	return t.String(), nil
}

func (k *TypeKind) Default() any { return k.typ }
