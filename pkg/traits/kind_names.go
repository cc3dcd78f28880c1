package traits

import (
	"go/token"
	"strings"
)

// ObjectNameKind accepts Go identifiers, or dot-separated paths of them.
type ObjectNameKind struct {
	dotted bool
}

// ObjectName returns a kind that accepts a single Go identifier.
func ObjectName() *ObjectNameKind { return &ObjectNameKind{} }

// DottedObjectName returns a kind that accepts identifiers joined by dots,
// such as "handlers.json.Encoder".
func DottedObjectName() *ObjectNameKind { return &ObjectNameKind{dotted: true} }

func (k *ObjectNameKind) ValueKind() ValueKind { return ValueKindText }

func (k *ObjectNameKind) Info() string {
	if k.dotted {
		return "a valid dotted object name"
	}
	return "a valid object identifier"
}

func (k *ObjectNameKind) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		b, isBytes := v.([]byte)
		if !isBytes {
			return nil, mismatch(k.Info(), v)
		}
		s = string(b)
	}
	parts := []string{s}
	if k.dotted {
		parts = strings.Split(s, ".")
	}
	for _, p := range parts {
		if !token.IsIdentifier(p) {
			return nil, mismatch(k.Info(), v)
		}
	}
	return s, nil
}

func (k *ObjectNameKind) FromString(s string) (any, error) {
	return k.Validate(strings.TrimSpace(s))
}

func (k *ObjectNameKind) Format(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(k.Info(), v)
	}
	return s, nil
}

func (k *ObjectNameKind) Default() any { return Undefined }
