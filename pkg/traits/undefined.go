package traits

// UndefinedValue is the type of Undefined. No kind accepts it, so it can never
// be stored as a trait value.
type UndefinedValue struct{}

func (UndefinedValue) String() string { return "Undefined" }

// Undefined marks "no value yet": the Old field of the first ChangeRecord for
// a trait, and a static default that was never provided.
var Undefined = UndefinedValue{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedValue)
	return ok
}
