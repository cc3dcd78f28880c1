package traits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(into *[]ChangeRecord) ObserverFunc {
	return func(c ChangeRecord) error {
		*into = append(*into, c)
		return nil
	}
}

func names(recs []ChangeRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func twoTraitObject(t *testing.T, opts ...Option) *Object {
	t.Helper()
	cls := NewClass("Pair").Trait(
		Declare("foo", Int(), opts...),
		Declare("bar", Int(), opts...),
	).MustBuild()
	o, err := cls.New(nil)
	require.NoError(t, err)
	return o
}

func TestObserveNameFilter(t *testing.T) {
	o := twoTraitObject(t)
	var onlyBar, every []ChangeRecord
	o.Observe(recorder(&onlyBar), []string{"bar"}, "")
	o.Observe(recorder(&every), nil, "")

	require.NoError(t, o.Set("foo", 1))
	require.NoError(t, o.Set("bar", 2))
	require.NoError(t, o.Set("foo", 3))

	assert.Equal(t, []string{"bar"}, names(onlyBar))
	assert.Equal(t, []string{"foo", "bar", "foo"}, names(every))
}

func TestChangeRecordContents(t *testing.T) {
	o := twoTraitObject(t)
	var got []ChangeRecord
	o.Observe(recorder(&got), nil, "")

	require.NoError(t, o.Set("foo", 1))
	require.NoError(t, o.Set("foo", 2))

	require.Len(t, got, 2)
	assert.Same(t, o, got[0].Owner)
	assert.True(t, IsUndefined(got[0].Old))
	assert.Equal(t, int64(1), got[0].New)
	assert.Equal(t, KindChange, got[0].Kind)
	assert.Equal(t, int64(1), got[1].Old)
	assert.Equal(t, int64(2), got[1].New)
}

func TestUnchangedValueNotReported(t *testing.T) {
	o := twoTraitObject(t)
	var got []ChangeRecord
	require.NoError(t, o.Set("foo", 1))
	o.Observe(recorder(&got), nil, "")

	require.NoError(t, o.Set("foo", 1))
	require.NoError(t, o.Set("foo", uint8(1)))
	assert.Empty(t, got)

	loud := twoTraitObject(t, AlwaysNotify())
	require.NoError(t, loud.Set("foo", 1))
	loud.Observe(recorder(&got), nil, "")
	require.NoError(t, loud.Set("foo", 1))
	assert.Len(t, got, 1)
}

func TestDefaultRecord(t *testing.T) {
	o := twoTraitObject(t)
	var defaults, changes []ChangeRecord
	o.Observe(recorder(&defaults), nil, KindDefault)
	o.Observe(recorder(&changes), nil, "")

	assert.Equal(t, int64(0), o.MustGet("foo"))
	require.Len(t, defaults, 1)
	assert.Equal(t, KindDefault, defaults[0].Kind)
	assert.True(t, IsUndefined(defaults[0].Old))
	assert.Empty(t, changes)

	require.NoError(t, o.Set("foo", 1))
	require.Len(t, changes, 1)
	assert.Equal(t, int64(0), changes[0].Old)
}

func TestKindFilter(t *testing.T) {
	o := twoTraitObject(t)
	var all, custom []ChangeRecord
	o.Observe(recorder(&all), nil, All)
	o.Observe(recorder(&custom), []string{"foo"}, "items")

	require.NoError(t, o.NotifyChange(ChangeRecord{Name: "foo", Kind: "items", New: 1}))
	require.NoError(t, o.Set("bar", 1))

	assert.Equal(t, []string{"foo", "bar"}, names(all))
	require.Len(t, custom, 1)
	assert.Same(t, o, custom[0].Owner)

	assert.ErrorIs(t, o.NotifyChange(ChangeRecord{Name: "nope"}), ErrUnknownTrait)
}

func TestUnobserve(t *testing.T) {
	o := twoTraitObject(t)
	var got []ChangeRecord
	id := o.Observe(recorder(&got), []string{"foo", "bar"}, "")

	assert.False(t, o.Unobserve(id, nil, ""))
	assert.True(t, o.Unobserve(id, []string{"foo"}, ""))
	require.NoError(t, o.Set("foo", 1))
	require.NoError(t, o.Set("bar", 1))
	assert.Equal(t, []string{"bar"}, names(got))

	o.UnobserveAll("bar")
	require.NoError(t, o.Set("bar", 2))
	assert.Len(t, got, 1)

	o.Observe(recorder(&got), nil, "")
	o.UnobserveAll("")
	require.NoError(t, o.Set("foo", 5))
	assert.Len(t, got, 1)
}

func TestStaticObservers(t *testing.T) {
	var order []string
	cls := NewClass("C").
		Trait(Declare("a", Int()), Declare("b", Int())).
		Observe(func(c ChangeRecord) error {
			order = append(order, "static:"+c.Name)
			return nil
		}, []string{"a"}, "").
		MustBuild()
	sub := NewClass("Sub", cls).
		Observe(func(c ChangeRecord) error {
			order = append(order, "sub:"+c.Name)
			return nil
		}, nil, "").
		MustBuild()
	o, err := sub.New(nil)
	require.NoError(t, err)
	o.Observe(func(c ChangeRecord) error {
		order = append(order, "dynamic:"+c.Name)
		return nil
	}, nil, "")

	o.UnobserveAll("")
	require.NoError(t, o.Set("a", 1))
	require.NoError(t, o.Set("b", 1))

	assert.Equal(t, []string{"static:a", "sub:a", "sub:b"}, order)
}

func TestObserverErrorKeepsValue(t *testing.T) {
	o := twoTraitObject(t)
	boom := errors.New("boom")
	var later []ChangeRecord
	o.Observe(func(ChangeRecord) error { return boom }, []string{"foo"}, "")
	o.Observe(recorder(&later), nil, "")

	assert.ErrorIs(t, o.Set("foo", 7), boom)
	assert.Equal(t, int64(7), o.MustGet("foo"))
	assert.Empty(t, later)
}

func TestObserverChainedWrites(t *testing.T) {
	o := twoTraitObject(t)
	var got []ChangeRecord
	o.Observe(func(c ChangeRecord) error {
		return c.Owner.Set("bar", c.New.(int64)*10)
	}, []string{"foo"}, "")
	o.Observe(recorder(&got), []string{"bar"}, "")

	require.NoError(t, o.Set("foo", 2))
	assert.Equal(t, int64(20), o.MustGet("bar"))
	require.Len(t, got, 1)
	assert.Equal(t, int64(20), got[0].New)
}

func TestSelfWriteIsBounded(t *testing.T) {
	o := twoTraitObject(t, AlwaysNotify())
	calls := 0
	o.Observe(func(c ChangeRecord) error {
		calls++
		return c.Owner.Set(c.Name, c.New)
	}, []string{"foo"}, "")

	require.NoError(t, o.Set("foo", 3))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(3), o.MustGet("foo"))
}

func TestSelfWriteNormalizes(t *testing.T) {
	o := twoTraitObject(t)
	calls := 0
	o.Observe(func(c ChangeRecord) error {
		calls++
		if v := c.New.(int64); v%2 != 0 {
			return c.Owner.Set(c.Name, v+1)
		}
		return nil
	}, []string{"foo"}, "")

	require.NoError(t, o.Set("foo", 3))
	assert.Equal(t, int64(4), o.MustGet("foo"))
	assert.Equal(t, 2, calls)
}
