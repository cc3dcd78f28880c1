package traits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSyncsBothWays(t *testing.T) {
	a := twoTraitObject(t)
	b := twoTraitObject(t)
	require.NoError(t, a.Set("foo", 5))

	l, err := NewLink(Endpoint{a, "foo"}, Endpoint{b, "bar"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.MustGet("bar"))

	require.NoError(t, a.Set("foo", 6))
	assert.Equal(t, int64(6), b.MustGet("bar"))
	require.NoError(t, b.Set("bar", 7))
	assert.Equal(t, int64(7), a.MustGet("foo"))

	l.Unlink()
	require.NoError(t, a.Set("foo", 1))
	assert.Equal(t, int64(7), b.MustGet("bar"))
}

func TestLinkTransform(t *testing.T) {
	a := twoTraitObject(t)
	b := twoTraitObject(t)
	double := func(v any) (any, error) { return v.(int64) * 2, nil }
	half := func(v any) (any, error) { return v.(int64) / 2, nil }

	_, err := NewLink(Endpoint{a, "foo"}, Endpoint{b, "foo"}, WithTransform(double, half))
	require.NoError(t, err)

	require.NoError(t, a.Set("foo", 3))
	assert.Equal(t, int64(6), b.MustGet("foo"))
	require.NoError(t, b.Set("foo", 10))
	assert.Equal(t, int64(5), a.MustGet("foo"))
}

func TestDirectionalLink(t *testing.T) {
	a := twoTraitObject(t)
	b := twoTraitObject(t)

	l, err := NewDirectionalLink(Endpoint{a, "foo"}, Endpoint{b, "bar"}, nil)
	require.NoError(t, err)

	require.NoError(t, a.Set("foo", 2))
	assert.Equal(t, int64(2), b.MustGet("bar"))
	require.NoError(t, b.Set("bar", 8))
	assert.Equal(t, int64(2), a.MustGet("foo"))

	l.Unlink()
	require.NoError(t, a.Set("foo", 3))
	assert.Equal(t, int64(8), b.MustGet("bar"))
}

func TestLinkErrors(t *testing.T) {
	a := twoTraitObject(t)
	b := twoTraitObject(t)

	_, err := NewLink(Endpoint{a, "nope"}, Endpoint{b, "bar"})
	assert.ErrorIs(t, err, ErrUnknownTrait)
	_, err = NewLink(Endpoint{nil, "foo"}, Endpoint{b, "bar"})
	assert.ErrorIs(t, err, ErrUnknownTrait)

	bad := errors.New("bad transform")
	_, err = NewDirectionalLink(Endpoint{a, "foo"}, Endpoint{b, "bar"},
		func(any) (any, error) { return nil, bad })
	assert.ErrorIs(t, err, bad)
}

func TestBrokenLink(t *testing.T) {
	a := twoTraitObject(t)
	b := twoTraitObject(t)
	_, err := NewDirectionalLink(Endpoint{a, "foo"}, Endpoint{b, "bar"}, nil)
	require.NoError(t, err)

	b.Observe(func(c ChangeRecord) error {
		return a.Set("foo", 100)
	}, []string{"bar"}, "")

	err = a.Set("foo", 1)
	assert.ErrorIs(t, err, ErrBrokenLink)
}
