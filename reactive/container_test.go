package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reactivelabs/reactivecore/reactive"
)

func TestReactiveMapKeysPreserveInsertionOrder(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "c", Value: 3}, reactive.KV{Key: "a", Value: 1}, reactive.KV{Key: "b", Value: 2})
	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())

	_, err := reactive.Set(rs, m, "z", 26)
	assert.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "z"}, m.Keys())
}

func TestReactiveMapGetOnUnobservedContainerDoesNotPanic(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestReactiveMapSetWithoutAccessorDegradesToPlainAssignment(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})

	assert.NoError(t, m.Set("a", 2))
	v, _ := m.Get("a")
	assert.Equal(t, 2, v)
}

// TestSetReplacesContainerEvenWhenStructurallyEqual verifies the write
// guard uses reference identity, not reflect.DeepEqual: a brand-new
// *ReactiveMap with the same keys and values as the old one is still a
// distinct reference, so the write must not be treated as a no-op.
func TestSetReplacesContainerEvenWhenStructurallyEqual(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	first := reactive.NewReactiveMap(rs, reactive.KV{Key: "x", Value: 1})
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "child", Value: first})
	reactive.DefineReactive(rs, m, "child", first, nil, false)

	runs := 0
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := m.Get("child")
		return v, nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true}, false)
	assert.NoError(t, err)

	second := reactive.NewReactiveMap(rs, reactive.KV{Key: "x", Value: 1})
	assert.NoError(t, m.Set("child", second))
	assert.Equal(t, 1, runs, "distinct container with equal contents must still fire Notify")

	assert.NoError(t, m.Set("child", second))
	assert.Equal(t, 1, runs, "re-setting the same reference is a genuine no-op")
}

func TestDeleteThenReAddIsObservedAgain(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	reactive.DefineReactive(rs, m, "a", 1, nil, false)

	assert.NoError(t, reactive.Del(rs, m, "a"))
	assert.False(t, m.HasOwn("a"))

	_, err := reactive.Set(rs, m, "a", 5)
	assert.NoError(t, err)
	assert.True(t, m.HasOwn("a"))
	v, _ := m.Get("a")
	assert.Equal(t, 5, v)
}
