package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reactivelabs/reactivecore/reactive"
)

func TestObserveIsIdempotent(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})

	ob1, err := reactive.Observe(rs, m, false)
	assert.NoError(t, err)
	assert.NotNil(t, ob1)

	ob2, err := reactive.Observe(rs, m, false)
	assert.NoError(t, err)
	assert.Same(t, ob1, ob2)
}

func TestObserveSkipsFrozenVNodeAndInstanceContainers(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())

	frozen := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	frozen.Freeze()
	ob, err := reactive.Observe(rs, frozen, false)
	assert.NoError(t, err)
	assert.Nil(t, ob)

	vnode := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	vnode.MarkAsVNode()
	ob, err = reactive.Observe(rs, vnode, false)
	assert.NoError(t, err)
	assert.Nil(t, ob)

	instance := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	instance.MarkAsInstance()
	ob, err = reactive.Observe(rs, instance, false)
	assert.NoError(t, err)
	assert.Nil(t, ob)
}

func TestObserveHonorsShouldObserveSwitch(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	prev := rs.ToggleObserving(false)
	defer rs.ToggleObserving(prev)

	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	ob, err := reactive.Observe(rs, m, false)
	assert.NoError(t, err)
	assert.Nil(t, ob)
}

func TestObserveHonorsServerRendering(t *testing.T) {
	rs := reactive.New(reactive.Config{Async: true, MaxUpdateCount: 100, ServerRendering: true})
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	ob, err := reactive.Observe(rs, m, false)
	assert.NoError(t, err)
	assert.Nil(t, ob)
}

func TestMarkAsRootRefusesShapeMutation(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	ob, err := reactive.Observe(rs, m, true)
	assert.NoError(t, err)
	assert.True(t, ob.IsRoot())

	_, err = reactive.Set(rs, m, "b", 2)
	assert.NoError(t, err)
	assert.False(t, m.HasOwn("b"))

	ob.UnmarkAsRoot()
	assert.False(t, ob.IsRoot())
	_, err = reactive.Set(rs, m, "b", 2)
	assert.NoError(t, err)
	assert.True(t, m.HasOwn("b"))
}

// TestDependencyEdgeSymmetryAndBranchShedding checks, through which
// mutations fire the callback, that a tracker is subscribed to exactly the
// deps its last evaluation touched, and stops being notified by a dep once
// a getter no longer touches it across a re-evaluation (branch shedding).
func TestDependencyEdgeSymmetryAndBranchShedding(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "useA", Value: true}, reactive.KV{Key: "a", Value: 1}, reactive.KV{Key: "b", Value: 2})
	reactive.DefineReactive(rs, m, "useA", true, nil, false)
	reactive.DefineReactive(rs, m, "a", 1, nil, false)
	reactive.DefineReactive(rs, m, "b", 2, nil, false)

	runs := 0
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		useA, _ := m.Get("useA")
		if useA.(bool) {
			v, _ := m.Get("a")
			return v, nil
		}
		v, _ := m.Get("b")
		return v, nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true}, false)
	assert.NoError(t, err)

	// still depends on "a": a mutation to "b" must not trigger a run.
	assert.NoError(t, m.Set("b", 20))
	assert.Equal(t, 0, runs)

	assert.NoError(t, m.Set("useA", false))
	assert.Equal(t, 1, runs)

	// now depends on "b" only: "a" must be shed from the dependency set.
	assert.NoError(t, m.Set("a", 100))
	assert.Equal(t, 1, runs)

	assert.NoError(t, m.Set("b", 21))
	assert.Equal(t, 2, runs)
}

// TestNoDoubleSubscribeAcrossReEvaluations makes sure re-reading the same
// key across successive Get calls within one evaluation, or across
// multiple re-evaluations, never grows the subscriber list past one entry.
func TestNoDoubleSubscribeAcrossReEvaluations(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	reactive.DefineReactive(rs, m, "a", 1, nil, false)

	// Before fires on every Run, even when the value is unchanged, so it
	// counts notifications: a duplicate subscription would add a Run.
	runs, reruns := 0, 0
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := m.Get("a")
		v2, _ := m.Get("a")
		return v.(int) + v2.(int), nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true, Before: func() { reruns++ }}, false)
	assert.NoError(t, err)

	assert.NoError(t, m.Set("a", 5))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, reruns)
	assert.NoError(t, m.Set("a", 6))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, reruns)
}
