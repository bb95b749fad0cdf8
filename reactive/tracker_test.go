package reactive_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reactivelabs/reactivecore/reactive"
)

func TestLazyTrackerIsMemoizedUntilDependencyChanges(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 2})
	reactive.DefineReactive(rs, m, "a", 2, nil, false)

	evaluations := 0
	tr, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		evaluations++
		v, _ := m.Get("a")
		return v.(int) * v.(int), nil
	}), nil, reactive.Options{Lazy: true}, false)
	assert.NoError(t, err)
	assert.True(t, tr.Dirty())

	v, err := tr.Value()
	assert.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 1, evaluations)
	assert.False(t, tr.Dirty())

	// re-reading without a dependency change must not re-evaluate.
	v, err = tr.Value()
	assert.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 1, evaluations)

	assert.NoError(t, m.Set("a", 3))
	assert.True(t, tr.Dirty())

	v, err = tr.Value()
	assert.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, 2, evaluations)
}

// TestLazyTrackerDependForwarding verifies that a consumer reading a
// memoized value transitively subscribes to the memoized value's own
// inputs, via Tracker.Depend/Value.
func TestLazyTrackerDependForwarding(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	reactive.DefineReactive(rs, m, "a", 1, nil, false)

	doubled, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := m.Get("a")
		return v.(int) * 2, nil
	}), nil, reactive.Options{Lazy: true}, false)
	assert.NoError(t, err)

	consumerRuns := 0
	_, err = reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		return doubled.Value()
	}), func(newValue, oldValue any) error {
		consumerRuns++
		return nil
	}, reactive.Options{Sync: true}, false)
	assert.NoError(t, err)

	assert.NoError(t, m.Set("a", 2))
	assert.Equal(t, 1, consumerRuns)
}

func TestDeepTrackerReactsToNestedMutation(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	inner := reactive.NewReactiveMap(rs, reactive.KV{Key: "x", Value: 1})
	reactive.DefineReactive(rs, inner, "x", 1, nil, false)

	outer := reactive.NewReactiveMap(rs, reactive.KV{Key: "inner", Value: inner})
	reactive.DefineReactive(rs, outer, "inner", inner, nil, false)

	runs := 0
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := outer.Get("inner")
		return v, nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true, Deep: true}, false)
	assert.NoError(t, err)

	assert.NoError(t, inner.Set("x", 2))
	assert.Equal(t, 1, runs)
}

func TestUserTrackerGetterErrorRoutesThroughErrorHandler(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	var handled error
	rs.SetErrorHandler(func(err error, host any, info string) {
		handled = err
	})

	boom := errors.New("boom")
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		return nil, boom
	}), nil, reactive.Options{User: true}, false)
	assert.NoError(t, err)
	assert.ErrorIs(t, handled, boom)
}

func TestNonUserTrackerGetterErrorPropagatesFromNewTracker(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	boom := errors.New("boom")
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		return nil, boom
	}), nil, reactive.Options{}, false)
	assert.ErrorIs(t, err, boom)
}

// TestBeforeHookRunsUnconditionallyBeforeReevaluation drives a Dep directly
// (bypassing ReactiveMap.Set's no-op-on-unchanged-value guard) so Run
// executes even though the getter's return value never actually changes —
// Before must still fire on every such Run, only the callback is
// conditional on the value changing.
func TestBeforeHookRunsUnconditionallyBeforeReevaluation(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	dep := reactive.NewDep(rs)

	var beforeCalls, cbCalls int
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		dep.Depend()
		return 1, nil
	}), func(newValue, oldValue any) error {
		cbCalls++
		return nil
	}, reactive.Options{Sync: true, Before: func() { beforeCalls++ }}, false)
	assert.NoError(t, err)

	dep.Notify()
	assert.Equal(t, 1, beforeCalls)
	assert.Equal(t, 0, cbCalls)

	dep.Notify()
	assert.Equal(t, 2, beforeCalls)
	assert.Equal(t, 0, cbCalls)
}

func TestTeardownUnsubscribesFromEveryDep(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "a", Value: 1})
	reactive.DefineReactive(rs, m, "a", 1, nil, false)

	runs := 0
	tr, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := m.Get("a")
		return v, nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true}, false)
	assert.NoError(t, err)

	tr.Teardown(false)
	assert.False(t, tr.Active())

	assert.NoError(t, m.Set("a", 2))
	assert.Equal(t, 0, runs)
}
