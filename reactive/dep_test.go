package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reactivelabs/reactivecore/reactive"
)

func TestDepNotifiesEverySubscriber(t *testing.T) {
	rs := reactive.New(reactive.Config{Async: false})
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "n", Value: 1})
	reactive.DefineReactive(rs, m, "n", 1, nil, false)

	runs := 0
	_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
		v, _ := m.Get("n")
		return v, nil
	}), func(newValue, oldValue any) error {
		runs++
		return nil
	}, reactive.Options{Sync: true}, false)
	assert.NoError(t, err)

	assert.NoError(t, m.Set("n", 2))
	assert.Equal(t, 1, runs)
	assert.NoError(t, m.Set("n", 3))
	assert.Equal(t, 2, runs)
}

func TestDepDependOutsideEvaluationIsNoop(t *testing.T) {
	rs := reactive.New(reactive.DefaultConfig())
	dep := reactive.NewDep(rs)
	assert.NotPanics(t, func() { dep.Depend() })

	other := reactive.NewDep(rs)
	assert.NotEqual(t, dep.ID(), other.ID())
}

func TestDepNotifyInSyncModeOrdersByCreationID(t *testing.T) {
	rs := reactive.New(reactive.Config{Async: false})
	m := reactive.NewReactiveMap(rs, reactive.KV{Key: "n", Value: 0})
	reactive.DefineReactive(rs, m, "n", 0, nil, false)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
			v, _ := m.Get("n")
			return v, nil
		}), func(newValue, oldValue any) error {
			order = append(order, i)
			return nil
		}, reactive.Options{Sync: true}, false)
		assert.NoError(t, err)
	}

	assert.NoError(t, m.Set("n", 1))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
