package propval

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagraph/internal/model"
)

func countingSupplier[T any](counter *atomic.Int32, v T) Supplier[T] {
	return func() (T, error) {
		counter.Add(1)
		return v, nil
	}
}

func TestOneValue_ConcurrentReadsResolveOnce(t *testing.T) {
	repo := model.NewRepository()
	target := repo.NewStringInstanceCached("target")

	var calls atomic.Int32
	o := NewDeferredOneValue[model.Instance](InstanceConverter{}, countingSupplier[model.Instance](&calls, target))

	const goroutines = 64
	var wg sync.WaitGroup
	results := make([]model.Instance, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := o.Value()
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, target, r)
	}
	assert.True(t, o.IsFullyResolved())
}

func TestOneValue_HasValueIsOptimisticWhileDeferred(t *testing.T) {
	var calls atomic.Int32
	o := NewDeferredOneValue[model.Instance](InstanceConverter{}, countingSupplier[model.Instance](&calls, nil))

	assert.True(t, o.HasValue())
	assert.False(t, o.IsFullyResolved())
	assert.Equal(t, int32(0), calls.Load())

	_, ok, err := o.Value()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, o.HasValue())
}

func TestOneValue_AddValue(t *testing.T) {
	repo := model.NewRepository()
	a := repo.NewStringInstanceCached("a")
	b := repo.NewStringInstanceCached("b")

	t.Run("empty accepts one value", func(t *testing.T) {
		o := NewEmptyOneValue[model.Instance](InstanceConverter{})
		require.NoError(t, o.AddValue(a))
		err := o.AddValue(b)
		assert.True(t, errors.Is(err, model.ErrValuePresent))

		v, _, err := o.Value()
		require.NoError(t, err)
		assert.Same(t, a, v)
	})

	t.Run("deferred counts as present", func(t *testing.T) {
		var calls atomic.Int32
		o := NewDeferredOneValue[model.Instance](InstanceConverter{}, countingSupplier[model.Instance](&calls, a))
		err := o.AddValue(b)
		assert.True(t, errors.Is(err, model.ErrValuePresent))
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestOneValue_RemoveValueResolvesFirst(t *testing.T) {
	repo := model.NewRepository()
	a := repo.NewStringInstanceCached("a")

	var calls atomic.Int32
	o := NewDeferredOneValue[model.Instance](InstanceConverter{}, countingSupplier[model.Instance](&calls, a))

	removed, err := o.RemoveValue(repo.NewStringInstanceCached("other"))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, int32(1), calls.Load())

	removed, err = o.RemoveValue(a)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, o.HasValue())
}

func TestOneValue_SetValuesCardinality(t *testing.T) {
	repo := model.NewRepository()
	o := NewEmptyOneValue[model.Instance](InstanceConverter{})

	err := o.SetInstanceValues([]model.Instance{repo.NewStringInstanceCached("a"), repo.NewStringInstanceCached("b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrCardinality))
	assert.Contains(t, err.Error(), "2 values provided")

	err = o.SetInstanceValueAt(1, repo.NewStringInstanceCached("a"))
	assert.True(t, errors.Is(err, model.ErrCardinality))

	require.NoError(t, o.SetInstanceValueAt(0, repo.NewStringInstanceCached("a")))
	v, err := o.InstanceValue()
	require.NoError(t, err)
	assert.Equal(t, "a", v.Name())
}

func TestOneValue_CopyDoesNotForceResolution(t *testing.T) {
	repo := model.NewRepository()
	target := repo.NewStringInstanceCached("target")

	var calls atomic.Int32
	original := NewDeferredOneValue[model.Instance](InstanceConverter{}, countingSupplier[model.Instance](&calls, target))
	cp := original.Copy()

	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, cp.IsFullyResolved())

	v, _, err := cp.Value()
	require.NoError(t, err)
	assert.Same(t, target, v)
	assert.Equal(t, int32(1), calls.Load())

	v, _, err = original.Value()
	require.NoError(t, err)
	assert.Same(t, target, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOneValue_CopyIndependence(t *testing.T) {
	repo := model.NewRepository()
	a := repo.NewStringInstanceCached("a")
	b := repo.NewStringInstanceCached("b")

	original := NewOneValue[model.Instance](InstanceConverter{}, a)
	cp := original.Copy()
	cp.SetValue(b)

	v, _, err := original.Value()
	require.NoError(t, err)
	assert.Same(t, a, v)

	v, _, err = cp.Value()
	require.NoError(t, err)
	assert.Same(t, b, v)
}

func TestOneValue_FailedResolutionRetries(t *testing.T) {
	repo := model.NewRepository()
	target := repo.NewStringInstanceCached("target")

	var calls atomic.Int32
	o := NewDeferredOneValue[model.Instance](InstanceConverter{}, func() (model.Instance, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("not yet")
		}
		return target, nil
	})

	_, _, err := o.Value()
	require.Error(t, err)
	assert.False(t, o.IsFullyResolved())

	v, _, err := o.Value()
	require.NoError(t, err)
	assert.Same(t, target, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOneValue_DirectPrimitivesReadAsInstances(t *testing.T) {
	repo := model.NewRepository()
	o := NewOneValue[any](AnyConverter{Repo: repo}, "hello")

	v, ok, err := o.Value()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	inst, err := o.InstanceValue()
	require.NoError(t, err)
	assert.Same(t, repo.NewStringInstanceCached("hello"), inst)

	removed, err := o.RemoveInstanceValue(repo.NewStringInstanceCached("hello"))
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestOneValue_ByIndex(t *testing.T) {
	repo := model.NewRepository()
	a := repo.NewStringInstanceCached("a")
	o := NewOneValue[model.Instance](InstanceConverter{}, a)

	v, err := o.ValueByIDIndex(model.NameIndex, "a")
	require.NoError(t, err)
	assert.Same(t, a, v)

	vs, err := o.ValuesByIndex(model.NameIndex, "b")
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestStringConverter(t *testing.T) {
	repo := model.NewRepository()
	o := NewOneValue[string](StringConverter{Repo: repo}, "typed")

	inst, err := o.InstanceValue()
	require.NoError(t, err)
	assert.Same(t, repo.NewStringInstanceCached("typed"), inst)

	require.NoError(t, o.SetInstanceValues([]model.Instance{repo.NewStringInstanceCached("next")}))
	v, _, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, "next", v)

	err = o.SetInstanceValues([]model.Instance{repo.NewIntegerInstance(1)})
	assert.Error(t, err)
}
