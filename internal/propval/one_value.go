package propval

import (
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/metagraph/internal/model"
)

type box[T any] struct {
	v T
}

// OneValue is a to-one property container.
//
// The deferred form holds a Resolver; the first read resolves it under the
// container lock and collapses the container to the resolved form. Reads of a
// resolved container take no lock.
type OneValue[T any] struct {
	mu      sync.Mutex
	pending atomic.Pointer[Resolver[T]]
	value   atomic.Pointer[box[T]]
	conv    Converter[T]
}

// NewOneValue returns a resolved container holding v. A nil v yields an empty
// container.
func NewOneValue[T any](conv Converter[T], v T) *OneValue[T] {
	o := &OneValue[T]{conv: conv}
	if !isNil(v) {
		o.value.Store(&box[T]{v: v})
	}
	return o
}

// NewEmptyOneValue returns a resolved, empty container.
func NewEmptyOneValue[T any](conv Converter[T]) *OneValue[T] {
	return &OneValue[T]{conv: conv}
}

// NewDeferredOneValue returns a container that resolves supplier on first read.
func NewDeferredOneValue[T any](conv Converter[T], supplier Supplier[T]) *OneValue[T] {
	return newDeferredOneValue(conv, NewResolver(supplier))
}

func newDeferredOneValue[T any](conv Converter[T], r *Resolver[T]) *OneValue[T] {
	o := &OneValue[T]{conv: conv}
	o.pending.Store(r)
	return o
}

func (o *OneValue[T]) resolve() error {
	if o.pending.Load() == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolveLocked()
}

func (o *OneValue[T]) resolveLocked() error {
	r := o.pending.Load()
	if r == nil {
		return nil
	}
	v, err := r.Get()
	if err != nil {
		return err
	}
	if isNil(v) {
		o.value.Store(nil)
	} else {
		o.value.Store(&box[T]{v: v})
	}
	o.pending.Store(nil)
	return nil
}

// Value returns the held value, resolving a deferred container first. The
// second result reports whether a value is present.
func (o *OneValue[T]) Value() (T, bool, error) {
	if err := o.resolve(); err != nil {
		var zero T
		return zero, false, err
	}
	if b := o.value.Load(); b != nil {
		return b.v, true, nil
	}
	var zero T
	return zero, false, nil
}

// Values returns the held value as a slice of zero or one element.
func (o *OneValue[T]) Values() ([]T, error) {
	v, ok, err := o.Value()
	if err != nil || !ok {
		return nil, err
	}
	return []T{v}, nil
}

// SetValue replaces the contents, discarding any pending computation.
func (o *OneValue[T]) SetValue(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if isNil(v) {
		o.value.Store(nil)
	} else {
		o.value.Store(&box[T]{v: v})
	}
	o.pending.Store(nil)
}

// SetValues replaces the contents from a slice of at most one element.
func (o *OneValue[T]) SetValues(vs []T) error {
	switch len(vs) {
	case 0:
		o.RemoveAllValues()
		return nil
	case 1:
		o.SetValue(vs[0])
		return nil
	default:
		return model.Errorf(model.ErrCardinality,
			"cannot set multiple values for a to-one property: %d values provided", len(vs))
	}
}

// AddValue sets v if the container is empty. It fails with ErrValuePresent when
// a value is held, and also while a value is still deferred.
func (o *OneValue[T]) AddValue(v T) error {
	if o.pending.Load() != nil || !o.value.CompareAndSwap(nil, &box[T]{v: v}) {
		return model.Errorf(model.ErrValuePresent, "cannot add value: value already present")
	}
	return nil
}

// RemoveValue clears the container if it holds a value equal to v.
func (o *OneValue[T]) RemoveValue(v T) (bool, error) {
	return o.removeMatching(func(cur T) bool {
		return model.ValuesEqual(any(cur), any(v))
	})
}

func (o *OneValue[T]) removeMatching(match func(T) bool) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.resolveLocked(); err != nil {
		return false, err
	}
	cur := o.value.Load()
	if cur == nil || !match(cur.v) {
		return false, nil
	}
	return o.value.CompareAndSwap(cur, nil), nil
}

// RemoveAllValues empties the container without resolving it.
func (o *OneValue[T]) RemoveAllValues() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value.Store(nil)
	o.pending.Store(nil)
}

// Copy returns an independent container. A still-deferred container yields a
// deferred copy sharing the resolver, so neither side forces the other.
func (o *OneValue[T]) Copy() *OneValue[T] {
	if r := o.pending.Load(); r != nil && !r.IsResolved() {
		return newDeferredOneValue(o.conv, r)
	}
	v, ok, _ := o.Value()
	if !ok {
		return NewEmptyOneValue(o.conv)
	}
	return NewOneValue(o.conv, v)
}

func (o *OneValue[T]) IsToMany() bool {
	return false
}

func (o *OneValue[T]) HasValue() bool {
	return o.pending.Load() != nil || o.value.Load() != nil
}

func (o *OneValue[T]) IsFullyResolved() bool {
	r := o.pending.Load()
	return r == nil || r.IsResolved()
}

func (o *OneValue[T]) InstanceValue() (model.Instance, error) {
	v, ok, err := o.Value()
	if err != nil || !ok {
		return nil, err
	}
	return o.conv.ToInstance(v), nil
}

func (o *OneValue[T]) InstanceValues() ([]model.Instance, error) {
	inst, err := o.InstanceValue()
	if err != nil || inst == nil {
		return nil, err
	}
	return []model.Instance{inst}, nil
}

func (o *OneValue[T]) ValueByIDIndex(spec *model.IndexSpec, key interface{}) (model.Instance, error) {
	inst, err := o.InstanceValue()
	if err != nil || inst == nil {
		return nil, err
	}
	k, err := spec.Key(inst)
	if err != nil {
		return nil, err
	}
	if k == key {
		return inst, nil
	}
	return nil, nil
}

func (o *OneValue[T]) ValuesByIndex(spec *model.IndexSpec, key interface{}) ([]model.Instance, error) {
	inst, err := o.ValueByIDIndex(spec, key)
	if err != nil || inst == nil {
		return nil, err
	}
	return []model.Instance{inst}, nil
}

func (o *OneValue[T]) SetInstanceValues(values []model.Instance) error {
	converted, err := fromInstances(o.conv, values)
	if err != nil {
		return err
	}
	return o.SetValues(converted)
}

func (o *OneValue[T]) SetInstanceValueAt(offset int, value model.Instance) error {
	if offset != 0 {
		return model.Errorf(model.ErrCardinality, "invalid offset %d for a to-one property", offset)
	}
	v, err := o.conv.FromInstance(value)
	if err != nil {
		return err
	}
	o.SetValue(v)
	return nil
}

func (o *OneValue[T]) AddInstanceValue(value model.Instance) error {
	v, err := o.conv.FromInstance(value)
	if err != nil {
		return err
	}
	return o.AddValue(v)
}

func (o *OneValue[T]) RemoveInstanceValue(value model.Instance) (bool, error) {
	return o.removeMatching(func(cur T) bool {
		return model.ValuesEqual(o.conv.ToInstance(cur), value)
	})
}

func (o *OneValue[T]) CopyValue() PropertyValue {
	return o.Copy()
}

func fromInstances[T any](conv Converter[T], values []model.Instance) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, inst := range values {
		v, err := conv.FromInstance(inst)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
