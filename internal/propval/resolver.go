package propval

import (
	"sync"
	"sync/atomic"
)

// Supplier produces a property value on demand.
type Supplier[T any] func() (T, error)

// Resolver memoizes a Supplier. The supplier runs until it first succeeds and
// never again after that; the reference to it is dropped once a value is held.
// A Resolver may be shared by several containers (a deferred value and its
// copies), which then observe a single computation.
type Resolver[T any] struct {
	mu       sync.Mutex
	done     atomic.Bool
	supplier Supplier[T]
	value    T
}

// NewResolver wraps a supplier.
func NewResolver[T any](supplier Supplier[T]) *Resolver[T] {
	return &Resolver[T]{supplier: supplier}
}

// ResolvedResolver returns a resolver that already holds v.
func ResolvedResolver[T any](v T) *Resolver[T] {
	r := &Resolver[T]{value: v}
	r.done.Store(true)
	return r
}

// Get returns the memoized value, running the supplier if needed. A failing
// supplier leaves the resolver unresolved so a later call retries.
func (r *Resolver[T]) Get() (T, error) {
	if r.done.Load() {
		return r.value, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done.Load() {
		return r.value, nil
	}

	v, err := r.supplier()
	if err != nil {
		var zero T
		return zero, err
	}
	r.value = v
	r.supplier = nil
	r.done.Store(true)
	return v, nil
}

// IsResolved reports whether the value has been computed.
func (r *Resolver[T]) IsResolved() bool {
	return r.done.Load()
}

func isNil[T any](v T) bool {
	return any(v) == nil
}
