package propval

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/metagraph/internal/model"
)

// ManyValues is a to-many property container.
//
// The deferred form holds one Resolver per element; the first read resolves
// all of them in order under the container lock. Resolved contents are
// replaced copy-on-write, so reads take no lock. Secondary indexes are built
// lazily per IndexSpec once the collection outgrows linear search and are
// maintained on add and remove.
type ManyValues[T any] struct {
	mu      sync.Mutex
	pending atomic.Pointer[[]*Resolver[T]]
	values  atomic.Pointer[[]T]
	indexes *indexCache
	conv    Converter[T]
}

// NewManyValues returns a resolved container holding a copy of vs.
func NewManyValues[T any](conv Converter[T], vs []T) *ManyValues[T] {
	m := &ManyValues[T]{conv: conv}
	cp := slices.Clone(vs)
	m.values.Store(&cp)
	return m
}

// NewDeferredManyValues returns a container whose elements are produced by
// suppliers on first read.
func NewDeferredManyValues[T any](conv Converter[T], suppliers []Supplier[T]) *ManyValues[T] {
	resolvers := make([]*Resolver[T], len(suppliers))
	for i, s := range suppliers {
		resolvers[i] = NewResolver(s)
	}
	return newDeferredManyValues(conv, resolvers)
}

func newDeferredManyValues[T any](conv Converter[T], resolvers []*Resolver[T]) *ManyValues[T] {
	m := &ManyValues[T]{conv: conv}
	empty := []T{}
	m.values.Store(&empty)
	m.pending.Store(&resolvers)
	return m
}

func (m *ManyValues[T]) resolve() error {
	if m.pending.Load() == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked()
}

func (m *ManyValues[T]) resolveLocked() error {
	p := m.pending.Load()
	if p == nil {
		return nil
	}
	out := make([]T, 0, len(*p))
	for _, r := range *p {
		v, err := r.Get()
		if err != nil {
			return err
		}
		if !isNil(v) {
			out = append(out, v)
		}
	}
	m.values.Store(&out)
	m.pending.Store(nil)
	return nil
}

func (m *ManyValues[T]) current() []T {
	return *m.values.Load()
}

// Values returns the elements in order, resolving a deferred container first.
func (m *ManyValues[T]) Values() ([]T, error) {
	if err := m.resolve(); err != nil {
		return nil, err
	}
	return slices.Clone(m.current()), nil
}

// Value returns the single element. It fails with ErrCardinality when the
// collection holds more than one element.
func (m *ManyValues[T]) Value() (T, bool, error) {
	var zero T
	if err := m.resolve(); err != nil {
		return zero, false, err
	}
	vals := m.current()
	switch len(vals) {
	case 0:
		return zero, false, nil
	case 1:
		return vals[0], true, nil
	default:
		return zero, false, model.Errorf(model.ErrCardinality, "expected at most 1 value, found %d", len(vals))
	}
}

// SetValues replaces the contents and drops every cached index.
func (m *ManyValues[T]) SetValues(vs []T) {
	cp := slices.Clone(vs)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values.Store(&cp)
	m.pending.Store(nil)
	m.indexes = nil
}

// SetValueAt replaces the element at offset.
func (m *ManyValues[T]) SetValueAt(offset int, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveLocked(); err != nil {
		return err
	}
	vals := m.current()
	if offset < 0 || offset >= len(vals) {
		return model.Errorf(model.ErrCardinality, "offset %d out of range [0, %d)", offset, len(vals))
	}
	next := slices.Clone(vals)
	next[offset] = v
	m.values.Store(&next)
	m.indexes = nil
	return nil
}

// AddValue appends v.
func (m *ManyValues[T]) AddValue(v T) error {
	return m.AddValues([]T{v})
}

// AddValues appends vs in order.
func (m *ManyValues[T]) AddValues(vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveLocked(); err != nil {
		return err
	}
	vals := m.current()
	next := make([]T, 0, len(vals)+len(vs))
	next = append(next, vals...)
	next = append(next, vs...)
	m.values.Store(&next)
	for _, v := range vs {
		if err := m.indexAddLocked(m.conv.ToInstance(v)); err != nil {
			// The values are stored; the stale cache is rebuilt on the next lookup.
			m.indexes = nil
			return nil
		}
	}
	return nil
}

// RemoveValue removes the first element equal to v.
func (m *ManyValues[T]) RemoveValue(v T) (bool, error) {
	return m.removeMatching(func(cur T) bool {
		return model.ValuesEqual(any(cur), any(v))
	})
}

func (m *ManyValues[T]) removeMatching(match func(T) bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.resolveLocked(); err != nil {
		return false, err
	}
	vals := m.current()
	i := slices.IndexFunc(vals, match)
	if i < 0 {
		return false, nil
	}
	removed := vals[i]
	next := make([]T, 0, len(vals)-1)
	next = append(next, vals[:i]...)
	next = append(next, vals[i+1:]...)
	m.values.Store(&next)

	_, minIndexing := IndexingThresholds()
	if len(next) < minIndexing {
		m.indexes = nil
	} else if err := m.indexRemoveLocked(m.conv.ToInstance(removed)); err != nil {
		m.indexes = nil
	}
	return true, nil
}

// RemoveAllValues empties the container without resolving it.
func (m *ManyValues[T]) RemoveAllValues() {
	m.mu.Lock()
	defer m.mu.Unlock()
	empty := []T{}
	m.values.Store(&empty)
	m.pending.Store(nil)
	m.indexes = nil
}

// Copy returns an independent container. Unresolved elements are shared by
// resolver; cached indexes are never copied.
func (m *ManyValues[T]) Copy() *ManyValues[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.pending.Load(); p != nil {
		return newDeferredManyValues(m.conv, slices.Clone(*p))
	}
	return NewManyValues(m.conv, m.current())
}

// Size returns the number of elements, resolving first.
func (m *ManyValues[T]) Size() (int, error) {
	if err := m.resolve(); err != nil {
		return 0, err
	}
	return len(m.current()), nil
}

func (m *ManyValues[T]) IsToMany() bool {
	return true
}

func (m *ManyValues[T]) HasValue() bool {
	if p := m.pending.Load(); p != nil {
		return len(*p) > 0
	}
	return len(m.current()) > 0
}

func (m *ManyValues[T]) IsFullyResolved() bool {
	p := m.pending.Load()
	if p == nil {
		return true
	}
	for _, r := range *p {
		if !r.IsResolved() {
			return false
		}
	}
	return true
}

func (m *ManyValues[T]) InstanceValue() (model.Instance, error) {
	v, ok, err := m.Value()
	if err != nil || !ok {
		return nil, err
	}
	return m.conv.ToInstance(v), nil
}

func (m *ManyValues[T]) InstanceValues() ([]model.Instance, error) {
	if err := m.resolve(); err != nil {
		return nil, err
	}
	return m.instancesOf(m.current()), nil
}

func (m *ManyValues[T]) instancesOf(vals []T) []model.Instance {
	out := make([]model.Instance, 0, len(vals))
	for _, v := range vals {
		if inst := m.conv.ToInstance(v); inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

// ValueByIDIndex returns the element whose key under spec equals key, nil if
// there is none, or an *model.IDConflictError if there are several.
func (m *ManyValues[T]) ValueByIDIndex(spec *model.IndexSpec, key interface{}) (model.Instance, error) {
	if err := m.resolve(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vals := m.current()
	if !m.shouldIndexLocked(len(vals)) {
		var found model.Instance
		for _, inst := range m.instancesOf(vals) {
			k, err := spec.Key(inst)
			if err != nil {
				return nil, err
			}
			if k != key {
				continue
			}
			if found != nil {
				return nil, &model.IDConflictError{Key: key}
			}
			found = inst
		}
		return found, nil
	}

	if m.indexes == nil {
		m.indexes = &indexCache{}
	}
	idx, ok := m.indexes.ids[spec]
	if !ok {
		var err error
		if idx, err = buildIDIndex(spec, m.instancesOf(vals)); err != nil {
			return nil, err
		}
		if m.indexes.ids == nil {
			m.indexes.ids = make(map[*model.IndexSpec]*idIndex)
		}
		m.indexes.ids[spec] = idx
	}
	return idx.get(key)
}

// ValuesByIndex returns every element whose key under spec equals key, in
// collection order.
func (m *ManyValues[T]) ValuesByIndex(spec *model.IndexSpec, key interface{}) ([]model.Instance, error) {
	if err := m.resolve(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	vals := m.current()
	if !m.shouldIndexLocked(len(vals)) {
		var out []model.Instance
		for _, inst := range m.instancesOf(vals) {
			k, err := spec.Key(inst)
			if err != nil {
				return nil, err
			}
			if k == key {
				out = append(out, inst)
			}
		}
		return out, nil
	}

	if m.indexes == nil {
		m.indexes = &indexCache{}
	}
	idx, ok := m.indexes.multi[spec]
	if !ok {
		var err error
		if idx, err = buildMultiIndex(spec, m.instancesOf(vals)); err != nil {
			return nil, err
		}
		if m.indexes.multi == nil {
			m.indexes.multi = make(map[*model.IndexSpec]*multiIndex)
		}
		m.indexes.multi[spec] = idx
	}
	return idx.get(key), nil
}

func (m *ManyValues[T]) shouldIndexLocked(size int) bool {
	maxNonIndexing, _ := IndexingThresholds()
	return !m.indexes.empty() || size > maxNonIndexing
}

// indexAddLocked updates cached indexes for an appended element. An ID index
// that would conflict is dropped and rebuilt on the next lookup.
func (m *ManyValues[T]) indexAddLocked(inst model.Instance) error {
	if m.indexes.empty() || inst == nil {
		return nil
	}
	for spec, idx := range m.indexes.ids {
		ok, err := idx.add(spec, inst)
		if err != nil {
			return err
		}
		if !ok {
			delete(m.indexes.ids, spec)
		}
	}
	for spec, idx := range m.indexes.multi {
		if err := idx.add(spec, inst); err != nil {
			return err
		}
	}
	return nil
}

func (m *ManyValues[T]) indexRemoveLocked(inst model.Instance) error {
	if m.indexes.empty() || inst == nil {
		return nil
	}
	for spec, idx := range m.indexes.ids {
		ok, err := idx.remove(spec, inst)
		if err != nil {
			return err
		}
		if !ok {
			delete(m.indexes.ids, spec)
		}
	}
	for spec, idx := range m.indexes.multi {
		if err := idx.remove(spec, inst); err != nil {
			return err
		}
	}
	return nil
}

func (m *ManyValues[T]) SetInstanceValues(values []model.Instance) error {
	converted, err := fromInstances(m.conv, values)
	if err != nil {
		return err
	}
	m.SetValues(converted)
	return nil
}

func (m *ManyValues[T]) SetInstanceValueAt(offset int, value model.Instance) error {
	v, err := m.conv.FromInstance(value)
	if err != nil {
		return err
	}
	return m.SetValueAt(offset, v)
}

func (m *ManyValues[T]) AddInstanceValue(value model.Instance) error {
	v, err := m.conv.FromInstance(value)
	if err != nil {
		return err
	}
	return m.AddValue(v)
}

func (m *ManyValues[T]) RemoveInstanceValue(value model.Instance) (bool, error) {
	return m.removeMatching(func(cur T) bool {
		return model.ValuesEqual(m.conv.ToInstance(cur), value)
	})
}

func (m *ManyValues[T]) CopyValue() PropertyValue {
	return m.Copy()
}
