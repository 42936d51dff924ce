// Package propval holds the property value containers of lazily materialized
// instances. A container is either resolved or deferred; deferred containers
// resolve at most once, on first read or on the first mutation that needs the
// current contents.
package propval

import (
	"sync/atomic"

	"github.com/conduit-lang/metagraph/internal/model"
)

const (
	// DefaultMaxNonIndexingSize is the largest collection searched linearly
	// when no index has been built yet.
	DefaultMaxNonIndexingSize = 10
	// DefaultMinIndexingSize is the size below which cached indexes are dropped.
	DefaultMinIndexingSize = 6
)

var (
	maxNonIndexingSize atomic.Int32
	minIndexingSize    atomic.Int32
)

func init() {
	maxNonIndexingSize.Store(DefaultMaxNonIndexingSize)
	minIndexingSize.Store(DefaultMinIndexingSize)
}

// ConfigureIndexing sets the process-wide indexing thresholds. Non-positive
// arguments restore the defaults. minIndexing is clamped to maxNonIndexing.
func ConfigureIndexing(maxNonIndexing, minIndexing int) {
	if maxNonIndexing <= 0 {
		maxNonIndexing = DefaultMaxNonIndexingSize
	}
	if minIndexing <= 0 {
		minIndexing = DefaultMinIndexingSize
	}
	if minIndexing > maxNonIndexing {
		minIndexing = maxNonIndexing
	}
	maxNonIndexingSize.Store(int32(maxNonIndexing))
	minIndexingSize.Store(int32(minIndexing))
}

// IndexingThresholds returns the current max non-indexing and min indexing sizes.
func IndexingThresholds() (maxNonIndexing, minIndexing int) {
	return int(maxNonIndexingSize.Load()), int(minIndexingSize.Load())
}

// PropertyValue is the type-erased view of a container used by instances for
// reflective property access.
type PropertyValue interface {
	IsToMany() bool
	// HasValue reports whether a value is (or may be) present. Deferred to-one
	// containers answer true without resolving.
	HasValue() bool
	IsFullyResolved() bool

	InstanceValue() (model.Instance, error)
	InstanceValues() ([]model.Instance, error)
	ValueByIDIndex(spec *model.IndexSpec, key interface{}) (model.Instance, error)
	ValuesByIndex(spec *model.IndexSpec, key interface{}) ([]model.Instance, error)

	SetInstanceValues(values []model.Instance) error
	SetInstanceValueAt(offset int, value model.Instance) error
	AddInstanceValue(value model.Instance) error
	RemoveInstanceValue(value model.Instance) (bool, error)
	RemoveAllValues()

	// CopyValue returns an independent container. Unresolved contents are
	// shared by resolver, not forced.
	CopyValue() PropertyValue
}
