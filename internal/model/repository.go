package model

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the model repository shared by every instance of a graph. It
// allocates synthetic ids, interns primitive instances and tracks top-level
// elements by name.
type Repository struct {
	id     uuid.UUID
	nextID atomic.Int64

	topMu     sync.RWMutex
	topLevels map[string]Instance

	stringMu sync.RWMutex
	strings  map[string]*PrimitiveInstance

	trueInstance   *PrimitiveInstance
	falseInstance  *PrimitiveInstance
	latestInstance *PrimitiveInstance
}

// NewRepository creates an empty repository with a fresh session id.
func NewRepository() *Repository {
	r := &Repository{
		id:        uuid.New(),
		topLevels: make(map[string]Instance),
		strings:   make(map[string]*PrimitiveInstance),
	}
	r.trueInstance = newPrimitiveInstance(r, BooleanType, true)
	r.falseInstance = newPrimitiveInstance(r, BooleanType, false)
	r.latestInstance = newPrimitiveInstance(r, LatestDateType, LatestDate)
	return r
}

// ID returns the session id of the repository.
func (r *Repository) ID() uuid.UUID {
	return r.id
}

// NextSyntheticID allocates a new synthetic id. Ids start at 1.
func (r *Repository) NextSyntheticID() int {
	return int(r.nextID.Add(1))
}

// AddTopLevel registers inst under its name, replacing any previous entry.
func (r *Repository) AddTopLevel(inst Instance) {
	r.topMu.Lock()
	r.topLevels[inst.Name()] = inst
	r.topMu.Unlock()
}

// TopLevel returns the top-level element with the given name, or nil.
func (r *Repository) TopLevel(name string) Instance {
	r.topMu.RLock()
	defer r.topMu.RUnlock()
	return r.topLevels[name]
}

// TopLevels returns a snapshot of the registered top-level elements.
func (r *Repository) TopLevels() []Instance {
	r.topMu.RLock()
	defer r.topMu.RUnlock()
	out := make([]Instance, 0, len(r.topLevels))
	for _, inst := range r.topLevels {
		out = append(out, inst)
	}
	return out
}

func (r *Repository) NewBooleanInstance(v bool) *PrimitiveInstance {
	if v {
		return r.trueInstance
	}
	return r.falseInstance
}

func (r *Repository) NewByteInstance(v byte) *PrimitiveInstance {
	return newPrimitiveInstance(r, ByteType, v)
}

// NewDateInstance wraps a date literal. The primitive type follows the
// literal's precision: StrictDate for a full calendar date, DateTime when a
// time part is present, Date otherwise.
func (r *Repository) NewDateInstance(v Date) *PrimitiveInstance {
	if v == LatestDate {
		return r.latestInstance
	}
	return newPrimitiveInstance(r, DateTypeOf(v), v)
}

func (r *Repository) NewLatestDateInstance() *PrimitiveInstance {
	return r.latestInstance
}

func (r *Repository) NewDecimalInstance(v decimal.Decimal) *PrimitiveInstance {
	return newPrimitiveInstance(r, DecimalType, v)
}

func (r *Repository) NewFloatInstance(v float64) *PrimitiveInstance {
	return newPrimitiveInstance(r, FloatType, v)
}

func (r *Repository) NewIntegerInstance(v int64) *PrimitiveInstance {
	return newPrimitiveInstance(r, IntegerType, v)
}

func (r *Repository) NewStrictTimeInstance(v StrictTime) *PrimitiveInstance {
	return newPrimitiveInstance(r, StrictTimeType, v)
}

// NewStringInstanceCached returns the interned instance for s; equal strings
// share one instance.
func (r *Repository) NewStringInstanceCached(s string) *PrimitiveInstance {
	r.stringMu.RLock()
	inst, ok := r.strings[s]
	r.stringMu.RUnlock()
	if ok {
		return inst
	}

	r.stringMu.Lock()
	defer r.stringMu.Unlock()
	if inst, ok := r.strings[s]; ok {
		return inst
	}
	inst = newPrimitiveInstance(r, StringType, s)
	r.strings[s] = inst
	return inst
}

// PrimitiveInstanceFor wraps a Go primitive value. Values that already are
// instances are returned unchanged; unsupported values yield nil.
func (r *Repository) PrimitiveInstanceFor(v interface{}) Instance {
	switch x := v.(type) {
	case Instance:
		return x
	case string:
		return r.NewStringInstanceCached(x)
	case bool:
		return r.NewBooleanInstance(x)
	case int64:
		return r.NewIntegerInstance(x)
	case int:
		return r.NewIntegerInstance(int64(x))
	case byte:
		return r.NewByteInstance(x)
	case float64:
		return r.NewFloatInstance(x)
	case decimal.Decimal:
		return r.NewDecimalInstance(x)
	case StrictTime:
		return r.NewStrictTimeInstance(x)
	case Date:
		return r.NewDateInstance(x)
	default:
		return nil
	}
}
