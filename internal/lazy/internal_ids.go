package lazy

import (
	"github.com/conduit-lang/metagraph/internal/model"
)

// InternalIDIndex holds the instances of one element by internal id. Slot 0
// is the owning element itself. Slots are filled while the owner initializes
// and are read-only afterwards.
type InternalIDIndex struct {
	instances []model.Instance
	byRefID   map[string]model.Instance
}

// NewInternalIDIndex creates an index with size slots.
func NewInternalIDIndex(size int) *InternalIDIndex {
	return &InternalIDIndex{
		instances: make([]model.Instance, size),
		byRefID:   make(map[string]model.Instance, size),
	}
}

// Set places inst at slot id, recording it under referenceID when non-empty.
func (idx *InternalIDIndex) Set(id int, referenceID string, inst model.Instance) {
	idx.instances[id] = inst
	if referenceID != "" {
		idx.byRefID[referenceID] = inst
	}
}

// Size returns the number of slots.
func (idx *InternalIDIndex) Size() int {
	return len(idx.instances)
}

// Resolve returns the instance at slot id.
func (idx *InternalIDIndex) Resolve(id int) (model.Instance, error) {
	if id < 0 || id >= len(idx.instances) {
		return nil, model.Errorf(model.ErrInvalidInternalID,
			"invalid internal id: %d (valid range [0, %d))", id, len(idx.instances))
	}
	inst := idx.instances[id]
	if inst == nil {
		return nil, model.Errorf(model.ErrInvalidInternalID, "internal id %d is not yet bound", id)
	}
	return inst, nil
}

// Resolver returns Resolve as an InternalIDResolver.
func (idx *InternalIDIndex) Resolver() InternalIDResolver {
	return idx.Resolve
}

// ByReferenceID returns the instance recorded under a reference id.
func (idx *InternalIDIndex) ByReferenceID(referenceID string) (model.Instance, bool) {
	inst, ok := idx.byRefID[referenceID]
	return inst, ok
}
