package lazy

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
)

// ConcreteElement is a top-level element that deserializes itself on the first
// access to a property or to its compile states. Name, source information and
// classifier are known from metadata and never trigger initialization.
type ConcreteElement struct {
	instanceBase
	path string

	// internal is written once by initialize, before the init marker clears.
	internal *InternalIDIndex
}

// Path returns the element path.
func (e *ConcreteElement) Path() string {
	return e.path
}

// IsInitialized reports whether the element has been deserialized.
func (e *ConcreteElement) IsInitialized() bool {
	return e.init.initialized()
}

// Initialize forces initialization. A failed initialization is retried by the
// next call or access.
func (e *ConcreteElement) Initialize() error {
	return e.init.ensure()
}

// Copy returns an initialized copy that keeps the element path. Components
// are shared with the original, so ComponentByReferenceID on the copy returns
// the original's component instances.
func (e *ConcreteElement) Copy() (model.Instance, error) {
	cp := &ConcreteElement{path: e.path}
	if err := e.copyInto(&cp.instanceBase); err != nil {
		return nil, err
	}
	cp.internal = e.internal
	return cp, nil
}

// ComponentByReferenceID returns the instance of this element serialized
// under a reference id, initializing the element if needed.
func (e *ConcreteElement) ComponentByReferenceID(referenceID string) (model.Instance, error) {
	if referenceID == e.path {
		return e, nil
	}
	if err := e.init.ensure(); err != nil {
		return nil, err
	}
	inst, ok := e.internal.ByReferenceID(referenceID)
	if !ok {
		return nil, model.Errorf(model.ErrUnresolvable, "cannot resolve reference '%s' in %s", referenceID, e.path)
	}
	return inst, nil
}

func (e *ConcreteElement) initialize(b *Builder, refs ReferenceIDResolver, deser Deserializer) error {
	data, err := deser.DeserializeElement(e.path)
	if err != nil {
		return model.Wrapf(model.ErrInitialization, err, "error initializing %s", e.path)
	}
	if err := data.ValidateStructure(); err != nil {
		return model.Wrapf(model.ErrInitialization, err, "error initializing %s", e.path)
	}
	backRefs, err := deser.DeserializeBackReferences(e.path)
	if err != nil {
		return model.Wrapf(model.ErrInitialization, err, "error loading back references of %s", e.path)
	}
	if backRefs == nil {
		backRefs = metadata.NoBackReferences
	}

	idx := NewInternalIDIndex(len(data.InstanceData))
	self := &data.InstanceData[0]
	selfID := self.ReferenceID
	if selfID == "" {
		selfID = e.path
	}
	idx.Set(0, selfID, e)
	for i := 1; i < len(data.InstanceData); i++ {
		d := &data.InstanceData[i]
		c, err := b.buildComponent(d, backRefs.BackReferences(d.ReferenceID), refs, idx.Resolver())
		if err != nil {
			return model.Wrapf(model.ErrInitialization, err, "error initializing %s", e.path)
		}
		idx.Set(i, d.ReferenceID, c)
	}

	props, err := b.buildProperties(e.class, self, backRefs.BackReferences(selfID), refs, idx.Resolver())
	if err != nil {
		return model.Wrapf(model.ErrInitialization, err, "error initializing %s", e.path)
	}

	e.applyData(self)
	e.internal = idx
	e.states.Store(self.CompileStateBitSet)
	e.setProps(props)

	b.logger.Debug("initialized element",
		zap.String("path", e.path),
		zap.Int("components", len(data.InstanceData)-1),
		zap.Int("id", e.id))
	return nil
}

func (e *ConcreteElement) applyData(self *element.InstanceData) {
	if self.Name != "" {
		e.SetName(self.Name)
	}
	if self.SourceInformation != nil {
		e.SetSourceInformation(self.SourceInformation)
	}
}
