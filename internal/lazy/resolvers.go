// Package lazy materializes metamodel instances on demand from serialized
// element records. Top-level elements and virtual packages are created
// uninitialized and deserialize themselves once, on first touch; component
// instances are built whole while their owner initializes.
package lazy

import (
	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

// ReferenceIDResolver resolves external reference ids and package paths to
// instances. Implementations must be safe for concurrent use.
type ReferenceIDResolver interface {
	ResolveReference(id string) (model.Instance, error)
	ResolvePackagePath(path string) (model.Instance, error)
}

// InternalIDResolver maps the internal id of an instance within its owning
// element to the instance.
type InternalIDResolver func(id int) (model.Instance, error)

// Deserializer loads the serialized records of top-level elements.
type Deserializer interface {
	DeserializeElement(path string) (*element.DeserializedConcreteElement, error)
	DeserializeBackReferences(path string) (metadata.BackReferenceProvider, error)
}

// vacuousInternalIDResolver is used where no internal ids exist.
func vacuousInternalIDResolver(id int) (model.Instance, error) {
	return nil, model.Errorf(model.ErrInvalidInternalID, "invalid internal id: %d", id)
}

// packageableElementSupplier resolves a package path through refs on demand.
func packageableElementSupplier(refs ReferenceIDResolver, path string) propval.Supplier[model.Instance] {
	return func() (model.Instance, error) {
		inst, err := refs.ResolvePackagePath(path)
		if err != nil {
			return nil, model.Wrapf(model.ErrUnresolvable, err, "error resolving '%s'", path)
		}
		if inst == nil {
			return nil, model.Errorf(model.ErrUnresolvable, "cannot resolve '%s'", path)
		}
		return inst, nil
	}
}

// referenceSupplier resolves an external reference id through refs on demand.
func referenceSupplier(refs ReferenceIDResolver, id string) propval.Supplier[model.Instance] {
	return func() (model.Instance, error) {
		return resolveReference(refs, id)
	}
}

func resolveReference(refs ReferenceIDResolver, id string) (model.Instance, error) {
	inst, err := refs.ResolveReference(id)
	if err != nil {
		return nil, model.Wrapf(model.ErrUnresolvable, err, "error resolving reference '%s'", id)
	}
	if inst == nil {
		return nil, model.Errorf(model.ErrUnresolvable, "cannot resolve reference '%s'", id)
	}
	return inst, nil
}
