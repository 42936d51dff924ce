package propval

import (
	"fmt"

	"github.com/conduit-lang/metagraph/internal/model"
)

// Converter maps between a container's value type and graph instances. Typed
// containers use it to serve the reflective, instance-based accessors.
type Converter[T any] interface {
	ToInstance(v T) model.Instance
	FromInstance(inst model.Instance) (T, error)
}

// InstanceConverter is the identity converter for instance-valued properties.
type InstanceConverter struct{}

func (InstanceConverter) ToInstance(v model.Instance) model.Instance {
	return v
}

func (InstanceConverter) FromInstance(inst model.Instance) (model.Instance, error) {
	return inst, nil
}

// AnyConverter serves properties whose values are either instances or plain
// Go primitives (as produced by the direct primitive resolver). Primitives are
// wrapped through Repo when read reflectively.
type AnyConverter struct {
	Repo *model.Repository
}

func (c AnyConverter) ToInstance(v interface{}) model.Instance {
	if v == nil {
		return nil
	}
	if inst, ok := v.(model.Instance); ok {
		return inst
	}
	if c.Repo == nil {
		return nil
	}
	return c.Repo.PrimitiveInstanceFor(v)
}

func (c AnyConverter) FromInstance(inst model.Instance) (interface{}, error) {
	if inst == nil {
		return nil, nil
	}
	return inst, nil
}

// StringConverter serves string-typed properties.
type StringConverter struct {
	Repo *model.Repository
}

func (c StringConverter) ToInstance(v string) model.Instance {
	return c.Repo.NewStringInstanceCached(v)
}

func (c StringConverter) FromInstance(inst model.Instance) (string, error) {
	if p, ok := inst.(*model.PrimitiveInstance); ok {
		if s, ok := p.Value().(string); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("expected a String instance, got %v", inst)
}
