package element

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/conduit-lang/metagraph/internal/model"
)

// InstanceData is the serialized form of one instance.
type InstanceData struct {
	Name               string                   `msgpack:"n,omitempty"`
	ClassifierPath     string                   `msgpack:"c"`
	SourceInformation  *model.SourceInformation `msgpack:"si,omitempty"`
	ReferenceID        string                   `msgpack:"r,omitempty"`
	CompileStateBitSet uint32                   `msgpack:"cs"`
	PropertyValues     []PropertyValues         `msgpack:"pv"`
}

// CompileStates decodes the compile state bitset.
func (d *InstanceData) CompileStates() model.CompileStateSet {
	return model.CompileStateSetFromBitSet(d.CompileStateBitSet)
}

// Property returns the values of the named property, or nil.
func (d *InstanceData) Property(name string) *PropertyValues {
	for i := range d.PropertyValues {
		if d.PropertyValues[i].PropertyName == name {
			return &d.PropertyValues[i]
		}
	}
	return nil
}

// DeserializedConcreteElement is the full serialized form of a top-level
// element. InstanceData[0] is the element itself; the remaining entries are
// its component instances, addressed by internal references.
type DeserializedConcreteElement struct {
	Path               string         `msgpack:"p"`
	ReferenceIDVersion int            `msgpack:"v"`
	InstanceData       []InstanceData `msgpack:"d"`
}

// ValidateStructure checks that the record has a root instance.
func (e *DeserializedConcreteElement) ValidateStructure() error {
	if len(e.InstanceData) == 0 {
		return fmt.Errorf("element %s: no instance data", e.Path)
	}
	return nil
}

// Validate checks the structure of the record and that every internal
// reference points at one of its instances. Loading only checks the
// structure; bad internal ids surface when the value is read.
func (e *DeserializedConcreteElement) Validate() error {
	if err := e.ValidateStructure(); err != nil {
		return err
	}
	size := len(e.InstanceData)
	for i := range e.InstanceData {
		for _, pv := range e.InstanceData[i].PropertyValues {
			for _, v := range pv.Values {
				if v.Kind == InternalReference && (v.InternalID < 0 || v.InternalID >= size) {
					return model.Errorf(model.ErrInvalidInternalID,
						"element %s: instance %d property '%s': internal id %d outside [0, %d)",
						e.Path, i, pv.PropertyName, v.InternalID, size)
				}
			}
		}
	}
	return nil
}

// Encode serializes an element with msgpack.
func Encode(e *DeserializedConcreteElement) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("failed to encode element %s: %w", e.Path, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes an element encoded by Encode.
func Decode(data []byte) (*DeserializedConcreteElement, error) {
	var e DeserializedConcreteElement
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode element: %w", err)
	}
	return &e, nil
}
