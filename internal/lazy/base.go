package lazy

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

// instanceBase implements model.Instance over a class descriptor and a map of
// property containers. The map is replaced, never mutated, so readers load it
// without locking; the containers carry their own synchronization.
type instanceBase struct {
	repo           *model.Repository
	id             int
	class          *Class
	classifierPath string

	mu     sync.RWMutex
	name   string
	source *model.SourceInformation

	classifier *propval.OneValue[model.Instance]
	states     atomic.Uint32
	props      atomic.Pointer[map[string]propval.PropertyValue]

	// init is nil for instances that are complete at construction.
	init *initCell
	// lazyProps names the properties that need init; nil means all of them.
	lazyProps  map[string]bool
	lazyStates bool
}

func (b *instanceBase) setProps(props map[string]propval.PropertyValue) {
	b.props.Store(&props)
}

func (b *instanceBase) ensureFor(property string) error {
	if b.init == nil {
		return nil
	}
	if b.lazyProps != nil && !b.lazyProps[property] {
		return nil
	}
	return b.init.ensure()
}

func (b *instanceBase) ensureStates() error {
	if b.init == nil || !b.lazyStates {
		return nil
	}
	return b.init.ensure()
}

// propertyValue returns the container of a declared property, or nil for
// properties the class does not declare.
func (b *instanceBase) propertyValue(property string) (propval.PropertyValue, error) {
	if _, ok := b.class.Property(property); !ok {
		return nil, nil
	}
	if err := b.ensureFor(property); err != nil {
		return nil, err
	}
	m := b.props.Load()
	if m == nil {
		return nil, nil
	}
	return (*m)[property], nil
}

func (b *instanceBase) writable(property string) (propval.PropertyValue, error) {
	pv, err := b.propertyValue(property)
	if err != nil {
		return nil, err
	}
	if pv == nil {
		return nil, model.Errorf(model.ErrUnknownProperty, "unknown property '%s' on %s", property, b)
	}
	return pv, nil
}

func (b *instanceBase) SyntheticID() int {
	return b.id
}

func (b *instanceBase) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *instanceBase) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

func (b *instanceBase) SourceInformation() *model.SourceInformation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.source
}

func (b *instanceBase) SetSourceInformation(si *model.SourceInformation) {
	b.mu.Lock()
	b.source = si
	b.mu.Unlock()
}

func (b *instanceBase) Classifier() (model.Instance, error) {
	c, _, err := b.classifier.Value()
	return c, err
}

func (b *instanceBase) SetClassifier(classifier model.Instance) error {
	b.classifier.SetValue(classifier)
	return nil
}

// ClassifierPath returns the path of the classifier named in the serialized data.
func (b *instanceBase) ClassifierPath() string {
	return b.classifierPath
}

func (b *instanceBase) KeyNames() ([]string, error) {
	return b.class.PropertyNames(), nil
}

func (b *instanceBase) ValueForMetaPropertyToOne(property string) (model.Instance, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return nil, err
	}
	return pv.InstanceValue()
}

func (b *instanceBase) ValueForMetaPropertyToMany(property string) ([]model.Instance, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return nil, err
	}
	return pv.InstanceValues()
}

func (b *instanceBase) ValueInValueForMetaPropertyToManyByIndex(property string, spec *model.IndexSpec,
	key interface{}) ([]model.Instance, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return nil, err
	}
	return pv.ValuesByIndex(spec, key)
}

func (b *instanceBase) ValueInValueForMetaPropertyToManyByIDIndex(property string, spec *model.IndexSpec,
	key interface{}) (model.Instance, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return nil, err
	}
	inst, err := pv.ValueByIDIndex(spec, key)
	if err != nil {
		if errors.Is(err, model.ErrIDConflict) {
			return nil, model.Wrapf(model.ErrIDConflict, err, "invalid ID index for property '%s' on %s (%s)",
				property, b, b.SourceInformation())
		}
		return nil, err
	}
	return inst, nil
}

func (b *instanceBase) IsValueDefinedForKey(property string) (bool, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return false, err
	}
	return pv.HasValue(), nil
}

func (b *instanceBase) IsFullyResolved(property string) (bool, error) {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return true, err
	}
	return pv.IsFullyResolved(), nil
}

func (b *instanceBase) AddKeyValue(key []string, value model.Instance) error {
	pv, err := b.writable(model.PropertyKey(key))
	if err != nil {
		return err
	}
	return pv.AddInstanceValue(value)
}

func (b *instanceBase) AddKeyWithEmptyList(key []string) error {
	pv, err := b.writable(model.PropertyKey(key))
	if err != nil {
		return err
	}
	pv.RemoveAllValues()
	return nil
}

func (b *instanceBase) SetKeyValues(key []string, values []model.Instance) error {
	pv, err := b.writable(model.PropertyKey(key))
	if err != nil {
		return err
	}
	return pv.SetInstanceValues(values)
}

func (b *instanceBase) ModifyValueForToManyMetaProperty(property string, offset int, value model.Instance) error {
	pv, err := b.writable(property)
	if err != nil {
		return err
	}
	return pv.SetInstanceValueAt(offset, value)
}

func (b *instanceBase) RemoveValueForMetaPropertyToMany(property string, value model.Instance) error {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return err
	}
	_, err = pv.RemoveInstanceValue(value)
	return err
}

func (b *instanceBase) RemoveProperty(property string) error {
	pv, err := b.propertyValue(property)
	if err != nil || pv == nil {
		return err
	}
	pv.RemoveAllValues()
	return nil
}

func (b *instanceBase) AddCompileState(state model.CompileState) error {
	if err := b.ensureStates(); err != nil {
		return err
	}
	for {
		old := b.states.Load()
		next := model.CompileStateSetFromBitSet(old).With(state).BitSet()
		if old == next || b.states.CompareAndSwap(old, next) {
			return nil
		}
	}
}

func (b *instanceBase) RemoveCompileState(state model.CompileState) error {
	if err := b.ensureStates(); err != nil {
		return err
	}
	for {
		old := b.states.Load()
		next := model.CompileStateSetFromBitSet(old).Without(state).BitSet()
		if old == next || b.states.CompareAndSwap(old, next) {
			return nil
		}
	}
}

func (b *instanceBase) HasCompileState(state model.CompileState) (bool, error) {
	states, err := b.CompileStates()
	if err != nil {
		return false, err
	}
	return states.Has(state), nil
}

func (b *instanceBase) CompileStates() (model.CompileStateSet, error) {
	if err := b.ensureStates(); err != nil {
		return 0, err
	}
	return model.CompileStateSetFromBitSet(b.states.Load()), nil
}

func (b *instanceBase) SetCompileStatesFrom(states model.CompileStateSet) error {
	if err := b.ensureStates(); err != nil {
		return err
	}
	b.states.Store(states.BitSet())
	return nil
}

// Copy forces initialization, then returns an initialized component holding
// copies of every container. Unresolved containers stay unresolved in both.
// Concrete elements and virtual packages override Copy to keep their kind.
func (b *instanceBase) Copy() (model.Instance, error) {
	c := &Component{}
	if err := b.copyInto(&c.instanceBase); err != nil {
		return nil, err
	}
	return c, nil
}

// copyInto initializes b and fills dst with copies of its state. dst is
// complete at construction: its init cell stays nil.
func (b *instanceBase) copyInto(dst *instanceBase) error {
	if b.init != nil {
		if err := b.init.ensure(); err != nil {
			return err
		}
	}

	dst.repo = b.repo
	dst.id = model.CopySyntheticID
	dst.class = b.class
	dst.classifierPath = b.classifierPath
	dst.name = b.Name()
	dst.source = b.SourceInformation()
	dst.classifier = b.classifier.Copy()
	dst.states.Store(b.states.Load())

	var props map[string]propval.PropertyValue
	if m := b.props.Load(); m != nil {
		props = make(map[string]propval.PropertyValue, len(*m))
		for name, pv := range *m {
			props[name] = pv.CopyValue()
		}
	}
	dst.setProps(props)
	return nil
}

func (b *instanceBase) String() string {
	return fmt.Sprintf("%s(%d) instanceOf %s", b.Name(), b.id, metadata.NameFromPath(b.classifierPath))
}
