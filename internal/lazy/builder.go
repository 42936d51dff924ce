package lazy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

// ElementBuilder creates the instances of a graph.
type ElementBuilder interface {
	ComponentBuilder
	BuildConcreteElement(meta metadata.ConcreteElementMetadata, refs ReferenceIDResolver,
		deser Deserializer) (*ConcreteElement, error)
	BuildVirtualPackage(path string, index *metadata.Index, refs ReferenceIDResolver,
		deser Deserializer) (*VirtualPackage, error)
}

var (
	_ ElementBuilder = (*Builder)(nil)

	_ model.Instance = (*Component)(nil)
	_ model.Instance = (*ConcreteElement)(nil)
	_ model.Instance = (*VirtualPackage)(nil)
)

// Builder builds instances from class descriptors.
type Builder struct {
	repo    *model.Repository
	classes *ClassRegistry
	prims   PrimitiveValueResolver
	logger  *zap.Logger

	// EagerPrimitives resolves primitive literals when a container is built
	// instead of on first read.
	EagerPrimitives bool
}

// NewBuilder creates a builder. A nil prims uses the direct resolver and a nil
// logger discards output.
func NewBuilder(repo *model.Repository, classes *ClassRegistry, prims PrimitiveValueResolver, logger *zap.Logger) *Builder {
	if prims == nil {
		prims = DirectPrimitiveValueResolver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		repo:            repo,
		classes:         classes,
		prims:           prims,
		logger:          logger,
		EagerPrimitives: true,
	}
}

// Repository returns the repository instances are created in.
func (b *Builder) Repository() *model.Repository {
	return b.repo
}

// Classes returns the class registry.
func (b *Builder) Classes() *ClassRegistry {
	return b.classes
}

func (b *Builder) converter() propval.AnyConverter {
	return propval.AnyConverter{Repo: b.repo}
}

func (b *Builder) class(path string) (*Class, error) {
	c, ok := b.classes.Lookup(path)
	if !ok {
		return nil, model.Errorf(model.ErrUnknownClassifier, "unknown classifier '%s'", path)
	}
	return c, nil
}

// BuildConcreteElement creates an uninitialized top-level element.
func (b *Builder) BuildConcreteElement(meta metadata.ConcreteElementMetadata, refs ReferenceIDResolver,
	deser Deserializer) (*ConcreteElement, error) {
	class, err := b.class(meta.ClassifierPath)
	if err != nil {
		return nil, fmt.Errorf("error building element %s: %w", meta.Path, err)
	}

	e := &ConcreteElement{
		path: meta.Path,
		instanceBase: instanceBase{
			repo:           b.repo,
			id:             b.repo.NextSyntheticID(),
			class:          class,
			classifierPath: meta.ClassifierPath,
			name:           metadata.NameFromPath(meta.Path),
			source:         meta.SourceInformation,
			classifier:     b.classifierValue(refs, meta.ClassifierPath),
			lazyStates:     true,
		},
	}
	e.init = newInitCell(func() error {
		return e.initialize(b, refs, deser)
	})

	b.logger.Debug("built element",
		zap.String("path", meta.Path),
		zap.String("classifier", meta.ClassifierPath),
		zap.Int("id", e.id))
	return e, nil
}

// BuildVirtualPackage creates a virtual package whose back references load on
// first access to its reference usages.
func (b *Builder) BuildVirtualPackage(path string, index *metadata.Index, refs ReferenceIDResolver,
	deser Deserializer) (*VirtualPackage, error) {
	class, err := b.class(PackageClassifier)
	if err != nil {
		return nil, fmt.Errorf("error building package %s: %w", path, err)
	}

	p := &VirtualPackage{
		path: path,
		instanceBase: instanceBase{
			repo:           b.repo,
			id:             b.repo.NextSyntheticID(),
			class:          class,
			classifierPath: PackageClassifier,
			name:           metadata.NameFromPath(path),
			classifier:     b.classifierValue(refs, PackageClassifier),
			lazyProps:      map[string]bool{referenceUsagesProperty: true},
		},
	}
	p.states.Store(model.ProcessedValidated.BitSet())
	p.setProps(b.packageProperties(class, path, index, refs))
	p.init = newInitCell(func() error {
		return p.initialize(b, refs, deser)
	})

	b.logger.Debug("built virtual package", zap.String("path", path), zap.Int("id", p.id))
	return p, nil
}

// BuildComponentInstance creates a complete instance from its data.
func (b *Builder) BuildComponentInstance(data *element.InstanceData, backRefs []metadata.BackReference,
	refs ReferenceIDResolver, internal InternalIDResolver) (model.Instance, error) {
	return b.buildComponent(data, backRefs, refs, internal)
}

func (b *Builder) buildComponent(data *element.InstanceData, backRefs []metadata.BackReference,
	refs ReferenceIDResolver, internal InternalIDResolver) (*Component, error) {
	class, err := b.class(data.ClassifierPath)
	if err != nil {
		return nil, fmt.Errorf("error building instance at %s: %w", data.SourceInformation, err)
	}
	props, err := b.buildProperties(class, data, backRefs, refs, internal)
	if err != nil {
		return nil, fmt.Errorf("error building instance of %s at %s: %w", data.ClassifierPath, data.SourceInformation, err)
	}

	c := &Component{
		referenceID: data.ReferenceID,
		instanceBase: instanceBase{
			repo:           b.repo,
			id:             b.repo.NextSyntheticID(),
			class:          class,
			classifierPath: data.ClassifierPath,
			name:           data.Name,
			source:         data.SourceInformation,
			classifier:     b.classifierValue(refs, data.ClassifierPath),
		},
	}
	c.states.Store(data.CompileStateBitSet)
	c.setProps(props)

	b.logger.Debug("built component",
		zap.String("classifier", data.ClassifierPath),
		zap.String("referenceId", data.ReferenceID),
		zap.Int("id", c.id))
	return c, nil
}

func (b *Builder) classifierValue(refs ReferenceIDResolver, path string) *propval.OneValue[model.Instance] {
	return propval.NewDeferredOneValue[model.Instance](propval.InstanceConverter{}, packageableElementSupplier(refs, path))
}

// buildProperties creates a container for every property the class declares.
// Back references of the kinds the class declares are appended to the
// matching to-many properties.
func (b *Builder) buildProperties(class *Class, data *element.InstanceData, backRefs []metadata.BackReference,
	refs ReferenceIDResolver, internal InternalIDResolver) (map[string]propval.PropertyValue, error) {
	seen := make(map[string]bool, len(data.PropertyValues))
	for _, pv := range data.PropertyValues {
		if seen[pv.PropertyName] {
			return nil, model.Errorf(model.ErrPropertyConflict, "property '%s' is defined more than once", pv.PropertyName)
		}
		seen[pv.PropertyName] = true
		if _, ok := class.Property(pv.PropertyName); !ok {
			return nil, model.Errorf(model.ErrUnknownProperty, "unknown property '%s' for classifier %s",
				pv.PropertyName, class.Path)
		}
	}

	buckets, lists := backReferenceBuckets(class)
	if err := CollectBackReferences(backRefs, refs, internal, b, buckets); err != nil {
		return nil, err
	}

	conv := b.converter()
	props := make(map[string]propval.PropertyValue, len(class.properties))
	for _, spec := range class.properties {
		pv := data.Property(spec.Name)
		if spec.Many {
			var extra []propval.Supplier[interface{}]
			if l := lists[spec.Name]; l != nil {
				extra = anySuppliers(*l)
			}
			v, err := NewToManyPropertyValue[interface{}](pv, refs, internal, b.prims, b.EagerPrimitives, extra, conv)
			if err != nil {
				return nil, fmt.Errorf("property '%s': %w", spec.Name, err)
			}
			props[spec.Name] = v
			continue
		}
		v, err := NewToOnePropertyValue[interface{}](pv, refs, internal, b.prims, b.EagerPrimitives, conv)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", spec.Name, err)
		}
		props[spec.Name] = v
	}
	return props, nil
}

func backReferenceBuckets(class *Class) (Buckets, map[string]*[]propval.Supplier[model.Instance]) {
	lists := make(map[string]*[]propval.Supplier[model.Instance])
	for _, name := range BackReferenceProperty {
		if spec, ok := class.Property(name); ok && spec.Many {
			lists[name] = new([]propval.Supplier[model.Instance])
		}
	}
	return Buckets{
		Applications:                        lists[BackReferenceProperty[metadata.ApplicationKind]],
		ModelElements:                       lists[BackReferenceProperty[metadata.ModelElementKind]],
		PropertiesFromAssociations:          lists[BackReferenceProperty[metadata.PropertyFromAssociationKind]],
		QualifiedPropertiesFromAssociations: lists[BackReferenceProperty[metadata.QualifiedPropertyFromAssociationKind]],
		ReferenceUsages:                     lists[BackReferenceProperty[metadata.ReferenceUsageKind]],
		Specializations:                     lists[BackReferenceProperty[metadata.SpecializationKind]],
	}, lists
}

func emptyPropertyValue(spec PropertySpec, conv propval.AnyConverter) propval.PropertyValue {
	if spec.Many {
		return propval.NewManyValues[interface{}](conv, nil)
	}
	return propval.NewEmptyOneValue[interface{}](conv)
}

func anySupplier(s propval.Supplier[model.Instance]) propval.Supplier[interface{}] {
	return func() (interface{}, error) {
		inst, err := s()
		if err != nil || inst == nil {
			return nil, err
		}
		return inst, nil
	}
}

func anySuppliers(in []propval.Supplier[model.Instance]) []propval.Supplier[interface{}] {
	if len(in) == 0 {
		return nil
	}
	out := make([]propval.Supplier[interface{}], len(in))
	for i, s := range in {
		out[i] = anySupplier(s)
	}
	return out
}
