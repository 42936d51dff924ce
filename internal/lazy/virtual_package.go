package lazy

import (
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

const referenceUsagesProperty = "referenceUsages"

// VirtualPackage is a package that exists only through the paths of the
// elements placed in it. Its name, parent and children are derived from the
// metadata index; reading its reference usages loads its back references once.
type VirtualPackage struct {
	instanceBase
	path string
}

// Path returns the package path.
func (p *VirtualPackage) Path() string {
	return p.path
}

// IsInitialized reports whether the back references have been loaded.
func (p *VirtualPackage) IsInitialized() bool {
	return p.init.initialized()
}

// Initialize forces loading of the back references.
func (p *VirtualPackage) Initialize() error {
	return p.init.ensure()
}

// Copy returns an initialized copy that keeps the package path.
func (p *VirtualPackage) Copy() (model.Instance, error) {
	cp := &VirtualPackage{path: p.path}
	if err := p.copyInto(&cp.instanceBase); err != nil {
		return nil, err
	}
	return cp, nil
}

func (p *VirtualPackage) initialize(b *Builder, refs ReferenceIDResolver, deser Deserializer) error {
	if _, ok := p.class.Property(referenceUsagesProperty); !ok {
		return nil
	}

	var usages []propval.Supplier[model.Instance]
	backRefs, err := deser.DeserializeBackReferences(p.path)
	if err != nil {
		return model.Wrapf(model.ErrInitialization, err, "error loading back references of %s", p.path)
	}
	if backRefs != nil {
		err := CollectBackReferences(backRefs.BackReferences(p.path), refs, nil, b, Buckets{ReferenceUsages: &usages})
		if err != nil {
			return model.Wrapf(model.ErrInitialization, err, "error loading back references of %s", p.path)
		}
	}

	old := p.props.Load()
	props := make(map[string]propval.PropertyValue, len(*old)+1)
	for name, pv := range *old {
		props[name] = pv
	}
	props[referenceUsagesProperty] = propval.NewDeferredManyValues[interface{}](b.converter(), anySuppliers(usages))
	p.setProps(props)
	return nil
}

// packageProperties builds the structural properties of a virtual package.
func (b *Builder) packageProperties(class *Class, path string, index *metadata.Index,
	refs ReferenceIDResolver) map[string]propval.PropertyValue {
	conv := b.converter()
	props := make(map[string]propval.PropertyValue, len(class.properties))

	props["name"] = propval.NewOneValue[interface{}](conv, b.prims.ResolveString(metadata.NameFromPath(path)))
	if parent := metadata.PackageFromPath(path); parent != "" {
		props["package"] = propval.NewDeferredOneValue[interface{}](conv, anySupplier(packageableElementSupplier(refs, parent)))
	} else {
		props["package"] = propval.NewEmptyOneValue[interface{}](conv)
	}

	children := index.PackageChildren(path)
	suppliers := make([]propval.Supplier[interface{}], 0, len(children))
	for _, c := range children {
		suppliers = append(suppliers, anySupplier(packageableElementSupplier(refs, c.ElementPath())))
	}
	props["children"] = propval.NewDeferredManyValues[interface{}](conv, suppliers)

	for _, spec := range class.properties {
		if _, done := props[spec.Name]; done || spec.Name == referenceUsagesProperty {
			continue
		}
		props[spec.Name] = emptyPropertyValue(spec, conv)
	}
	return props
}
