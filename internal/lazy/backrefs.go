package lazy

import (
	"fmt"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

// ReferenceUsageClassifier is the classifier of the instances built for
// reference usage back references.
const ReferenceUsageClassifier = "meta::pure::metamodel::import::ReferenceUsage"

// ComponentBuilder builds fully initialized component instances.
type ComponentBuilder interface {
	BuildComponentInstance(data *element.InstanceData, backRefs []metadata.BackReference,
		refs ReferenceIDResolver, internal InternalIDResolver) (model.Instance, error)
}

// Buckets receive the deferred values of classified back references. A nil
// bucket drops references of its kind.
type Buckets struct {
	Applications                        *[]propval.Supplier[model.Instance]
	ModelElements                       *[]propval.Supplier[model.Instance]
	PropertiesFromAssociations          *[]propval.Supplier[model.Instance]
	QualifiedPropertiesFromAssociations *[]propval.Supplier[model.Instance]
	ReferenceUsages                     *[]propval.Supplier[model.Instance]
	Specializations                     *[]propval.Supplier[model.Instance]
}

// bucketFor returns the bucket of a kind.
func (b Buckets) bucketFor(kind metadata.BackReferenceKind) *[]propval.Supplier[model.Instance] {
	switch kind {
	case metadata.ApplicationKind:
		return b.Applications
	case metadata.ModelElementKind:
		return b.ModelElements
	case metadata.PropertyFromAssociationKind:
		return b.PropertiesFromAssociations
	case metadata.QualifiedPropertyFromAssociationKind:
		return b.QualifiedPropertiesFromAssociations
	case metadata.ReferenceUsageKind:
		return b.ReferenceUsages
	case metadata.SpecializationKind:
		return b.Specializations
	default:
		return nil
	}
}

// CollectBackReferences classifies backRefs in order, appending one deferred
// supplier per reference to the bucket of its kind.
func CollectBackReferences(backRefs []metadata.BackReference, refs ReferenceIDResolver, internal InternalIDResolver,
	builder ComponentBuilder, buckets Buckets) error {
	if internal == nil {
		internal = vacuousInternalIDResolver
	}
	for _, br := range backRefs {
		bucket := buckets.bucketFor(br.Kind())
		if bucket == nil {
			continue
		}

		var s propval.Supplier[model.Instance]
		switch r := br.(type) {
		case metadata.Application:
			s = referenceSupplier(refs, r.FunctionExpression)
		case metadata.ModelElement:
			s = referenceSupplier(refs, r.Element)
		case metadata.PropertyFromAssociation:
			s = referenceSupplier(refs, r.Property)
		case metadata.QualifiedPropertyFromAssociation:
			s = referenceSupplier(refs, r.QualifiedProperty)
		case metadata.ReferenceUsage:
			s = referenceUsageSupplier(r, refs, internal, builder)
		case metadata.Specialization:
			s = referenceSupplier(refs, r.Generalization)
		default:
			return fmt.Errorf("unsupported back reference %T", br)
		}
		*bucket = append(*bucket, s)
	}
	return nil
}

func referenceUsageSupplier(r metadata.ReferenceUsage, refs ReferenceIDResolver, internal InternalIDResolver,
	builder ComponentBuilder) propval.Supplier[model.Instance] {
	return func() (model.Instance, error) {
		return builder.BuildComponentInstance(ReferenceUsageData(r), nil, refs, internal)
	}
}

// ReferenceUsageData is the instance data of the component describing a
// reference usage.
func ReferenceUsageData(r metadata.ReferenceUsage) *element.InstanceData {
	return &element.InstanceData{
		ClassifierPath:     ReferenceUsageClassifier,
		SourceInformation:  r.SourceInformation,
		CompileStateBitSet: model.ProcessedValidated.BitSet(),
		PropertyValues: []element.PropertyValues{
			{PropertyName: "offset", Values: []element.ValueOrReference{element.NewIntegerValue(int64(r.Offset))}},
			{PropertyName: "owner", Values: []element.ValueOrReference{element.NewExternalReference(r.Owner)}},
			{PropertyName: "propertyName", Values: []element.ValueOrReference{element.NewStringValue(r.Property)}},
		},
	}
}
