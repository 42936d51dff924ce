package lazy

import (
	"fmt"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
)

// NewToOnePropertyValue builds a to-one container from serialized values.
// A reference value, or a primitive when eager is false, yields a deferred
// container. More than one serialized value fails with ErrCardinality.
func NewToOnePropertyValue[T any](pv *element.PropertyValues, refs ReferenceIDResolver, internal InternalIDResolver,
	prims PrimitiveValueResolver, eager bool, conv propval.Converter[T]) (*propval.OneValue[T], error) {
	if pv == nil || len(pv.Values) == 0 {
		return propval.NewEmptyOneValue(conv), nil
	}
	if len(pv.Values) > 1 {
		return nil, model.Errorf(model.ErrCardinality,
			"cannot set multiple values for a to-one property: %d values provided (property '%s')",
			len(pv.Values), pv.PropertyName)
	}

	v := pv.Values[0]
	if eager && !v.IsReference() {
		resolved, err := resolveValue[T](v, refs, internal, prims)
		if err != nil {
			return nil, err
		}
		return propval.NewOneValue(conv, resolved), nil
	}
	return propval.NewDeferredOneValue(conv, valueSupplier[T](v, refs, internal, prims)), nil
}

// NewToManyPropertyValue builds a to-many container from serialized values
// followed by extra suppliers. The container is resolved immediately only when
// eager is set, no value is a reference and there are no extra suppliers.
func NewToManyPropertyValue[T any](pv *element.PropertyValues, refs ReferenceIDResolver, internal InternalIDResolver,
	prims PrimitiveValueResolver, eager bool, extra []propval.Supplier[T], conv propval.Converter[T]) (*propval.ManyValues[T], error) {
	var values []element.ValueOrReference
	if pv != nil {
		values = pv.Values
	}

	if eager && len(extra) == 0 && (pv == nil || !pv.HasReferences()) {
		resolved := make([]T, 0, len(values))
		for _, v := range values {
			r, err := resolveValue[T](v, refs, internal, prims)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, r)
		}
		return propval.NewManyValues(conv, resolved), nil
	}

	suppliers := make([]propval.Supplier[T], 0, len(values)+len(extra))
	for _, v := range values {
		suppliers = append(suppliers, valueSupplier[T](v, refs, internal, prims))
	}
	suppliers = append(suppliers, extra...)
	return propval.NewDeferredManyValues(conv, suppliers), nil
}

func valueSupplier[T any](v element.ValueOrReference, refs ReferenceIDResolver, internal InternalIDResolver,
	prims PrimitiveValueResolver) propval.Supplier[T] {
	return func() (T, error) {
		return resolveValue[T](v, refs, internal, prims)
	}
}

func resolveValue[T any](v element.ValueOrReference, refs ReferenceIDResolver, internal InternalIDResolver,
	prims PrimitiveValueResolver) (T, error) {
	raw, err := resolveRaw(v, refs, internal, prims)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](raw)
}

func resolveRaw(v element.ValueOrReference, refs ReferenceIDResolver, internal InternalIDResolver,
	prims PrimitiveValueResolver) (interface{}, error) {
	switch v.Kind {
	case element.ExternalReference:
		return resolveReference(refs, v.ID)
	case element.InternalReference:
		if internal == nil {
			internal = vacuousInternalIDResolver
		}
		return internal(v.InternalID)
	case element.Boolean:
		return prims.ResolveBoolean(v.Bool), nil
	case element.Byte:
		return prims.ResolveByte(byte(v.Int)), nil
	case element.Date:
		return prims.ResolveDate(v.DateValue()), nil
	case element.DateTime:
		return prims.ResolveDateTime(v.DateValue()), nil
	case element.StrictDate:
		return prims.ResolveStrictDate(v.DateValue()), nil
	case element.LatestDate:
		return prims.ResolveLatestDate(), nil
	case element.Decimal:
		return prims.ResolveDecimal(v.DecimalValue()), nil
	case element.Float:
		return prims.ResolveFloat(v.FloatValue()), nil
	case element.Integer:
		return prims.ResolveInteger(v.Int), nil
	case element.StrictTime:
		return prims.ResolveStrictTime(model.StrictTime(v.Text)), nil
	case element.String:
		return prims.ResolveString(v.Text), nil
	default:
		return nil, fmt.Errorf("unsupported value kind %s", v.Kind)
	}
}

func as[T any](raw interface{}) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	t, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected value %v of type %T, expected %T", raw, raw, zero)
	}
	return t, nil
}
