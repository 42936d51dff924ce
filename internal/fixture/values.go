package fixture

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/model"
)

// Property is a named list of values.
type Property struct {
	Name   string
	Values []Value
}

// Properties keeps the order properties are written in.
type Properties []Property

func (p *Properties) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", n.Line)
	}
	out := make(Properties, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		var values []Value
		if err := value.Decode(&values); err != nil {
			return fmt.Errorf("property '%s': %w", key.Value, err)
		}
		out = append(out, Property{Name: key.Value, Values: values})
	}
	*p = out
	return nil
}

// Value is a single-key mapping naming the literal type, such as
// {string: foo}, {integer: 3}, {ref: model::Person} or {internal: 1}.
type Value struct {
	element.ValueOrReference
}

func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	kind, value, err := singleKey(n)
	if err != nil {
		return err
	}
	parsed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	v.ValueOrReference = parsed
	return nil
}

func parseValue(kind string, n *yaml.Node) (element.ValueOrReference, error) {
	if kind == "latestDate" {
		return element.NewLatestDateValue(), nil
	}
	if n.Kind != yaml.ScalarNode {
		return element.ValueOrReference{}, fmt.Errorf("%s value must be a scalar", kind)
	}
	text := n.Value

	switch kind {
	case "string":
		return element.NewStringValue(text), nil
	case "ref":
		return element.NewExternalReference(text), nil
	case "internal":
		id, err := strconv.Atoi(text)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid internal id %q", text)
		}
		return element.NewInternalReference(id), nil
	case "integer":
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid integer %q", text)
		}
		return element.NewIntegerValue(i), nil
	case "boolean":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid boolean %q", text)
		}
		return element.NewBooleanValue(b), nil
	case "byte":
		b, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid byte %q", text)
		}
		return element.NewByteValue(byte(b)), nil
	case "decimal":
		d, err := decimal.NewFromString(text)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid decimal %q", text)
		}
		return element.NewDecimalValue(d), nil
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return element.ValueOrReference{}, fmt.Errorf("invalid float %q", text)
		}
		return element.NewFloatValue(f), nil
	case "date":
		return element.NewDateValue(model.Date(text)), nil
	case "dateTime":
		return element.NewDateTimeValue(model.Date(text)), nil
	case "strictDate":
		return element.NewStrictDateValue(model.Date(text)), nil
	case "strictTime":
		return element.NewStrictTimeValue(model.StrictTime(text)), nil
	default:
		return element.ValueOrReference{}, fmt.Errorf("unknown value type %q", kind)
	}
}

// BackReference is a single-key mapping naming the kind:
// {application: expr}, {modelElement: el}, {propertyFromAssociation: p},
// {qualifiedPropertyFromAssociation: qp}, {specialization: gen} or
// {referenceUsage: {owner: id, property: name, offset: n}}.
type BackReference struct {
	metadata.BackReference
}

type referenceUsage struct {
	Owner    string                   `yaml:"owner"`
	Property string                   `yaml:"property"`
	Offset   int                      `yaml:"offset"`
	Source   *model.SourceInformation `yaml:"source"`
}

func (b *BackReference) UnmarshalYAML(n *yaml.Node) error {
	name, value, err := singleKey(n)
	if err != nil {
		return err
	}
	kind, ok := metadata.ParseBackReferenceKind(name)
	if !ok {
		return fmt.Errorf("line %d: unknown back reference kind %q", n.Line, name)
	}

	if kind == metadata.ReferenceUsageKind {
		var ru referenceUsage
		if err := value.Decode(&ru); err != nil {
			return err
		}
		if ru.Owner == "" || ru.Property == "" {
			return fmt.Errorf("line %d: reference usage requires owner and property", n.Line)
		}
		b.BackReference = metadata.ReferenceUsage{
			Owner:             ru.Owner,
			Property:          ru.Property,
			Offset:            ru.Offset,
			SourceInformation: ru.Source,
		}
		return nil
	}

	var ref string
	if err := value.Decode(&ref); err != nil {
		return err
	}
	switch kind {
	case metadata.ApplicationKind:
		b.BackReference = metadata.Application{FunctionExpression: ref}
	case metadata.ModelElementKind:
		b.BackReference = metadata.ModelElement{Element: ref}
	case metadata.PropertyFromAssociationKind:
		b.BackReference = metadata.PropertyFromAssociation{Property: ref}
	case metadata.QualifiedPropertyFromAssociationKind:
		b.BackReference = metadata.QualifiedPropertyFromAssociation{QualifiedProperty: ref}
	case metadata.SpecializationKind:
		b.BackReference = metadata.Specialization{Generalization: ref}
	}
	return nil
}

func singleKey(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, fmt.Errorf("line %d: expected a mapping with exactly one key", n.Line)
	}
	return n.Content[0].Value, n.Content[1], nil
}
