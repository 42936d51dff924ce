// Package element defines the serialized records a deserializer produces for
// a concrete element and its component instances.
package element

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/conduit-lang/metagraph/internal/model"
)

// ValueKind tags the variant held by a ValueOrReference.
type ValueKind uint8

const (
	ExternalReference ValueKind = iota + 1
	InternalReference
	Boolean
	Byte
	Date
	DateTime
	StrictDate
	LatestDate
	Decimal
	Float
	Integer
	StrictTime
	String
)

var kindNames = map[ValueKind]string{
	ExternalReference: "ExternalReference",
	InternalReference: "InternalReference",
	Boolean:           "Boolean",
	Byte:              "Byte",
	Date:              "Date",
	DateTime:          "DateTime",
	StrictDate:        "StrictDate",
	LatestDate:        "LatestDate",
	Decimal:           "Decimal",
	Float:             "Float",
	Integer:           "Integer",
	StrictTime:        "StrictTime",
	String:            "String",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// ValueOrReference is one serialized property value: a reference to another
// instance or a primitive literal. Only the fields of Kind are meaningful.
type ValueOrReference struct {
	Kind ValueKind `msgpack:"k"`
	// ID is the reference id of an external reference.
	ID string `msgpack:"i,omitempty"`
	// InternalID is the index of an internal reference.
	InternalID int   `msgpack:"n,omitempty"`
	Bool       bool  `msgpack:"b,omitempty"`
	Int        int64 `msgpack:"v,omitempty"`
	// Text carries string, date, time, decimal and float literals.
	Text string `msgpack:"t,omitempty"`
}

func NewExternalReference(id string) ValueOrReference {
	return ValueOrReference{Kind: ExternalReference, ID: id}
}

func NewInternalReference(id int) ValueOrReference {
	return ValueOrReference{Kind: InternalReference, InternalID: id}
}

func NewBooleanValue(v bool) ValueOrReference {
	return ValueOrReference{Kind: Boolean, Bool: v}
}

func NewByteValue(v byte) ValueOrReference {
	return ValueOrReference{Kind: Byte, Int: int64(v)}
}

func NewDateValue(v model.Date) ValueOrReference {
	return ValueOrReference{Kind: Date, Text: string(v)}
}

func NewDateTimeValue(v model.Date) ValueOrReference {
	return ValueOrReference{Kind: DateTime, Text: string(v)}
}

func NewStrictDateValue(v model.Date) ValueOrReference {
	return ValueOrReference{Kind: StrictDate, Text: string(v)}
}

func NewLatestDateValue() ValueOrReference {
	return ValueOrReference{Kind: LatestDate}
}

func NewDecimalValue(v decimal.Decimal) ValueOrReference {
	return ValueOrReference{Kind: Decimal, Text: v.String()}
}

func NewFloatValue(v float64) ValueOrReference {
	return ValueOrReference{Kind: Float, Text: strconv.FormatFloat(v, 'g', -1, 64)}
}

func NewIntegerValue(v int64) ValueOrReference {
	return ValueOrReference{Kind: Integer, Int: v}
}

func NewStrictTimeValue(v model.StrictTime) ValueOrReference {
	return ValueOrReference{Kind: StrictTime, Text: string(v)}
}

func NewStringValue(v string) ValueOrReference {
	return ValueOrReference{Kind: String, Text: v}
}

// IsReference reports whether the value points at another instance.
func (v ValueOrReference) IsReference() bool {
	return v.Kind == ExternalReference || v.Kind == InternalReference
}

// DateValue returns the literal of a Date, DateTime or StrictDate value.
func (v ValueOrReference) DateValue() model.Date {
	return model.Date(v.Text)
}

// DecimalValue parses the decimal literal. Malformed literals panic: records
// are produced by a serializer that only writes canonical decimals.
func (v ValueOrReference) DecimalValue() decimal.Decimal {
	return decimal.RequireFromString(v.Text)
}

// FloatValue parses the float literal as a decimal so no precision is lost
// before the primitive resolver decides the representation.
func (v ValueOrReference) FloatValue() decimal.Decimal {
	return decimal.RequireFromString(v.Text)
}

func (v ValueOrReference) String() string {
	switch v.Kind {
	case ExternalReference:
		return "ref(" + v.ID + ")"
	case InternalReference:
		return "internal(" + strconv.Itoa(v.InternalID) + ")"
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Byte, Integer:
		return strconv.FormatInt(v.Int, 10)
	case LatestDate:
		return string(model.LatestDate)
	case String:
		return strconv.Quote(v.Text)
	default:
		return v.Text
	}
}

// PropertyValues lists the serialized values of one property.
type PropertyValues struct {
	PropertyName string `msgpack:"p"`
	// PropertySourceType is the path of the type that declares the property.
	PropertySourceType string             `msgpack:"s,omitempty"`
	Values             []ValueOrReference `msgpack:"v"`
}

// HasReferences reports whether any value is a reference.
func (p *PropertyValues) HasReferences() bool {
	for _, v := range p.Values {
		if v.IsReference() {
			return true
		}
	}
	return false
}
