package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Date is a canonical date or date-time literal, e.g. 2024-03-01 or
// 2024-03-01T10:15:00+0000.
type Date string

// StrictTime is a canonical time-of-day literal, e.g. 10:15:00.
type StrictTime string

// LatestDate is the literal of the latest-date marker.
const LatestDate Date = "%latest"

// Primitive type names, which double as the top-level paths of their classifiers.
const (
	BooleanType    = "Boolean"
	ByteType       = "Byte"
	DateType       = "Date"
	DateTimeType   = "DateTime"
	StrictDateType = "StrictDate"
	LatestDateType = "LatestDate"
	DecimalType    = "Decimal"
	FloatType      = "Float"
	IntegerType    = "Integer"
	StrictTimeType = "StrictTime"
	StringType     = "String"
)

// PrimitiveTypes lists every primitive type name.
var PrimitiveTypes = []string{
	BooleanType, ByteType, DateType, DateTimeType, StrictDateType, LatestDateType,
	DecimalType, FloatType, IntegerType, StrictTimeType, StringType,
}

// DateTypeOf returns the primitive type name matching the precision of a date literal.
func DateTypeOf(d Date) string {
	switch {
	case d == LatestDate:
		return LatestDateType
	case strings.ContainsRune(string(d), 'T'):
		return DateTimeType
	case len(d) == len("2006-01-02") && strings.Count(string(d), "-") == 2:
		return StrictDateType
	default:
		return DateType
	}
}

// PrimitiveInstance is an immutable instance wrapping a primitive Go value.
// It declares no properties.
type PrimitiveInstance struct {
	repo     *Repository
	id       int
	typeName string
	value    interface{}
}

func newPrimitiveInstance(repo *Repository, typeName string, value interface{}) *PrimitiveInstance {
	return &PrimitiveInstance{repo: repo, id: repo.NextSyntheticID(), typeName: typeName, value: value}
}

// Value returns the wrapped Go value.
func (p *PrimitiveInstance) Value() interface{} {
	return p.value
}

// TypeName returns the primitive type name.
func (p *PrimitiveInstance) TypeName() string {
	return p.typeName
}

func (p *PrimitiveInstance) SyntheticID() int {
	return p.id
}

func (p *PrimitiveInstance) Name() string {
	return FormatPrimitive(p.value)
}

// SetName is a no-op: primitive names are derived from their value.
func (p *PrimitiveInstance) SetName(string) {}

func (p *PrimitiveInstance) SourceInformation() *SourceInformation {
	return nil
}

// SetSourceInformation is a no-op.
func (p *PrimitiveInstance) SetSourceInformation(*SourceInformation) {}

func (p *PrimitiveInstance) Classifier() (Instance, error) {
	if p.repo == nil {
		return nil, nil
	}
	return p.repo.TopLevel(p.typeName), nil
}

func (p *PrimitiveInstance) SetClassifier(Instance) error {
	return Errorf(ErrUnknownProperty, "cannot change the classifier of primitive %s", p.Name())
}

func (p *PrimitiveInstance) KeyNames() ([]string, error) {
	return nil, nil
}

func (p *PrimitiveInstance) ValueForMetaPropertyToOne(string) (Instance, error) {
	return nil, nil
}

func (p *PrimitiveInstance) ValueForMetaPropertyToMany(string) ([]Instance, error) {
	return nil, nil
}

func (p *PrimitiveInstance) ValueInValueForMetaPropertyToManyByIndex(string, *IndexSpec, interface{}) ([]Instance, error) {
	return nil, nil
}

func (p *PrimitiveInstance) ValueInValueForMetaPropertyToManyByIDIndex(string, *IndexSpec, interface{}) (Instance, error) {
	return nil, nil
}

func (p *PrimitiveInstance) IsValueDefinedForKey(string) (bool, error) {
	return false, nil
}

func (p *PrimitiveInstance) IsFullyResolved(string) (bool, error) {
	return true, nil
}

func (p *PrimitiveInstance) AddKeyValue(key []string, _ Instance) error {
	return p.unknown(PropertyKey(key))
}

func (p *PrimitiveInstance) AddKeyWithEmptyList(key []string) error {
	return p.unknown(PropertyKey(key))
}

func (p *PrimitiveInstance) SetKeyValues(key []string, _ []Instance) error {
	return p.unknown(PropertyKey(key))
}

func (p *PrimitiveInstance) ModifyValueForToManyMetaProperty(property string, _ int, _ Instance) error {
	return p.unknown(property)
}

func (p *PrimitiveInstance) RemoveValueForMetaPropertyToMany(string, Instance) error {
	return nil
}

func (p *PrimitiveInstance) RemoveProperty(string) error {
	return nil
}

func (p *PrimitiveInstance) AddCompileState(CompileState) error {
	return nil
}

func (p *PrimitiveInstance) RemoveCompileState(CompileState) error {
	return nil
}

func (p *PrimitiveInstance) HasCompileState(state CompileState) (bool, error) {
	return ProcessedValidated.Has(state), nil
}

func (p *PrimitiveInstance) CompileStates() (CompileStateSet, error) {
	return ProcessedValidated, nil
}

func (p *PrimitiveInstance) SetCompileStatesFrom(CompileStateSet) error {
	return nil
}

// Copy returns p itself; primitive instances are immutable.
func (p *PrimitiveInstance) Copy() (Instance, error) {
	return p, nil
}

func (p *PrimitiveInstance) String() string {
	return fmt.Sprintf("%s(%d) instanceOf %s", p.Name(), p.id, p.typeName)
}

func (p *PrimitiveInstance) unknown(property string) error {
	return Errorf(ErrUnknownProperty, "unknown property '%s'", property)
}

// FormatPrimitive renders a primitive Go value the way it appears as an instance name.
func FormatPrimitive(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case byte:
		return strconv.Itoa(int(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case Date:
		return string(x)
	case StrictTime:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// ValuesEqual compares two property values. Primitive instances compare by
// value, other instances by identity, decimals numerically and any other
// comparable value with ==.
func ValuesEqual(a, b interface{}) bool {
	if pa, ok := a.(*PrimitiveInstance); ok {
		if pb, ok := b.(*PrimitiveInstance); ok {
			return pa == pb || (pa.typeName == pb.typeName && ValuesEqual(pa.value, pb.value))
		}
		return false
	}
	if _, ok := a.(Instance); ok {
		return a == b
	}
	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
