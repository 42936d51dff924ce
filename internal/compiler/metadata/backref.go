package metadata

import (
	"fmt"
	"sort"

	"github.com/conduit-lang/metagraph/internal/model"
)

// BackReferenceKind enumerates the closed set of back-reference kinds.
type BackReferenceKind uint8

const (
	ApplicationKind BackReferenceKind = iota + 1
	ModelElementKind
	PropertyFromAssociationKind
	QualifiedPropertyFromAssociationKind
	ReferenceUsageKind
	SpecializationKind
)

var backReferenceKindNames = map[BackReferenceKind]string{
	ApplicationKind:                      "application",
	ModelElementKind:                     "modelElement",
	PropertyFromAssociationKind:          "propertyFromAssociation",
	QualifiedPropertyFromAssociationKind: "qualifiedPropertyFromAssociation",
	ReferenceUsageKind:                   "referenceUsage",
	SpecializationKind:                   "specialization",
}

func (k BackReferenceKind) String() string {
	if name, ok := backReferenceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BackReferenceKind(%d)", uint8(k))
}

// ParseBackReferenceKind returns the kind with the given name.
func ParseBackReferenceKind(name string) (BackReferenceKind, bool) {
	for k, n := range backReferenceKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// BackReference records that some other instance points at an element. The
// set of implementations is closed; switch on the concrete type.
type BackReference interface {
	Kind() BackReferenceKind
	backReference()
}

// Application is a function expression applying the element.
type Application struct {
	FunctionExpression string
}

// ModelElement is an element annotated with the element (a stereotype or tag).
type ModelElement struct {
	Element string
}

// PropertyFromAssociation is an association property targeting the element.
type PropertyFromAssociation struct {
	Property string
}

// QualifiedPropertyFromAssociation is an association qualified property
// targeting the element.
type QualifiedPropertyFromAssociation struct {
	QualifiedProperty string
}

// ReferenceUsage is a property value of Owner that references the element.
type ReferenceUsage struct {
	Owner             string
	Property          string
	Offset            int
	SourceInformation *model.SourceInformation
}

// Specialization is a generalization whose general type is the element.
type Specialization struct {
	Generalization string
}

func (Application) Kind() BackReferenceKind                      { return ApplicationKind }
func (ModelElement) Kind() BackReferenceKind                     { return ModelElementKind }
func (PropertyFromAssociation) Kind() BackReferenceKind          { return PropertyFromAssociationKind }
func (QualifiedPropertyFromAssociation) Kind() BackReferenceKind { return QualifiedPropertyFromAssociationKind }
func (ReferenceUsage) Kind() BackReferenceKind                   { return ReferenceUsageKind }
func (Specialization) Kind() BackReferenceKind                   { return SpecializationKind }

func (Application) backReference()                      {}
func (ModelElement) backReference()                     {}
func (PropertyFromAssociation) backReference()          {}
func (QualifiedPropertyFromAssociation) backReference() {}
func (ReferenceUsage) backReference()                   {}
func (Specialization) backReference()                   {}

// BackReferenceProvider supplies the back references of the instances of one
// element, keyed by instance reference id.
type BackReferenceProvider interface {
	BackReferences(referenceID string) []BackReference
}

// ElementBackReferences is the map-backed BackReferenceProvider.
type ElementBackReferences map[string][]BackReference

func (e ElementBackReferences) BackReferences(referenceID string) []BackReference {
	return e[referenceID]
}

// ReferenceIDs lists the instance reference ids in sorted order.
func (e ElementBackReferences) ReferenceIDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add appends back references for an instance.
func (e ElementBackReferences) Add(referenceID string, refs ...BackReference) {
	e[referenceID] = append(e[referenceID], refs...)
}

// NoBackReferences is the empty provider.
var NoBackReferences BackReferenceProvider = ElementBackReferences(nil)
