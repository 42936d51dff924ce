package model

// CopySyntheticID is the synthetic id carried by every copied instance.
const CopySyntheticID = -1

// Instance is a node of the metamodel graph.
//
// Reads of lazily materialized instances may trigger deserialization or
// reference resolution, so every property and compile state accessor returns an
// error. Property names that an instance does not declare read as empty; writes
// to them fail with ErrUnknownProperty.
type Instance interface {
	SyntheticID() int
	Name() string
	SetName(name string)
	SourceInformation() *SourceInformation
	SetSourceInformation(si *SourceInformation)
	Classifier() (Instance, error)
	SetClassifier(classifier Instance) error

	// KeyNames lists the declared property names.
	KeyNames() ([]string, error)

	ValueForMetaPropertyToOne(property string) (Instance, error)
	ValueForMetaPropertyToMany(property string) ([]Instance, error)
	ValueInValueForMetaPropertyToManyByIndex(property string, spec *IndexSpec, key interface{}) ([]Instance, error)
	ValueInValueForMetaPropertyToManyByIDIndex(property string, spec *IndexSpec, key interface{}) (Instance, error)
	IsValueDefinedForKey(property string) (bool, error)
	IsFullyResolved(property string) (bool, error)

	AddKeyValue(key []string, value Instance) error
	AddKeyWithEmptyList(key []string) error
	SetKeyValues(key []string, values []Instance) error
	ModifyValueForToManyMetaProperty(property string, offset int, value Instance) error
	RemoveValueForMetaPropertyToMany(property string, value Instance) error
	RemoveProperty(property string) error

	AddCompileState(state CompileState) error
	RemoveCompileState(state CompileState) error
	HasCompileState(state CompileState) (bool, error)
	CompileStates() (CompileStateSet, error)
	SetCompileStatesFrom(states CompileStateSet) error

	// Copy returns an independent copy with synthetic id CopySyntheticID.
	Copy() (Instance, error)
}

// PropertyKey returns the property name addressed by a key path, which is its
// last segment.
func PropertyKey(key []string) string {
	if len(key) == 0 {
		return ""
	}
	return key[len(key)-1]
}
