package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagraph/internal/model"
)

func TestPathHelpers(t *testing.T) {
	tests := []struct {
		path    string
		name    string
		pkg     string
		special bool
	}{
		{"meta::pure::metamodel::type::Class", "Class", "meta::pure::metamodel::type", false},
		{"model", "model", Root, false},
		{Root, Root, "", true},
		{"String", "String", "", true},
		{"Package", "Package", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.name, NameFromPath(tt.path))
			assert.Equal(t, tt.pkg, PackageFromPath(tt.path))
			assert.Equal(t, tt.special, IsSpecialType(tt.path))
		})
	}

	assert.Equal(t, "a::b", JoinPath("a", "b"))
	assert.Equal(t, "b", JoinPath(Root, "b"))
	assert.Equal(t, "model::Foo", OwnerPath("model::Foo#3"))
	assert.Equal(t, "model::Foo", OwnerPath("model::Foo"))
}

func TestNewIndex(t *testing.T) {
	idx, err := NewIndex([]ConcreteElementMetadata{
		{Path: "model::domain::Person", ClassifierPath: "meta::pure::metamodel::type::Class"},
		{Path: "model::domain::Firm", ClassifierPath: "meta::pure::metamodel::type::Class"},
		{Path: "model::Util", ClassifierPath: "meta::pure::metamodel::function::ConcreteFunctionDefinition"},
		{Path: "String", ClassifierPath: "meta::pure::metamodel::type::PrimitiveType"},
	})
	require.NoError(t, err)

	paths := func(ms []ElementMetadata) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.ElementPath())
		}
		return out
	}

	assert.Equal(t, []string{"model::domain::Firm", "model::domain::Person"}, paths(idx.PackageChildren("model::domain")))
	assert.Equal(t, []string{"model::Util", "model::domain"}, paths(idx.PackageChildren("model")))
	assert.Equal(t, []string{"model"}, paths(idx.PackageChildren(Root)))
	assert.Empty(t, idx.PackageChildren("model::domain::Person"))

	assert.Equal(t, []string{Root, "model", "model::domain"}, idx.VirtualPackages())
	assert.Len(t, idx.ConcreteElements(), 4)
	assert.Equal(t, 7, idx.Size())

	m, ok := idx.Element("model::domain")
	require.True(t, ok)
	assert.IsType(t, VirtualPackageMetadata{}, m)

	m, ok = idx.Element("model::Util")
	require.True(t, ok)
	assert.Equal(t, "meta::pure::metamodel::function::ConcreteFunctionDefinition", m.(ConcreteElementMetadata).ClassifierPath)
}

func TestNewIndex_Duplicate(t *testing.T) {
	_, err := NewIndex([]ConcreteElementMetadata{{Path: "a::B"}, {Path: "a::B"}})
	assert.Error(t, err)
}

func TestSerializeBackReferences(t *testing.T) {
	refs := ElementBackReferences{}
	refs.Add("model::Person",
		Application{FunctionExpression: "model::f#4"},
		ModelElement{Element: "model::Tagged"},
		PropertyFromAssociation{Property: "model::Employment#1"},
		QualifiedPropertyFromAssociation{QualifiedProperty: "model::Employment#2"},
		ReferenceUsage{Owner: "model::Firm#1", Property: "genericType", Offset: 0, SourceInformation: model.NewSourceInformation("f.pure", 2, 3)},
		Specialization{Generalization: "model::Employee#1"},
	)
	refs.Add("model::Person#1", ReferenceUsage{Owner: "model::Other", Property: "p", Offset: 2})

	data, err := SerializeBackReferences(refs)
	require.NoError(t, err)

	decoded, err := DeserializeBackReferences(data)
	require.NoError(t, err)

	if diff := cmp.Diff(refs, decoded); diff != "" {
		t.Errorf("back references mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"model::Person", "model::Person#1"}, decoded.ReferenceIDs())
}

func TestBackReferenceKinds(t *testing.T) {
	assert.Equal(t, ReferenceUsageKind, ReferenceUsage{}.Kind())
	assert.Equal(t, "specialization", SpecializationKind.String())

	k, ok := ParseBackReferenceKind("propertyFromAssociation")
	require.True(t, ok)
	assert.Equal(t, PropertyFromAssociationKind, k)

	_, ok = ParseBackReferenceKind("bogus")
	assert.False(t, ok)

	assert.Nil(t, NoBackReferences.BackReferences("anything"))
}

func TestCompressDecompress(t *testing.T) {
	data := []byte("model::Person model::Person model::Person model::Person")

	compressed, err := Compress(data)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)

	_, err = Compress(nil)
	assert.Error(t, err)

	empty, err := Decompress([]byte{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Decompress([]byte("not gzip"))
	assert.Error(t, err)
}
