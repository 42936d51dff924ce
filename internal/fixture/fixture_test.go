package fixture

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/lazy"
	"github.com/conduit-lang/metagraph/internal/loader"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/store/sqlstore"
)

func TestLoad(t *testing.T) {
	f, err := Load("testdata/model.yaml")
	require.NoError(t, err)
	require.Len(t, f.Elements, 4)

	records, err := f.Records()
	require.NoError(t, err)
	person := records[2]
	assert.Equal(t, "model::Person", person.Meta.Path)
	assert.Equal(t, lazy.ClassClassifier, person.Meta.ClassifierPath)
	require.NotNil(t, person.Meta.SourceInformation)
	assert.Equal(t, 6, person.Meta.SourceInformation.EndLine)

	data := person.Data
	require.Len(t, data.InstanceData, 5)
	assert.Equal(t, "model::Person", data.InstanceData[0].ReferenceID)
	assert.Equal(t, "model::Person#1", data.InstanceData[1].ReferenceID)
	assert.Equal(t, "model::Person#4", data.InstanceData[4].ReferenceID)
	assert.Equal(t, model.ProcessedValidated.BitSet(), data.InstanceData[0].CompileStateBitSet)
	assert.Zero(t, data.InstanceData[2].CompileStateBitSet)

	names := make([]string, 0)
	for _, pv := range data.InstanceData[0].PropertyValues {
		names = append(names, pv.PropertyName)
	}
	assert.Equal(t, []string{"name", "package", "properties"}, names)
}

func TestParse_Values(t *testing.T) {
	f, err := Parse([]byte(`
elements:
  - path: test::Values
    classifier: test::Holder
    properties:
      all:
        - {string: hello}
        - {integer: -7}
        - {boolean: true}
        - {byte: 255}
        - {decimal: "1.25"}
        - {float: 2.5}
        - {date: 2024-01-31}
        - {dateTime: "2024-01-31T10:00:00+0000"}
        - {strictDate: 2024-01-31}
        - {strictTime: "10:15:00"}
        - {latestDate: ~}
        - {ref: test::Other}
        - {internal: 0}
`))
	require.NoError(t, err)

	records, err := f.Records()
	require.NoError(t, err)
	got := records[0].Data.InstanceData[0].PropertyValues[0].Values
	want := []element.ValueOrReference{
		element.NewStringValue("hello"),
		element.NewIntegerValue(-7),
		element.NewBooleanValue(true),
		element.NewByteValue(255),
		element.NewDecimalValue(decimal.RequireFromString("1.25")),
		element.NewFloatValue(2.5),
		element.NewDateValue("2024-01-31"),
		element.NewDateTimeValue("2024-01-31T10:00:00+0000"),
		element.NewStrictDateValue("2024-01-31"),
		element.NewStrictTimeValue("10:15:00"),
		element.NewLatestDateValue(),
		element.NewExternalReference("test::Other"),
		element.NewInternalReference(0),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_BackReferences(t *testing.T) {
	f, err := Parse([]byte(`
elements: []
backReferences:
  model::Person:
    model::Person:
      - application: "model::f#3"
      - modelElement: model::Firm
      - propertyFromAssociation: "model::Employment#1"
      - qualifiedPropertyFromAssociation: "model::Employment#2"
      - specialization: "model::Employee#1"
      - referenceUsage: {owner: "model::Firm#2", property: rawType, offset: 1}
`))
	require.NoError(t, err)

	want := metadata.ElementBackReferences{
		"model::Person": {
			metadata.Application{FunctionExpression: "model::f#3"},
			metadata.ModelElement{Element: "model::Firm"},
			metadata.PropertyFromAssociation{Property: "model::Employment#1"},
			metadata.QualifiedPropertyFromAssociation{QualifiedProperty: "model::Employment#2"},
			metadata.Specialization{Generalization: "model::Employee#1"},
			metadata.ReferenceUsage{Owner: "model::Firm#2", Property: "rawType", Offset: 1},
		},
	}
	if diff := cmp.Diff(want, f.ElementBackReferences("model::Person")); diff != "" {
		t.Errorf("back references mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, f.ElementBackReferences("model::Missing"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing path", "elements:\n  - classifier: C\n", "path is required"},
		{"missing classifier", "elements:\n  - path: a::B\n", "classifier is required"},
		{"duplicate", "elements:\n  - {path: a::B, classifier: C}\n  - {path: a::B, classifier: C}\n", "duplicate element a::B"},
		{"unknown field", "elements:\n  - {path: a::B, classifier: C, colour: red}\n", "colour"},
		{"unknown value type", "elements:\n  - path: a::B\n    classifier: C\n    properties:\n      p: [{blob: x}]\n", "unknown value type"},
		{"bad integer", "elements:\n  - path: a::B\n    classifier: C\n    properties:\n      p: [{integer: x}]\n", "invalid integer"},
		{"two keys", "elements:\n  - path: a::B\n    classifier: C\n    properties:\n      p: [{string: x, integer: 1}]\n", "exactly one key"},
		{"unknown back reference", "backReferences:\n  a:\n    a:\n      - {usage: x}\n", "unknown back reference kind"},
		{"incomplete usage", "backReferences:\n  a:\n    a:\n      - referenceUsage: {owner: x}\n", "requires owner and property"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecords_InvalidData(t *testing.T) {
	f, err := Parse([]byte(`
elements:
  - path: a::B
    classifier: C
    compileStates: [processed]
    properties:
      p: [{internal: 3}]
`))
	require.NoError(t, err)
	_, err = f.Records()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInternalID)

	f, err = Parse([]byte(`
elements:
  - path: a::B
    classifier: C
    compileStates: [compiled]
`))
	require.NoError(t, err)
	_, err = f.Records()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown compile state")
}

func TestSource_Loads(t *testing.T) {
	f, err := Load("testdata/model.yaml")
	require.NoError(t, err)
	src, err := f.Source()
	require.NoError(t, err)

	repo := model.NewRepository()
	b := lazy.NewBuilder(repo, lazy.DefaultClassRegistry(), nil, nil)
	l, err := loader.New(context.Background(), src, b, loader.Options{})
	require.NoError(t, err)

	person, err := l.ResolvePackagePath("model::Person")
	require.NoError(t, err)
	props, err := person.ValueForMetaPropertyToMany("properties")
	require.NoError(t, err)
	require.Len(t, props, 2)

	age := props[1]
	assert.Equal(t, "age", age.Name())
	def, err := age.ValueForMetaPropertyToOne("defaultValue")
	require.NoError(t, err)
	assert.Equal(t, int64(42), def.(*model.PrimitiveInstance).Value())

	integer, err := l.ResolvePackagePath("Integer")
	require.NoError(t, err)
	usages, err := integer.ValueForMetaPropertyToMany("referenceUsages")
	require.NoError(t, err)
	require.Len(t, usages, 1)

	pkg, err := l.ResolvePackagePath("model")
	require.NoError(t, err)
	usages, err = pkg.ValueForMetaPropertyToMany("referenceUsages")
	require.NoError(t, err)
	assert.Len(t, usages, 2)
}

func TestApply(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	store, err := sqlstore.New(db, "sqlite3", nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	f, err := Load("testdata/model.yaml")
	require.NoError(t, err)
	n, err := f.Apply(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	metas, err := store.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, metas, 4)

	refs, err := store.BackReferences(ctx, "model")
	require.NoError(t, err)
	assert.Len(t, refs.BackReferences("model"), 2)

	records, err := f.Records()
	require.NoError(t, err)
	got, err := store.Element(ctx, "model::Person")
	require.NoError(t, err)
	if diff := cmp.Diff(records[2].Data, got); diff != "" {
		t.Errorf("stored element mismatch (-want +got):\n%s", diff)
	}
}
