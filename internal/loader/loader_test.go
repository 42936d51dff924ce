package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/lazy"
	"github.com/conduit-lang/metagraph/internal/model"
)

func str(s string) []element.ValueOrReference {
	return []element.ValueOrReference{element.NewStringValue(s)}
}

func ref(id string) []element.ValueOrReference {
	return []element.ValueOrReference{element.NewExternalReference(id)}
}

func internal(id int) []element.ValueOrReference {
	return []element.ValueOrReference{element.NewInternalReference(id)}
}

func testSource() *MemorySource {
	src := NewMemorySource()
	src.AddElement(metadata.ConcreteElementMetadata{Path: "String", ClassifierPath: lazy.PrimitiveTypeClassifier},
		&element.DeserializedConcreteElement{Path: "String", InstanceData: []element.InstanceData{{
			ClassifierPath:     lazy.PrimitiveTypeClassifier,
			ReferenceID:        "String",
			CompileStateBitSet: model.ProcessedValidated.BitSet(),
			PropertyValues:     []element.PropertyValues{{PropertyName: "name", Values: str("String")}},
		}}})
	src.AddElement(metadata.ConcreteElementMetadata{
		Path:              "model::Person",
		ClassifierPath:    lazy.ClassClassifier,
		SourceInformation: model.NewSourceInformation("model.pure", 3, 1),
	}, &element.DeserializedConcreteElement{Path: "model::Person", InstanceData: []element.InstanceData{
		{
			ClassifierPath:     lazy.ClassClassifier,
			ReferenceID:        "model::Person",
			CompileStateBitSet: model.ProcessedValidated.BitSet(),
			PropertyValues: []element.PropertyValues{
				{PropertyName: "name", Values: str("Person")},
				{PropertyName: "package", Values: ref("model")},
				{PropertyName: "properties", Values: internal(1)},
			},
		},
		{
			ClassifierPath: lazy.PropertyClassifier,
			ReferenceID:    "model::Person#1",
			Name:           "name",
			PropertyValues: []element.PropertyValues{
				{PropertyName: "name", Values: str("name")},
				{PropertyName: "owner", Values: ref("model::Person")},
				{PropertyName: "genericType", Values: internal(2)},
			},
		},
		{
			ClassifierPath: lazy.GenericTypeClassifier,
			ReferenceID:    "model::Person#2",
			PropertyValues: []element.PropertyValues{{PropertyName: "rawType", Values: ref("String")}},
		},
	}})
	src.AddElement(metadata.ConcreteElementMetadata{Path: "model::Address", ClassifierPath: lazy.ClassClassifier},
		&element.DeserializedConcreteElement{Path: "model::Address", InstanceData: []element.InstanceData{{
			ClassifierPath: lazy.ClassClassifier,
			ReferenceID:    "model::Address",
			PropertyValues: []element.PropertyValues{{PropertyName: "name", Values: str("Address")}},
		}}})
	src.AddBackReferences("String", metadata.ElementBackReferences{
		"String": {metadata.ReferenceUsage{Owner: "model::Person#2", Property: "rawType"}},
	})
	return src
}

func newTestLoader(t *testing.T, src Source) *Loader {
	t.Helper()
	repo := model.NewRepository()
	b := lazy.NewBuilder(repo, lazy.DefaultClassRegistry(), lazy.RepositoryPrimitiveValueResolver{Repo: repo}, nil)
	l, err := New(context.Background(), src, b, Options{Workers: 4})
	require.NoError(t, err)
	return l
}

func TestLoader_ResolvePackagePathOnce(t *testing.T) {
	l := newTestLoader(t, testSource())

	results := make([]model.Instance, 32)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst, err := l.ResolvePackagePath("model::Person")
			assert.NoError(t, err)
			results[i] = inst
		}(i)
	}
	wg.Wait()

	for _, inst := range results[1:] {
		assert.Same(t, results[0], inst)
	}
	assert.Equal(t, 1, l.Loaded())
	assert.Equal(t, "Person", results[0].Name())
}

func TestLoader_ResolveAcrossElements(t *testing.T) {
	l := newTestLoader(t, testSource())

	person, err := l.ResolvePackagePath("model::Person")
	require.NoError(t, err)

	props, err := person.ValueForMetaPropertyToMany("properties")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "name", props[0].Name())

	owner, err := props[0].ValueForMetaPropertyToOne("owner")
	require.NoError(t, err)
	assert.Same(t, person, owner)

	gt, err := props[0].ValueForMetaPropertyToOne("genericType")
	require.NoError(t, err)
	raw, err := gt.ValueForMetaPropertyToOne("rawType")
	require.NoError(t, err)
	stringType, err := l.ResolvePackagePath("String")
	require.NoError(t, err)
	assert.Same(t, stringType, raw)

	byID, err := l.ResolveReference("model::Person#2")
	require.NoError(t, err)
	assert.Same(t, gt, byID)

	pkg, err := person.ValueForMetaPropertyToOne("package")
	require.NoError(t, err)
	assert.IsType(t, &lazy.VirtualPackage{}, pkg)
	assert.Equal(t, "model", pkg.Name())
}

func TestLoader_ReferenceUsages(t *testing.T) {
	l := newTestLoader(t, testSource())

	stringType, err := l.ResolvePackagePath("String")
	require.NoError(t, err)
	usages, err := stringType.ValueForMetaPropertyToMany("referenceUsages")
	require.NoError(t, err)
	require.Len(t, usages, 1)

	owner, err := usages[0].ValueForMetaPropertyToOne("owner")
	require.NoError(t, err)
	gt, err := l.ResolveReference("model::Person#2")
	require.NoError(t, err)
	assert.Same(t, gt, owner)
}

func TestLoader_VirtualPackages(t *testing.T) {
	l := newTestLoader(t, testSource())

	pkg, err := l.ResolvePackagePath("model")
	require.NoError(t, err)
	children, err := pkg.ValueForMetaPropertyToMany("children")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Address", children[0].Name())
	assert.Equal(t, "Person", children[1].Name())

	root, err := l.ResolvePackagePath(metadata.Root)
	require.NoError(t, err)
	parent, err := pkg.ValueForMetaPropertyToOne("package")
	require.NoError(t, err)
	assert.Same(t, root, parent)
}

func TestLoader_UnknownPath(t *testing.T) {
	l := newTestLoader(t, testSource())

	_, err := l.ResolvePackagePath("model::Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnresolvable))

	_, err = l.ResolveReference("model::Person#99")
	assert.True(t, errors.Is(err, model.ErrUnresolvable))

	_, err = l.ResolveReference("model#1")
	assert.True(t, errors.Is(err, model.ErrUnresolvable))
}

func TestLoader_Preload(t *testing.T) {
	l := newTestLoader(t, testSource())

	require.NoError(t, l.Preload(context.Background(), nil))
	for _, path := range []string{"String", "model::Person", "model::Address"} {
		inst, err := l.ResolvePackagePath(path)
		require.NoError(t, err)
		assert.True(t, inst.(*lazy.ConcreteElement).IsInitialized(), path)
	}
}

type failingSource struct {
	*MemorySource
	calls atomic.Int32
}

func (s *failingSource) Element(ctx context.Context, path string) (*element.DeserializedConcreteElement, error) {
	s.calls.Add(1)
	if path == "model::Address" {
		return nil, errors.New("corrupt record")
	}
	return s.MemorySource.Element(ctx, path)
}

func TestLoader_PreloadFailure(t *testing.T) {
	src := &failingSource{MemorySource: testSource()}
	l := newTestLoader(t, src)

	err := l.Preload(context.Background(), []string{"model::Address"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInitialization))
	assert.Contains(t, err.Error(), "corrupt record")

	assert.NoError(t, l.Preload(context.Background(), []string{"model::Person"}))
}

func TestLoader_PreloadCancelled(t *testing.T) {
	l := newTestLoader(t, testSource())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Preload(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_Bootstrap(t *testing.T) {
	l := newTestLoader(t, testSource())
	require.NoError(t, l.Bootstrap())

	repo := l.Repository()
	require.NotNil(t, repo.TopLevel("String"))
	require.NotNil(t, repo.TopLevel(metadata.Root))
	assert.Nil(t, repo.TopLevel("Integer"))

	classifier, err := repo.NewStringInstanceCached("hello").Classifier()
	require.NoError(t, err)
	assert.Same(t, repo.TopLevel("String"), classifier)
}

func TestMemorySource(t *testing.T) {
	src := testSource()
	ctx := context.Background()

	metas, err := src.Index(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "String", metas[0].Path)
	assert.Equal(t, "model::Address", metas[1].Path)

	_, err = src.Element(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	refs, err := src.BackReferences(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, refs)

	src.AddBackReferences("String", metadata.ElementBackReferences{"String": {metadata.Application{FunctionExpression: "f"}}})
	refs, err = src.BackReferences(ctx, "String")
	require.NoError(t, err)
	assert.Len(t, refs.BackReferences("String"), 2)
}
