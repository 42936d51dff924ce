// Package fixture reads graphs written by hand in YAML. A fixture lists
// elements with their component instances, and the back references of each
// element keyed by instance reference id:
//
//	elements:
//	  - path: model::Person
//	    classifier: meta::pure::metamodel::type::Class
//	    compileStates: [processed, validated]
//	    properties:
//	      name: [{string: Person}]
//	      package: [{ref: model}]
//	      properties: [{internal: 1}]
//	    components:
//	      - classifier: meta::pure::metamodel::function::property::Property
//	        name: age
//	        properties:
//	          owner: [{internal: 0}]
//	backReferences:
//	  model::Person:
//	    model::Person:
//	      - specialization: model::Employee#1
package fixture

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
	"github.com/conduit-lang/metagraph/internal/loader"
	"github.com/conduit-lang/metagraph/internal/model"
)

// File is a parsed fixture.
type File struct {
	Elements []Element `yaml:"elements"`
	// BackReferences maps element path to reference id to back references.
	BackReferences map[string]map[string][]BackReference `yaml:"backReferences"`
}

// Element is a concrete element: its own instance data plus components.
type Element struct {
	Path               string `yaml:"path"`
	ReferenceIDVersion int    `yaml:"referenceIdVersion"`
	Instance           `yaml:",inline"`
	Components         []Instance `yaml:"components"`
}

// Instance is the instance data of an element or component.
type Instance struct {
	// ReferenceID defaults to the element path for the element itself and
	// to path#n for the n-th component.
	ReferenceID   string                   `yaml:"referenceId"`
	Name          string                   `yaml:"name"`
	Classifier    string                   `yaml:"classifier"`
	Source        *model.SourceInformation `yaml:"source"`
	CompileStates []string                 `yaml:"compileStates"`
	Properties    Properties               `yaml:"properties"`
}

// Record is a fixture element converted to its stored form.
type Record struct {
	Meta metadata.ConcreteElementMetadata
	Data *element.DeserializedConcreteElement
}

// Writer stores records. *sqlstore.Store implements it.
type Writer interface {
	PutElement(ctx context.Context, meta metadata.ConcreteElementMetadata, data *element.DeserializedConcreteElement) error
	PutBackReferences(ctx context.Context, path string, refs metadata.ElementBackReferences) error
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses fixture YAML. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool, len(f.Elements))
	for i, e := range f.Elements {
		if e.Path == "" {
			return fmt.Errorf("element %d: path is required", i)
		}
		if seen[e.Path] {
			return fmt.Errorf("duplicate element %s", e.Path)
		}
		seen[e.Path] = true
		if e.Classifier == "" {
			return fmt.Errorf("element %s: classifier is required", e.Path)
		}
		for j, c := range e.Components {
			if c.Classifier == "" {
				return fmt.Errorf("element %s: component %d: classifier is required", e.Path, j+1)
			}
		}
	}
	return nil
}

// Records converts the elements to their stored form.
func (f *File) Records() ([]Record, error) {
	records := make([]Record, 0, len(f.Elements))
	for _, e := range f.Elements {
		r, err := e.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (e *Element) record() (Record, error) {
	data := &element.DeserializedConcreteElement{
		Path:               e.Path,
		ReferenceIDVersion: e.ReferenceIDVersion,
		InstanceData:       make([]element.InstanceData, 0, len(e.Components)+1),
	}

	root, err := e.Instance.data(e.Path)
	if err != nil {
		return Record{}, fmt.Errorf("element %s: %w", e.Path, err)
	}
	data.InstanceData = append(data.InstanceData, root)
	for i, c := range e.Components {
		d, err := c.data(fmt.Sprintf("%s#%d", e.Path, i+1))
		if err != nil {
			return Record{}, fmt.Errorf("element %s: component %d: %w", e.Path, i+1, err)
		}
		data.InstanceData = append(data.InstanceData, d)
	}
	if err := data.Validate(); err != nil {
		return Record{}, err
	}

	meta := metadata.ConcreteElementMetadata{
		Path:              e.Path,
		ClassifierPath:    e.Classifier,
		SourceInformation: e.Source,
	}
	return Record{Meta: meta, Data: data}, nil
}

func (i *Instance) data(defaultID string) (element.InstanceData, error) {
	states, err := parseCompileStates(i.CompileStates)
	if err != nil {
		return element.InstanceData{}, err
	}
	id := i.ReferenceID
	if id == "" {
		id = defaultID
	}

	d := element.InstanceData{
		Name:               i.Name,
		ClassifierPath:     i.Classifier,
		SourceInformation:  i.Source,
		ReferenceID:        id,
		CompileStateBitSet: states.BitSet(),
		PropertyValues:     make([]element.PropertyValues, 0, len(i.Properties)),
	}
	for _, p := range i.Properties {
		values := make([]element.ValueOrReference, len(p.Values))
		for j, v := range p.Values {
			values[j] = v.ValueOrReference
		}
		d.PropertyValues = append(d.PropertyValues, element.PropertyValues{PropertyName: p.Name, Values: values})
	}
	return d, nil
}

func parseCompileStates(names []string) (model.CompileStateSet, error) {
	var set model.CompileStateSet
	for _, name := range names {
		state, ok := model.ParseCompileState(name)
		if !ok {
			return 0, fmt.Errorf("unknown compile state %q", name)
		}
		set = set.With(state)
	}
	return set, nil
}

// ElementBackReferences returns the back references declared for path.
func (f *File) ElementBackReferences(path string) metadata.ElementBackReferences {
	byID, ok := f.BackReferences[path]
	if !ok {
		return nil
	}
	refs := make(metadata.ElementBackReferences, len(byID))
	for id, brs := range byID {
		for _, br := range brs {
			refs.Add(id, br.BackReference)
		}
	}
	return refs
}

// Source returns an in-memory source holding the fixture.
func (f *File) Source() (*loader.MemorySource, error) {
	records, err := f.Records()
	if err != nil {
		return nil, err
	}
	src := loader.NewMemorySource()
	for _, r := range records {
		src.AddElement(r.Meta, r.Data)
	}
	for path := range f.BackReferences {
		src.AddBackReferences(path, f.ElementBackReferences(path))
	}
	return src, nil
}

// Apply writes the fixture to w and returns the number of elements written.
func (f *File) Apply(ctx context.Context, w Writer) (int, error) {
	records, err := f.Records()
	if err != nil {
		return 0, err
	}
	for _, r := range records {
		if err := w.PutElement(ctx, r.Meta, r.Data); err != nil {
			return 0, err
		}
	}
	for path := range f.BackReferences {
		if err := w.PutBackReferences(ctx, path, f.ElementBackReferences(path)); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
