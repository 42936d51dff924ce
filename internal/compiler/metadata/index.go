package metadata

import (
	"fmt"
	"sort"

	"github.com/conduit-lang/metagraph/internal/model"
)

// ElementMetadata describes an element known to exist without loading it.
type ElementMetadata interface {
	ElementPath() string
}

// ConcreteElementMetadata describes a serialized top-level element.
type ConcreteElementMetadata struct {
	Path              string                   `msgpack:"p" yaml:"path"`
	ClassifierPath    string                   `msgpack:"c" yaml:"classifier"`
	SourceInformation *model.SourceInformation `msgpack:"s,omitempty" yaml:"source,omitempty"`
}

func (m ConcreteElementMetadata) ElementPath() string {
	return m.Path
}

// VirtualPackageMetadata describes a package that exists only because other
// elements are placed in it.
type VirtualPackageMetadata struct {
	Path string
}

func (m VirtualPackageMetadata) ElementPath() string {
	return m.Path
}

// Index is the metadata index of a graph: every element path, with package
// membership. It is immutable after construction.
type Index struct {
	elements map[string]ElementMetadata
	children map[string][]ElementMetadata
}

// NewIndex builds an index from concrete element metadata. Packages on the
// path of an element that are not themselves concrete elements become virtual
// packages. Duplicate paths are rejected.
func NewIndex(elements []ConcreteElementMetadata) (*Index, error) {
	idx := &Index{
		elements: make(map[string]ElementMetadata, len(elements)+1),
		children: make(map[string][]ElementMetadata),
	}
	for _, e := range elements {
		if _, dup := idx.elements[e.Path]; dup {
			return nil, fmt.Errorf("duplicate element path %s", e.Path)
		}
		idx.elements[e.Path] = e
	}
	for _, e := range elements {
		idx.link(e)
	}
	if _, ok := idx.elements[Root]; !ok {
		idx.elements[Root] = VirtualPackageMetadata{Path: Root}
	}
	for _, c := range idx.children {
		sort.Slice(c, func(i, j int) bool { return c[i].ElementPath() < c[j].ElementPath() })
	}
	return idx, nil
}

func (idx *Index) link(e ElementMetadata) {
	pkg := PackageFromPath(e.ElementPath())
	if pkg == "" {
		return
	}
	idx.children[pkg] = append(idx.children[pkg], e)
	if _, known := idx.elements[pkg]; known {
		return
	}
	vp := VirtualPackageMetadata{Path: pkg}
	idx.elements[pkg] = vp
	idx.link(vp)
}

// Element returns the metadata for path.
func (idx *Index) Element(path string) (ElementMetadata, bool) {
	m, ok := idx.elements[path]
	return m, ok
}

// PackageChildren returns the direct children of a package, sorted by path.
func (idx *Index) PackageChildren(path string) []ElementMetadata {
	c := idx.children[path]
	out := make([]ElementMetadata, len(c))
	copy(out, c)
	return out
}

// ConcreteElements returns the metadata of every concrete element, sorted by path.
func (idx *Index) ConcreteElements() []ConcreteElementMetadata {
	var out []ConcreteElementMetadata
	for _, m := range idx.elements {
		if c, ok := m.(ConcreteElementMetadata); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// VirtualPackages returns the paths of every virtual package, sorted.
func (idx *Index) VirtualPackages() []string {
	var out []string
	for path, m := range idx.elements {
		if _, ok := m.(VirtualPackageMetadata); ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Size returns the number of indexed elements, virtual packages included.
func (idx *Index) Size() int {
	return len(idx.elements)
}
