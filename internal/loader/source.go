// Package loader connects lazily materialized instances to the stores that
// hold their serialized form. A Loader owns the instance cache of one graph
// and resolves element paths and reference ids on behalf of the instances.
package loader

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/conduit-lang/metagraph/internal/compiler/element"
	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
)

// ErrNotFound is returned by sources for unknown element paths.
var ErrNotFound = errors.New("element not found")

// Source provides the serialized records of a graph.
type Source interface {
	// Index lists the metadata of every concrete element.
	Index(ctx context.Context) ([]metadata.ConcreteElementMetadata, error)
	// Element returns the serialized record of a concrete element.
	Element(ctx context.Context, path string) (*element.DeserializedConcreteElement, error)
	// BackReferences returns the back references of the instances of an
	// element, keyed by reference id. A path without back references yields
	// an empty result, not an error.
	BackReferences(ctx context.Context, path string) (metadata.ElementBackReferences, error)
}

// MemorySource is a Source backed by maps. It is safe for concurrent use.
type MemorySource struct {
	mu       sync.RWMutex
	meta     map[string]metadata.ConcreteElementMetadata
	elements map[string]*element.DeserializedConcreteElement
	backRefs map[string]metadata.ElementBackReferences
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		meta:     make(map[string]metadata.ConcreteElementMetadata),
		elements: make(map[string]*element.DeserializedConcreteElement),
		backRefs: make(map[string]metadata.ElementBackReferences),
	}
}

// AddElement stores an element and its metadata.
func (s *MemorySource) AddElement(meta metadata.ConcreteElementMetadata, data *element.DeserializedConcreteElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[meta.Path] = meta
	s.elements[meta.Path] = data
}

// AddBackReferences merges back references into those stored for path.
func (s *MemorySource) AddBackReferences(path string, refs metadata.ElementBackReferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.backRefs[path]
	if !ok {
		existing = metadata.ElementBackReferences{}
		s.backRefs[path] = existing
	}
	for id, brs := range refs {
		existing.Add(id, brs...)
	}
}

func (s *MemorySource) Index(ctx context.Context) ([]metadata.ConcreteElementMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]metadata.ConcreteElementMetadata, 0, len(s.meta))
	for _, m := range s.meta {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemorySource) Element(ctx context.Context, path string) (*element.DeserializedConcreteElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elements[path]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *MemorySource) BackReferences(ctx context.Context, path string) (metadata.ElementBackReferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backRefs[path], nil
}
