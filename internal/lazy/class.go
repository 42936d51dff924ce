package lazy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/conduit-lang/metagraph/internal/compiler/metadata"
)

// PropertySpec declares one property of a class.
type PropertySpec struct {
	Name string
	Many bool
}

// Class describes the properties an instance of a classifier carries.
type Class struct {
	Path       string
	properties []PropertySpec
	byName     map[string]int
}

// NewClass creates a class descriptor. Property names must be unique.
func NewClass(path string, properties ...PropertySpec) (*Class, error) {
	c := &Class{Path: path, properties: properties, byName: make(map[string]int, len(properties))}
	for i, p := range properties {
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("class %s: duplicate property '%s'", path, p.Name)
		}
		c.byName[p.Name] = i
	}
	return c, nil
}

// MustClass is NewClass for static descriptors.
func MustClass(path string, properties ...PropertySpec) *Class {
	c, err := NewClass(path, properties...)
	if err != nil {
		panic(err)
	}
	return c
}

// Property returns the spec of a declared property.
func (c *Class) Property(name string) (PropertySpec, bool) {
	i, ok := c.byName[name]
	if !ok {
		return PropertySpec{}, false
	}
	return c.properties[i], true
}

// Properties returns the declared properties in declaration order.
func (c *Class) Properties() []PropertySpec {
	out := make([]PropertySpec, len(c.properties))
	copy(out, c.properties)
	return out
}

// PropertyNames returns the declared property names in declaration order.
func (c *Class) PropertyNames() []string {
	names := make([]string, len(c.properties))
	for i, p := range c.properties {
		names[i] = p.Name
	}
	return names
}

// BackReferenceProperty maps each back-reference kind to the property that
// receives it on classes declaring that property.
var BackReferenceProperty = map[metadata.BackReferenceKind]string{
	metadata.ApplicationKind:                      "applications",
	metadata.ModelElementKind:                     "modelElements",
	metadata.PropertyFromAssociationKind:          "propertiesFromAssociations",
	metadata.QualifiedPropertyFromAssociationKind: "qualifiedPropertiesFromAssociations",
	metadata.ReferenceUsageKind:                   "referenceUsages",
	metadata.SpecializationKind:                   "specializations",
}

// ClassRegistry maps classifier paths to class descriptors. It is safe for
// concurrent use.
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewClassRegistry creates a registry holding classes.
func NewClassRegistry(classes ...*Class) *ClassRegistry {
	r := &ClassRegistry{classes: make(map[string]*Class, len(classes))}
	for _, c := range classes {
		r.classes[c.Path] = c
	}
	return r
}

// Register adds or replaces a class.
func (r *ClassRegistry) Register(c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.Path] = c
}

// Lookup returns the class for a classifier path.
func (r *ClassRegistry) Lookup(path string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[path]
	return c, ok
}

// Paths lists the registered classifier paths, sorted.
func (r *ClassRegistry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.classes))
	for p := range r.classes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
