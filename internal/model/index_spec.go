package model

// IndexSpec describes a secondary index over the values of a to-many property.
// Cached indexes are keyed by the spec pointer, so a spec should be created
// once and reused. Keys must be comparable.
type IndexSpec struct {
	name string
	key  func(Instance) (interface{}, error)
}

// NewIndexSpec creates an index spec from a typed key function.
func NewIndexSpec[K comparable](name string, key func(Instance) (K, error)) *IndexSpec {
	return &IndexSpec{
		name: name,
		key: func(inst Instance) (interface{}, error) {
			k, err := key(inst)
			if err != nil {
				return nil, err
			}
			return k, nil
		},
	}
}

// Name returns the descriptive name of the spec.
func (s *IndexSpec) Name() string {
	return s.name
}

// Key computes the index key of an instance.
func (s *IndexSpec) Key(inst Instance) (interface{}, error) {
	return s.key(inst)
}

// NameIndex indexes instances by Name.
var NameIndex = NewIndexSpec("name", func(inst Instance) (string, error) {
	return inst.Name(), nil
})
