package lazy

// Component is an instance that is complete at construction: a component of a
// concrete element, a reference usage, or a copy.
type Component struct {
	instanceBase
	referenceID string
}

// ReferenceID returns the reference id the component was serialized with.
func (c *Component) ReferenceID() string {
	return c.referenceID
}

// IsInitialized is always true.
func (c *Component) IsInitialized() bool {
	return true
}
