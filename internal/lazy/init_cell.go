package lazy

import (
	"sync"
	"sync/atomic"
)

// initMarker is present while an instance is uninitialized. Its mutex is the
// initialization lock, so it goes away together with the marker.
type initMarker struct {
	mu  sync.Mutex
	run func() error
}

// initCell runs an initialization function until it first succeeds.
// Initialized instances pay a single atomic load per access.
type initCell struct {
	marker atomic.Pointer[initMarker]
}

func newInitCell(run func() error) *initCell {
	c := &initCell{}
	c.marker.Store(&initMarker{run: run})
	return c
}

// ensure initializes if needed. A nil cell is always initialized. A failure
// leaves the marker in place so that the next access retries.
func (c *initCell) ensure() error {
	if c == nil {
		return nil
	}
	m := c.marker.Load()
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c.marker.Load() == nil {
		return nil
	}
	if err := m.run(); err != nil {
		return err
	}
	c.marker.Store(nil)
	return nil
}

func (c *initCell) initialized() bool {
	return c == nil || c.marker.Load() == nil
}
