package feeds

import (
	"sync"

	"github.com/google/uuid"
)

// Catalog holds the record set of the active device. Every device switch
// starts a new generation; a load result is accepted only for the
// generation it was started under, so results of an earlier device are
// discarded instead of interrupting the load.
type Catalog struct {
	mu         sync.RWMutex
	generation string
	result     *Result
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Begin starts a new generation and drops the current record set.
func (c *Catalog) Begin() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation = uuid.NewString()
	c.result = nil
	return c.generation
}

// Generation returns the active generation id.
func (c *Catalog) Generation() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Commit replaces the record set with result if gen is still active and
// reports whether it did.
func (c *Catalog) Commit(gen string, result *Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == "" || gen != c.generation {
		return false
	}
	c.result = result
	return true
}

// Current returns the committed result, nil while loading.
func (c *Catalog) Current() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Loading reports whether a generation is active but not yet committed.
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation != "" && c.result == nil
}
