package feeds

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-edge-platform/firmware-selector/internal/profile"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// kernelEntry is a finished or in-flight lookup; done is closed once kernel
// is set.
type kernelEntry struct {
	done   chan struct{}
	kernel *profile.Kernel
}

// KernelCache remembers the kernel descriptor of each (version, target).
// Concurrent misses for the same key share one source lookup.
type KernelCache struct {
	source  profile.Source
	mu      sync.Mutex
	entries map[string]*kernelEntry
}

// NewKernelCache returns a cache backed by source.
func NewKernelCache(source profile.Source) *KernelCache {
	return &KernelCache{source: source, entries: make(map[string]*kernelEntry)}
}

func kernelKey(version, target string) string {
	return version + "|" + target
}

// Remember records a kernel already known from a loaded profile.
func (c *KernelCache) Remember(version, target string, k *profile.Kernel) {
	if k == nil {
		return
	}
	kc := *k
	e := &kernelEntry{done: make(chan struct{}), kernel: &kc}
	close(e.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[kernelKey(version, target)] = e
}

// Kernel returns the kernel of target, asking the source only on a miss. A
// target without kernel information yields nil and no error; that answer is
// cached as well. Failed lookups are not cached.
func (c *KernelCache) Kernel(ctx context.Context, version, target string) (*profile.Kernel, error) {
	key := kernelKey(version, target)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.kernel != nil || c.cached(key, e) {
			return e.kernel, nil
		}
		// the lookup we waited on failed; try on our own
		return c.Kernel(ctx, version, target)
	}
	e := &kernelEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	p, err := c.source.Profile(ctx, version, target, "")
	if err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		close(e.done)
		return nil, fmt.Errorf("resolving kernel of %s %s: %w", target, version, err)
	}
	if p.Kernel == nil {
		logger.Logger().Warnf("no kernel information for %s %s, kmods feed skipped", target, version)
	}
	e.kernel = p.Kernel
	close(e.done)
	return e.kernel, nil
}

// cached reports whether e is still the stored entry for key, which tells a
// successful nil answer apart from a failed lookup.
func (c *KernelCache) cached(key string, e *kernelEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key] == e
}
