package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fireteam/roster/internal/api"
)

// Fetcher loads one item definition from the platform.
type Fetcher func(ctx context.Context, itemHash uint32) (*api.ItemDefinition, error)

// DefinitionCache caches item definitions by hash for the length of a run.
// Members often share the same ghost shell, so concurrent misses on one hash
// collapse into a single lookup.
type DefinitionCache struct {
	m     sync.Mutex
	defs  map[uint32]*api.ItemDefinition
	group singleflight.Group
}

// NewDefinitionCache returns an empty cache.
func NewDefinitionCache() *DefinitionCache {
	return &DefinitionCache{
		defs: make(map[uint32]*api.ItemDefinition),
	}
}

func (c *DefinitionCache) get(itemHash uint32) (*api.ItemDefinition, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	def, ok := c.defs[itemHash]
	return def, ok
}

func (c *DefinitionCache) add(itemHash uint32, def *api.ItemDefinition) {
	c.m.Lock()
	defer c.m.Unlock()
	c.defs[itemHash] = def
}

func (c *DefinitionCache) size() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.defs)
}

// Fetch returns the cached definition or loads it with fetch. Failed lookups
// are not cached.
func (c *DefinitionCache) Fetch(ctx context.Context, itemHash uint32, fetch Fetcher) (*api.ItemDefinition, error) {
	if def, ok := c.get(itemHash); ok {
		return def, nil
	}
	v, err, _ := c.group.Do(strconv.FormatUint(uint64(itemHash), 10), func() (any, error) {
		if def, ok := c.get(itemHash); ok {
			return def, nil
		}
		def, err := fetch(ctx, itemHash)
		if err != nil {
			return nil, err
		}
		c.add(itemHash, def)
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.ItemDefinition), nil
}
