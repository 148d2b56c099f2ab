package board

import (
	"sync"

	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/content"
)

// Cache loads each board version once and hands out the shared topology.
// It replaces module-level singletons: construct one in main and inject it.
type Cache struct {
	store  content.Store
	logger *zap.Logger

	mu         sync.Mutex
	topologies map[string]*Topology
}

// NewCache creates an empty board cache over the given content store.
//
// Precondition: store and logger must be non-nil.
func NewCache(store content.Store, logger *zap.Logger) *Cache {
	return &Cache{
		store:      store,
		logger:     logger,
		topologies: make(map[string]*Topology),
	}
}

// Get returns the topology for the given board version, loading and indexing
// it on first use.
//
// Postcondition: Returns the cached topology, or a non-nil error if the
// source document is missing, malformed, or has dangling adjacencies.
func (c *Cache) Get(version string) (*Topology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if topo, ok := c.topologies[version]; ok {
		return topo, nil
	}

	b, err := LoadBoard(c.store, version)
	if err != nil {
		return nil, err
	}
	topo, err := NewTopology(b, c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.Info("board topology loaded",
		zap.String("version", version),
		zap.Int("territories", len(b.Territories)),
		zap.Int("continents", len(b.Continents)),
	)

	c.topologies[version] = topo
	return topo, nil
}

// Versions enumerates the board versions known to the content store.
//
// Postcondition: Returns the available versions, or an empty slice with a
// logged warning if the store is unreachable. Never returns an error.
func (c *Cache) Versions() []string {
	versions, err := c.store.List(content.KindBoardTopology)
	if err != nil {
		c.logger.Warn("listing board versions", zap.Error(err))
		return nil
	}
	return versions
}

// Clear drops all cached topologies, forcing a reload on next use.
// Intended for test isolation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topologies = make(map[string]*Topology)
}
