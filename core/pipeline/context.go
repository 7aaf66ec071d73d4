package pipeline

import (
	"strings"
	"sync"

	"github.com/siherrmann/eventgraph/model"
)

// ResolutionContext carries the shared mutable state of one ingestion run:
// the session entity cache, the memoized enrichment lookups and the
// per-name creation locks. It is created per run and passed explicitly;
// there is no process-wide state.
type ResolutionContext struct {
	mu       sync.RWMutex
	entities []*model.Entity

	enrichmentMu sync.Mutex
	enrichments  map[string]*model.Enrichment
	looked       map[string]bool

	lockMu    sync.Mutex
	nameLocks map[string]*sync.Mutex

	countMu         sync.Mutex
	entitiesCreated int
}

// NewResolutionContext creates the context for a fresh ingestion run
func NewResolutionContext() *ResolutionContext {
	return &ResolutionContext{
		enrichments: map[string]*model.Enrichment{},
		looked:      map[string]bool{},
		nameLocks:   map[string]*sync.Mutex{},
	}
}

// LookupEntity finds an already-cached entity by case-insensitive match on
// name or any alias. Returns nil if the run has not seen the name yet.
func (c *ResolutionContext) LookupEntity(name string) *model.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entity := range c.entities {
		if entity.MatchesName(name) {
			return entity
		}
	}
	return nil
}

// CacheEntity adds an entity to the session cache and returns the cached
// instance. An entity already cached under the same id is reused, so
// concurrent store hits under different aliases end up sharing one
// instance instead of racing separate copies. Used both for entities
// created this run and for entities pulled out of the store.
func (c *ResolutionContext) CacheEntity(entity *model.Entity) *model.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cached := range c.entities {
		if cached.ID == entity.ID {
			return cached
		}
	}
	c.entities = append(c.entities, entity)
	return entity
}

// Entities returns a snapshot of all cached entities
func (c *ResolutionContext) Entities() []*model.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]*model.Entity, len(c.entities))
	copy(snapshot, c.entities)
	return snapshot
}

// Enrichment returns the memoized lookup result for a name. The second
// return value reports whether a lookup happened before; a memoized nil
// means the lookup found nothing (or failed) and must not be retried.
func (c *ResolutionContext) Enrichment(name string) (*model.Enrichment, bool) {
	c.enrichmentMu.Lock()
	defer c.enrichmentMu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	return c.enrichments[key], c.looked[key]
}

// MemoizeEnrichment stores a lookup result (or its absence) for the rest
// of the run
func (c *ResolutionContext) MemoizeEnrichment(name string, enrichment *model.Enrichment) {
	c.enrichmentMu.Lock()
	defer c.enrichmentMu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	c.enrichments[key] = enrichment
	c.looked[key] = true
}

// NameLock returns the mutex serializing resolution of one case-folded
// name. Distinct names resolve fully in parallel.
func (c *ResolutionContext) NameLock(name string) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	lock, ok := c.nameLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.nameLocks[key] = lock
	}
	return lock
}

// CountEntityCreated records one entity creation for the run report
func (c *ResolutionContext) CountEntityCreated() {
	c.countMu.Lock()
	defer c.countMu.Unlock()
	c.entitiesCreated++
}

// EntitiesCreated returns how many entities this run created
func (c *ResolutionContext) EntitiesCreated() int {
	c.countMu.Lock()
	defer c.countMu.Unlock()
	return c.entitiesCreated
}

// Clear empties the session cache and the enrichment cache. The context
// is reusable afterwards, equivalent to a fresh run.
func (c *ResolutionContext) Clear() {
	c.mu.Lock()
	c.entities = nil
	c.mu.Unlock()

	c.enrichmentMu.Lock()
	c.enrichments = map[string]*model.Enrichment{}
	c.looked = map[string]bool{}
	c.enrichmentMu.Unlock()

	c.lockMu.Lock()
	c.nameLocks = map[string]*sync.Mutex{}
	c.lockMu.Unlock()

	c.countMu.Lock()
	c.entitiesCreated = 0
	c.countMu.Unlock()
}
