package pipeline

import (
	"log/slog"

	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// Matcher resolves a name mention to an already-known entity
type Matcher struct {
	store database.StoreDBHandlerFunctions
	log   *slog.Logger
}

// NewMatcher creates a new entity matcher
func NewMatcher(store database.StoreDBHandlerFunctions, logger *slog.Logger) *Matcher {
	return &Matcher{
		store: store,
		log:   logger,
	}
}

// Resolve finds the entity a name refers to: first in the session cache,
// then in the persistent store across all type collections and name
// variations, by exact name equality and then alias containment. A store
// hit is pulled into the session cache. Returns nil if the name is
// unknown, which the caller must treat as "create new".
func (m *Matcher) Resolve(run *ResolutionContext, name string) (*model.Entity, error) {
	if entity := run.LookupEntity(name); entity != nil {
		return entity, nil
	}

	variations := Variations(name)
	for _, collection := range model.EntityCollections {
		for _, variation := range variations {
			records, err := m.store.SelectRecordsByField(collection, "name", variation)
			if err != nil {
				return nil, helper.NewError("select entity by name", err)
			}
			if len(records) == 0 {
				records, err = m.store.SelectRecordsByArrayContains(collection, "aliases", variation)
				if err != nil {
					return nil, helper.NewError("select entity by alias", err)
				}
			}
			if len(records) == 0 {
				continue
			}

			entity, err := database.EntityFromRecord(records[0])
			if err != nil {
				return nil, err
			}

			m.log.Debug("Resolved entity from store",
				slog.String("name", name),
				slog.String("collection", collection),
				slog.String("entity_id", entity.ID.String()))

			return run.CacheEntity(entity), nil
		}
	}

	return nil, nil
}
