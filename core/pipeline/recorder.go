package pipeline

import (
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// Recorder attaches event-derived connections to entities and persists the
// updated entity document. Attaching the same (entity, event, role) twice
// is a no-op the second time.
type Recorder struct {
	store database.StoreDBHandlerFunctions

	// entityLocks serializes connection appends per entity, since one
	// event can reference the same entity under several names at once
	lockMu      sync.Mutex
	entityLocks map[uuid.UUID]*sync.Mutex
}

// NewRecorder creates a new connection recorder
func NewRecorder(store database.StoreDBHandlerFunctions) *Recorder {
	return &Recorder{
		store:       store,
		entityLocks: map[uuid.UUID]*sync.Mutex{},
	}
}

// BuildConnection derives the connection record an event produces for a
// given role
func BuildConnection(event *model.Event, role model.Role) model.Connection {
	timestamp := event.DateReceived
	return model.Connection{
		EventID:          event.ID,
		Action:           event.Action,
		Role:             role,
		RelatedActors:    event.Actors,
		RelatedTargets:   event.Targets,
		RelatedLocations: event.Locations,
		Timestamp:        &timestamp,
		Sentence:         event.Sentence,
	}
}

// ConnectionExists reports whether the entity already carries a
// connection for this event in this role
func ConnectionExists(entity *model.Entity, event *model.Event, role model.Role) bool {
	return entity.HasDuplicateConnection(BuildConnection(event, role))
}

// Attach appends the event connection to the entity unless an equal one
// exists, and persists the updated entity. Returns whether a connection
// was appended.
func (r *Recorder) Attach(entity *model.Entity, event *model.Event, role model.Role) (bool, error) {
	lock := r.entityLock(entity.ID)
	lock.Lock()
	defer lock.Unlock()

	if !entity.AppendConnection(BuildConnection(event, role)) {
		return false, nil
	}

	if entity.StoreLocation != nil {
		doc, err := model.NewDocument(entity)
		if err != nil {
			return true, err
		}
		if err := r.store.UpdateRecord(entity.StoreLocation.RecordID, doc); err != nil {
			return true, helper.NewError("persist entity connections", err)
		}
	}

	return true, nil
}

func (r *Recorder) entityLock(id uuid.UUID) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	lock, ok := r.entityLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.entityLocks[id] = lock
	}
	return lock
}
