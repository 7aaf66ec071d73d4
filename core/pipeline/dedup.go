package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// Deduplicator detects whether an incoming event already exists in the
// persistent store
type Deduplicator struct {
	store database.StoreDBHandlerFunctions
	log   *slog.Logger
}

// NewDeduplicator creates a new event deduplicator
func NewDeduplicator(store database.StoreDBHandlerFunctions, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		store: store,
		log:   logger,
	}
}

// IsDuplicate reports whether the event already exists in the store. Two
// events are duplicates if their sentences are non-empty and identical,
// or if actor, action and target match exactly and both dates fall on the
// same calendar day.
func (d *Deduplicator) IsDuplicate(event *model.Event) (bool, error) {
	if strings.TrimSpace(event.Sentence) != "" {
		records, err := d.store.SelectRecordsByField(model.CollectionEvents, "sentence", event.Sentence)
		if err != nil {
			return false, helper.NewError("select events by sentence", err)
		}
		for _, record := range records {
			persisted, err := database.EventFromRecord(record)
			if err != nil {
				return false, err
			}
			if persisted.Sentence == event.Sentence {
				return true, nil
			}
		}
	}

	records, err := d.store.SelectRecordsByField(model.CollectionEvents, "raw_actor", event.RawActor)
	if err != nil {
		return false, helper.NewError("select events by actor", err)
	}

	for _, record := range records {
		persisted, err := database.EventFromRecord(record)
		if err != nil {
			return false, err
		}
		if persisted.RawActor != event.RawActor ||
			persisted.Action != event.Action ||
			persisted.RawTarget != event.RawTarget {
			continue
		}
		if sameDay(persisted.DateReceived, event.DateReceived) {
			return true, nil
		}
	}

	return false, nil
}

// sameDay compares local calendar days, ignoring the time of day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
