package database

import (
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
)

// EntityFromRecord decodes an entity document and attaches its store
// location so later updates and deletes address the same record
func EntityFromRecord(record *Record) (*model.Entity, error) {
	entity := &model.Entity{}
	if err := record.Doc.Unmarshal(entity); err != nil {
		return nil, helper.NewError("unmarshal entity document", err)
	}

	entity.StoreLocation = &model.StoreLocation{
		Collection: record.Collection,
		RecordID:   record.ID,
	}

	return entity, nil
}

// EntitiesFromRecords decodes a slice of entity records
func EntitiesFromRecords(records []*Record) ([]*model.Entity, error) {
	entities := make([]*model.Entity, 0, len(records))
	for _, record := range records {
		entity, err := EntityFromRecord(record)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// EventFromRecord decodes an event document
func EventFromRecord(record *Record) (*model.Event, error) {
	event := &model.Event{}
	if err := record.Doc.Unmarshal(event); err != nil {
		return nil, helper.NewError("unmarshal event document", err)
	}
	return event, nil
}

// EventsFromRecords decodes a slice of event records
func EventsFromRecords(records []*Record) ([]*model.Event, error) {
	events := make([]*model.Event, 0, len(records))
	for _, record := range records {
		event, err := EventFromRecord(record)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
