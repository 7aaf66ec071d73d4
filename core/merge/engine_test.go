package merge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/database"
	"github.com/siherrmann/eventgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(store database.StoreDBHandlerFunctions) *Engine {
	return NewEngine(store, &sync.RWMutex{}, testLogger())
}

// insertDuplicate persists one member of a duplicate cluster and returns it
// with its store location attached
func insertDuplicate(t *testing.T, store database.StoreDBHandlerFunctions, name string, externalID string, createdAt time.Time, connections []model.Connection) *model.Entity {
	entity := &model.Entity{
		ID:          uuid.New(),
		Name:        name,
		Aliases:     []string{name},
		Type:        model.EntityTypePerson,
		ExternalID:  externalID,
		Connections: connections,
		CreatedAt:   createdAt,
	}
	entity.ConnectionCount = len(connections)

	record, err := store.InsertRecord(model.CollectionPeople, entity)
	require.NoError(t, err, "Expected entity insert to not return an error")
	entity.StoreLocation = &model.StoreLocation{Collection: record.Collection, RecordID: record.ID}
	return entity
}

func connectionFor(action string, day time.Time) model.Connection {
	return model.Connection{
		EventID:       uuid.New(),
		Action:        action,
		Role:          model.RoleActor,
		RelatedActors: []string{"Cluster Person"},
		Timestamp:     &day,
	}
}

func TestEngineRun(t *testing.T) {
	store := initStore(t)
	engine := newTestEngine(store)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	sharedEvent := connectionFor("shared action", day)

	first := insertDuplicate(t, store, "Cluster Person", "Q123", day, []model.Connection{
		connectionFor("first action", day),
		sharedEvent,
	})
	second := insertDuplicate(t, store, "C. Person", "Q123", day.Add(time.Hour), []model.Connection{
		connectionFor("second action", day.AddDate(0, 0, 1)),
		sharedEvent,
	})
	third := insertDuplicate(t, store, "Cluster P.", "Q123", day.Add(2*time.Hour), []model.Connection{
		connectionFor("third action", day.AddDate(0, 0, 2)),
	})
	defer store.DeleteRecord(first.StoreLocation.RecordID)

	t.Run("Preview reports the cluster without writing", func(t *testing.T) {
		preview, err := engine.Preview()
		require.NoError(t, err, "Expected preview to not return an error")
		require.Len(t, preview.Clusters, 1, "Expected one cluster")
		assert.Equal(t, 2, preview.TotalDuplicatesToRemove, "Expected two duplicates to remove")

		cluster := preview.Clusters[0]
		assert.Equal(t, model.EntityTypePerson, cluster.Type, "Expected person cluster")
		assert.Equal(t, "Q123", cluster.ExternalID, "Expected shared external id")
		assert.Equal(t, 3, cluster.Size, "Expected three members")
		assert.Equal(t, first.ID, cluster.CanonicalID, "Expected earliest created member as canonical")
		assert.ElementsMatch(t, []string{"Cluster Person", "C. Person", "Cluster P."}, cluster.MemberNames,
			"Expected all member names listed")

		record, err := store.SelectRecord(second.StoreLocation.RecordID)
		require.NoError(t, err, "Expected record select to not return an error")
		assert.NotNil(t, record, "Expected preview to leave duplicates in place")
	})

	t.Run("Run collapses the cluster", func(t *testing.T) {
		report, err := engine.Run(context.Background())
		require.NoError(t, err, "Expected merge run to not return an error")
		assert.Equal(t, 1, report.DuplicateGroupsFound, "Expected one duplicate group")
		assert.Equal(t, 2, report.DuplicatesRemoved, "Expected two duplicates removed")

		record, err := store.SelectRecord(first.StoreLocation.RecordID)
		require.NoError(t, err, "Expected record select to not return an error")
		require.NotNil(t, record, "Expected canonical record to survive")
		canonical, err := database.EntityFromRecord(record)
		require.NoError(t, err, "Expected entity decode to not return an error")

		assert.Equal(t, "Cluster Person", canonical.Name, "Expected canonical name kept")
		assert.Contains(t, canonical.Aliases, "C. Person", "Expected absorbed name as alias")
		assert.Contains(t, canonical.Aliases, "Cluster P.", "Expected absorbed name as alias")
		// 2 + 2 + 1 connections minus the one shared event
		assert.Equal(t, 4, canonical.ConnectionCount, "Expected connection union without double counting")

		gone, err := store.SelectRecord(second.StoreLocation.RecordID)
		require.NoError(t, err, "Expected record select to not return an error")
		assert.Nil(t, gone, "Expected absorbed record to be deleted")
		gone, err = store.SelectRecord(third.StoreLocation.RecordID)
		require.NoError(t, err, "Expected record select to not return an error")
		assert.Nil(t, gone, "Expected absorbed record to be deleted")
	})

	t.Run("Second run finds nothing", func(t *testing.T) {
		report, err := engine.Run(context.Background())
		require.NoError(t, err, "Expected merge run to not return an error")
		assert.Equal(t, 0, report.DuplicateGroupsFound, "Expected no duplicate groups on a clean store")
		assert.Equal(t, 0, report.DuplicatesRemoved, "Expected nothing removed on a clean store")
	})
}

func TestEngineIgnoresNonClusters(t *testing.T) {
	store := initStore(t)
	engine := newTestEngine(store)

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local)

	t.Run("Entities without external id never cluster", func(t *testing.T) {
		a := insertDuplicate(t, store, "No Id Person A", "", day, nil)
		b := insertDuplicate(t, store, "No Id Person B", "", day, nil)
		defer store.DeleteRecord(a.StoreLocation.RecordID)
		defer store.DeleteRecord(b.StoreLocation.RecordID)

		preview, err := engine.Preview()
		require.NoError(t, err, "Expected preview to not return an error")
		assert.Empty(t, preview.Clusters, "Expected no clusters without external ids")
	})

	t.Run("Single member with external id never clusters", func(t *testing.T) {
		only := insertDuplicate(t, store, "Lone Id Person", "Q777", day, nil)
		defer store.DeleteRecord(only.StoreLocation.RecordID)

		preview, err := engine.Preview()
		require.NoError(t, err, "Expected preview to not return an error")
		assert.Empty(t, preview.Clusters, "Expected no cluster for a single member")
	})
}
