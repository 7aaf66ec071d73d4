package pipeline

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherResolve(t *testing.T) {
	store := initStore(t)
	matcher := NewMatcher(store, testLogger())

	persisted := &model.Entity{
		ID:          uuid.New(),
		Name:        "The Globex Matcher Corp",
		Aliases:     []string{"The Globex Matcher Corp", "Globex Matching"},
		Type:        model.EntityTypeOrganization,
		Connections: []model.Connection{},
	}
	record, err := store.InsertRecord(model.CollectionOrganizations, persisted)
	require.NoError(t, err, "Expected entity insert to not return an error")
	defer store.DeleteRecord(record.ID)

	t.Run("Unknown name resolves to nil", func(t *testing.T) {
		run := NewResolutionContext()
		entity, err := matcher.Resolve(run, "Completely Unknown Matcher Name")
		assert.NoError(t, err, "Expected resolve to not return an error")
		assert.Nil(t, entity, "Expected unknown name to resolve to nil")
	})

	t.Run("Resolves by exact name", func(t *testing.T) {
		run := NewResolutionContext()
		entity, err := matcher.Resolve(run, "The Globex Matcher Corp")
		require.NoError(t, err, "Expected resolve to not return an error")
		require.NotNil(t, entity, "Expected persisted entity to be found")
		assert.Equal(t, persisted.ID, entity.ID, "Expected the persisted entity")
		require.NotNil(t, entity.StoreLocation, "Expected store location to be attached")
		assert.Equal(t, record.ID, entity.StoreLocation.RecordID, "Expected store location to address the record")
	})

	t.Run("Resolves case-insensitively", func(t *testing.T) {
		run := NewResolutionContext()
		entity, err := matcher.Resolve(run, "the globex matcher corp")
		require.NoError(t, err, "Expected resolve to not return an error")
		require.NotNil(t, entity, "Expected case-folded name to be found")
		assert.Equal(t, persisted.ID, entity.ID, "Expected the persisted entity")
	})

	t.Run("Resolves article-stripped variation", func(t *testing.T) {
		run := NewResolutionContext()
		entity, err := matcher.Resolve(run, "Globex Matcher Corp")
		require.NoError(t, err, "Expected resolve to not return an error")
		require.NotNil(t, entity, "Expected variation without article to be found")
		assert.Equal(t, persisted.ID, entity.ID, "Expected the persisted entity")
	})

	t.Run("Resolves by alias", func(t *testing.T) {
		run := NewResolutionContext()
		entity, err := matcher.Resolve(run, "Globex Matching")
		require.NoError(t, err, "Expected resolve to not return an error")
		require.NotNil(t, entity, "Expected alias to be found")
		assert.Equal(t, persisted.ID, entity.ID, "Expected the persisted entity")
	})

	t.Run("Store hit lands in session cache", func(t *testing.T) {
		run := NewResolutionContext()
		_, err := matcher.Resolve(run, "The Globex Matcher Corp")
		require.NoError(t, err, "Expected resolve to not return an error")
		assert.NotNil(t, run.LookupEntity("The Globex Matcher Corp"), "Expected resolved entity in session cache")
	})

	t.Run("Concurrent store hits share one instance", func(t *testing.T) {
		run := NewResolutionContext()
		names := []string{"The Globex Matcher Corp", "Globex Matching", "the globex matcher corp", "globex matching"}

		var wg sync.WaitGroup
		resolved := make([]*model.Entity, len(names))
		for i, name := range names {
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				entity, err := matcher.Resolve(run, name)
				assert.NoError(t, err, "Expected concurrent resolve to not return an error")
				resolved[i] = entity
			}(i, name)
		}
		wg.Wait()

		require.NotNil(t, resolved[0], "Expected the entity to be found")
		for i := 1; i < len(resolved); i++ {
			assert.Same(t, resolved[0], resolved[i], "Expected every alias to resolve to the same cached instance")
		}
		assert.Len(t, run.Entities(), 1, "Expected one cache entry for the entity")
	})
}
