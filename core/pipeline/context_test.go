package pipeline

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionContextEntityCache(t *testing.T) {
	run := NewResolutionContext()

	t.Run("Unknown name yields nil", func(t *testing.T) {
		assert.Nil(t, run.LookupEntity("Acme Corp"), "Expected empty cache to miss")
	})

	t.Run("Cached entity found case-insensitively", func(t *testing.T) {
		entity := &model.Entity{
			ID:      uuid.New(),
			Name:    "Acme Corp",
			Aliases: []string{"Acme Corp", "Acme Corporation"},
		}
		run.CacheEntity(entity)

		found := run.LookupEntity("acme corp")
		require.NotNil(t, found, "Expected cached entity to be found")
		assert.Equal(t, entity.ID, found.ID, "Expected the cached entity")

		byAlias := run.LookupEntity("ACME CORPORATION")
		require.NotNil(t, byAlias, "Expected alias lookup to hit")
		assert.Equal(t, entity.ID, byAlias.ID, "Expected the same entity by alias")
	})

	t.Run("Entities returns snapshot", func(t *testing.T) {
		snapshot := run.Entities()
		assert.Len(t, snapshot, 1, "Expected one cached entity")
	})

	t.Run("Same id cached once", func(t *testing.T) {
		original := run.Entities()[0]
		copied := &model.Entity{ID: original.ID, Name: original.Name}

		cached := run.CacheEntity(copied)
		assert.Same(t, original, cached, "Expected the already-cached instance back")
		assert.Len(t, run.Entities(), 1, "Expected no second cache entry for the same id")
	})

	t.Run("Clear empties the cache", func(t *testing.T) {
		run.Clear()
		assert.Nil(t, run.LookupEntity("Acme Corp"), "Expected cleared cache to miss")
		assert.Empty(t, run.Entities(), "Expected no cached entities after clear")
	})
}

func TestResolutionContextEnrichmentMemoization(t *testing.T) {
	run := NewResolutionContext()

	t.Run("Unlooked name reports not looked", func(t *testing.T) {
		enrichment, looked := run.Enrichment("Paris")
		assert.Nil(t, enrichment, "Expected no memoized value")
		assert.False(t, looked, "Expected name to not be marked as looked up")
	})

	t.Run("Memoized result returned case-insensitively", func(t *testing.T) {
		run.MemoizeEnrichment("Paris", &model.Enrichment{ID: "Q90"})

		enrichment, looked := run.Enrichment("paris")
		assert.True(t, looked, "Expected name to be marked as looked up")
		require.NotNil(t, enrichment, "Expected memoized enrichment")
		assert.Equal(t, "Q90", enrichment.ID, "Expected the memoized value")
	})

	t.Run("Memoized absence distinguishable from unlooked", func(t *testing.T) {
		run.MemoizeEnrichment("Zorblatt", nil)

		enrichment, looked := run.Enrichment("Zorblatt")
		assert.Nil(t, enrichment, "Expected nil memoized value")
		assert.True(t, looked, "Expected failed lookup to still count as looked")
	})
}

func TestResolutionContextNameLock(t *testing.T) {
	run := NewResolutionContext()

	t.Run("Same folded name yields same lock", func(t *testing.T) {
		a := run.NameLock("Acme Corp")
		b := run.NameLock("acme corp")
		assert.Same(t, a, b, "Expected one lock per case-folded name")
	})

	t.Run("Different names yield different locks", func(t *testing.T) {
		a := run.NameLock("Acme Corp")
		b := run.NameLock("Globex Inc")
		assert.NotSame(t, a, b, "Expected distinct locks for distinct names")
	})

	t.Run("Concurrent lock requests are safe", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lock := run.NameLock("Shared Name")
				lock.Lock()
				lock.Unlock()
			}()
		}
		wg.Wait()
	})
}

func TestResolutionContextEntityCounter(t *testing.T) {
	run := NewResolutionContext()
	assert.Equal(t, 0, run.EntitiesCreated(), "Expected zero created entities initially")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run.CountEntityCreated()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, run.EntitiesCreated(), "Expected all concurrent increments counted")

	run.Clear()
	assert.Equal(t, 0, run.EntitiesCreated(), "Expected counter reset by clear")
}
