package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIngestConfig(t *testing.T) {
	config := DefaultIngestConfig()

	assert.True(t, config.EnrichmentEnabled, "Expected enrichment enabled by default")
	assert.Equal(t, 10*time.Second, config.LookupTimeout(), "Expected default lookup timeout of 10 seconds")
	assert.NotEmpty(t, config.DateLayouts, "Expected default date layouts")
}

func TestLoadIngestConfig(t *testing.T) {
	t.Run("Loads values from yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ingest.yaml")
		content := "enrichment_enabled: false\nlookup_timeout_seconds: 3\ndate_layouts:\n  - \"2006-01-02\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadIngestConfig(path)
		require.NoError(t, err, "Expected config file to load")
		assert.False(t, config.EnrichmentEnabled, "Expected enrichment disabled from file")
		assert.Equal(t, 3*time.Second, config.LookupTimeout(), "Expected timeout from file")
		assert.Equal(t, []string{"2006-01-02"}, config.DateLayouts, "Expected layouts from file")
	})

	t.Run("Empty fields keep defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ingest.yaml")
		require.NoError(t, os.WriteFile(path, []byte("enrichment_enabled: false\n"), 0644))

		config, err := LoadIngestConfig(path)
		require.NoError(t, err, "Expected config file to load")
		assert.Equal(t, DefaultIngestConfig().LookupTimeoutSeconds, config.LookupTimeoutSeconds, "Expected default timeout kept")
		assert.Equal(t, DefaultIngestConfig().DateLayouts, config.DateLayouts, "Expected default layouts kept")
	})

	t.Run("Missing file returns error with defaults", func(t *testing.T) {
		config, err := LoadIngestConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err, "Expected missing file to error")
		assert.Equal(t, DefaultIngestConfig(), config, "Expected defaults on error")
	})
}
