package model

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// IngestConfig represents configuration for an ingestion run
type IngestConfig struct {
	// EnrichmentEnabled toggles the external lookup for new entities
	EnrichmentEnabled bool `json:"enrichment_enabled" yaml:"enrichment_enabled"`

	// LookupTimeoutSeconds bounds a single enrichment lookup
	LookupTimeoutSeconds int `json:"lookup_timeout_seconds" yaml:"lookup_timeout_seconds"`

	// DateLayouts are the accepted layouts for a row's DateReceived,
	// tried in order
	DateLayouts []string `json:"date_layouts" yaml:"date_layouts"`
}

// DefaultIngestConfig returns a sensible default configuration
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		EnrichmentEnabled:    true,
		LookupTimeoutSeconds: 10,
		DateLayouts: []string{
			"2006-01-02",
			time.RFC3339,
			"2006-01-02 15:04:05",
			"01/02/2006",
		},
	}
}

// LoadIngestConfig reads an IngestConfig from a YAML file. Fields left
// empty in the file keep their default values.
func LoadIngestConfig(path string) (IngestConfig, error) {
	config := DefaultIngestConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, err
	}

	if config.LookupTimeoutSeconds <= 0 {
		config.LookupTimeoutSeconds = DefaultIngestConfig().LookupTimeoutSeconds
	}
	if len(config.DateLayouts) == 0 {
		config.DateLayouts = DefaultIngestConfig().DateLayouts
	}

	return config, nil
}

// LookupTimeout returns the lookup timeout as a duration
func (c IngestConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}
