package model

import "github.com/google/uuid"

// ClusterSummary describes one group of persisted entities of the same
// type sharing a nonempty external id
type ClusterSummary struct {
	Type          EntityType `json:"entity_type"`
	ExternalID    string     `json:"external_id"`
	Size          int        `json:"size"`
	CanonicalID   uuid.UUID  `json:"canonical_id"`
	CanonicalName string     `json:"canonical_name"`
	MemberNames   []string   `json:"member_names"`
}

// MergePreview reports what a merge run would do without writing anything
type MergePreview struct {
	Clusters                []ClusterSummary `json:"clusters"`
	TotalDuplicatesToRemove int              `json:"total_duplicates_to_remove"`
}

// MergeReport summarizes a completed merge run
type MergeReport struct {
	DuplicateGroupsFound int `json:"duplicate_groups_found"`
	DuplicatesRemoved    int `json:"duplicates_removed"`
}

// IngestReport summarizes one ingestion run
type IngestReport struct {
	RowsProcessed   int `json:"rows_processed"`
	RowsSkipped     int `json:"rows_skipped"`
	DuplicateEvents int `json:"duplicate_events"`
	EntitiesCreated int `json:"entities_created"`
}
