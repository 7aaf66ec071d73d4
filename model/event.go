package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event represents one ingested event record. Events are created once per
// row and never mutated afterwards; connections reference them by id.
type Event struct {
	ID           uuid.UUID `json:"id"`
	RawActor     string    `json:"raw_actor"`
	Action       string    `json:"action"`
	RawTarget    string    `json:"raw_target,omitempty"`
	Sentence     string    `json:"sentence,omitempty"`
	DateReceived time.Time `json:"date_received"`
	Locations    []string  `json:"locations,omitempty"`
	// Actors and Targets are the individual names split out of RawActor
	// and RawTarget at creation time
	Actors  []string `json:"actors"`
	Targets []string `json:"targets,omitempty"`
}

// Row is one tabular input record as produced by the ingestion
// collaborator. Actor, Action and DateReceived are required; Target and
// Locations are comma-joined mention lists and may be empty.
type Row struct {
	Actor        string `json:"actor"`
	Action       string `json:"action"`
	Target       string `json:"target,omitempty"`
	Sentence     string `json:"sentence,omitempty"`
	DateReceived string `json:"date_received"`
	Locations    string `json:"locations,omitempty"`
}

// Validate checks the required row fields. The date format is validated
// separately via ParseDate since the accepted layouts are configurable.
func (r *Row) Validate() error {
	if strings.TrimSpace(r.Actor) == "" {
		return fmt.Errorf("row is missing required field Actor")
	}
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("row is missing required field Action")
	}
	if strings.TrimSpace(r.DateReceived) == "" {
		return fmt.Errorf("row is missing required field DateReceived")
	}
	return nil
}

// ParseDate parses DateReceived against the given layouts, first match wins
func (r *Row) ParseDate(layouts []string) (time.Time, error) {
	value := strings.TrimSpace(r.DateReceived)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", r.DateReceived)
}
