package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the part an entity plays in an event
type Role string

const (
	RoleActor    Role = "actor"
	RoleTarget   Role = "target"
	RoleLocation Role = "location"
)

// Connection links an entity to one event in a given role. A connection is
// owned exclusively by its entity; it references the event by id only.
type Connection struct {
	EventID          uuid.UUID  `json:"event_id"`
	Action           string     `json:"action"`
	Role             Role       `json:"role"`
	RelatedActors    []string   `json:"related_actors"`
	RelatedTargets   []string   `json:"related_targets"`
	RelatedLocations []string   `json:"related_locations,omitempty"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	Sentence         string     `json:"sentence,omitempty"`
}

// SameEvent reports whether the connection refers to the given event.
// Matching by id wins; otherwise the parsed actor and target sets, the
// action and the calendar day of both timestamps must all be equal.
func (c Connection) SameEvent(event *Event) bool {
	if c.EventID == event.ID {
		return true
	}
	return stringSetEqual(c.RelatedActors, event.Actors) &&
		stringSetEqual(c.RelatedTargets, event.Targets) &&
		c.Action == event.Action &&
		sameCalendarDay(c.Timestamp, &event.DateReceived)
}

// Duplicates reports whether two connections record the same (event, role)
// attachment. Used both by the recorder for duplicate suppression and by
// the merge engine when unioning connections of absorbed entities.
func (c Connection) Duplicates(other Connection) bool {
	if c.Role != other.Role || c.Action != other.Action {
		return false
	}
	if c.EventID == other.EventID {
		return true
	}
	return stringSetEqual(c.RelatedActors, other.RelatedActors) &&
		stringSetEqual(c.RelatedTargets, other.RelatedTargets) &&
		sameCalendarDay(c.Timestamp, other.Timestamp)
}

// stringSetEqual compares two slices as case-folded sets, ignoring
// ordering and duplicate entries
func stringSetEqual(a, b []string) bool {
	setA := foldSet(a)
	setB := foldSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for k := range setA {
		if !setB[k] {
			return false
		}
	}
	return true
}

func foldSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

// sameCalendarDay reports whether both timestamps fall on the same local
// calendar day. A nil timestamp never matches.
func sameCalendarDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
