package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type bucket an entity belongs to
type EntityType string

const (
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganization EntityType = "organization"
	EntityTypePlace        EntityType = "place"
	EntityTypeUnknown      EntityType = "unknown"
)

// Collection returns the store collection holding entities of this type
func (t EntityType) Collection() string {
	switch t {
	case EntityTypePerson:
		return CollectionPeople
	case EntityTypeOrganization:
		return CollectionOrganizations
	case EntityTypePlace:
		return CollectionPlaces
	default:
		return CollectionUnknown
	}
}

// EntityTypeForCollection maps a store collection back to its entity type
func EntityTypeForCollection(collection string) EntityType {
	switch collection {
	case CollectionPeople:
		return EntityTypePerson
	case CollectionOrganizations:
		return EntityTypeOrganization
	case CollectionPlaces:
		return EntityTypePlace
	default:
		return EntityTypeUnknown
	}
}

// Store collection names
const (
	CollectionPeople        = "people"
	CollectionOrganizations = "organizations"
	CollectionPlaces        = "places"
	CollectionUnknown       = "unknown"
	CollectionEvents        = "events"
)

// EntityCollections lists the collections holding entity documents,
// in the order the matcher searches them
var EntityCollections = []string{
	CollectionPeople,
	CollectionOrganizations,
	CollectionPlaces,
	CollectionUnknown,
}

// PlaceCategory is the subtype of a place entity
type PlaceCategory string

const (
	PlaceCategoryCountry PlaceCategory = "country"
	PlaceCategoryCity    PlaceCategory = "city"
	PlaceCategoryState   PlaceCategory = "state"
	PlaceCategoryPlace   PlaceCategory = "place"
)

// PersonFields holds enrichment data specific to person entities
type PersonFields struct {
	Occupation  string `json:"occupation,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// OrganizationFields holds enrichment data specific to organization entities
type OrganizationFields struct {
	Founded string `json:"founded,omitempty"`
}

// PlaceFields holds enrichment data specific to place entities
type PlaceFields struct {
	Country    string       `json:"country,omitempty"`
	Population int64        `json:"population,omitempty"`
	Location   *Coordinates `json:"location,omitempty"`
}

// StoreLocation identifies the persisted record backing an entity.
// Not part of the document itself.
type StoreLocation struct {
	Collection string    `json:"-"`
	RecordID   uuid.UUID `json:"-"`
}

// Entity represents a resolved real-world referent (person, organization,
// place or unknown) tracked across events. Exactly one of Person,
// Organization and Place is populated, matching Type.
type Entity struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Aliases         []string            `json:"aliases"`
	Type            EntityType          `json:"entity_type"`
	Category        PlaceCategory       `json:"category,omitempty"`
	ExternalID      string              `json:"external_id,omitempty"`
	Description     string              `json:"description,omitempty"`
	Person          *PersonFields       `json:"person,omitempty"`
	Organization    *OrganizationFields `json:"organization,omitempty"`
	Place           *PlaceFields        `json:"place,omitempty"`
	Connections     []Connection        `json:"connections"`
	ConnectionCount int                 `json:"connection_count"`
	CreatedAt       time.Time           `json:"created_at"`
	StoreLocation   *StoreLocation      `json:"-"`
}

// MatchesName reports whether name matches the entity's name or any of its
// aliases. Comparison is always case-insensitive.
func (e *Entity) MatchesName(name string) bool {
	if strings.EqualFold(e.Name, name) {
		return true
	}
	for _, alias := range e.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// AddAlias appends an alias if no case-insensitive equal alias exists yet
func (e *Entity) AddAlias(name string) {
	if name == "" || e.MatchesName(name) {
		return
	}
	e.Aliases = append(e.Aliases, name)
}

// HasDuplicateConnection reports whether an equal connection (same role,
// same action, same event) is already attached to the entity.
func (e *Entity) HasDuplicateConnection(c Connection) bool {
	for _, existing := range e.Connections {
		if existing.Duplicates(c) {
			return true
		}
	}
	return false
}

// AppendConnection attaches a connection unless an equal one exists.
// Returns true if the connection was appended. ConnectionCount stays
// equal to len(Connections).
func (e *Entity) AppendConnection(c Connection) bool {
	if e.HasDuplicateConnection(c) {
		return false
	}
	e.Connections = append(e.Connections, c)
	e.ConnectionCount = len(e.Connections)
	return true
}
