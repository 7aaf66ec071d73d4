package model

// Coordinates is a geographic point attached to place enrichment data
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Enrichment is optional structured metadata about a name fetched from the
// external lookup service. A nil Enrichment means no data was found (or
// the lookup failed, which is treated the same way).
type Enrichment struct {
	ID          string       `json:"id,omitempty"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Country     string       `json:"country,omitempty"`
	Population  int64        `json:"population,omitempty"`
	Occupation  string       `json:"occupation,omitempty"`
	Founded     string       `json:"founded,omitempty"`
	DateOfBirth string       `json:"date_of_birth,omitempty"`
}
