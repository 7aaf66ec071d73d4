package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/eventgraph/helper"
)

// Document represents a JSONB document stored in PostgreSQL
type Document []byte

// Value implements the driver.Valuer interface for database storage
func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}
	return []byte(d), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = Document("{}")
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	*d = make(Document, len(b))
	copy(*d, b)
	return nil
}

// NewDocument marshals any value into a Document
func NewDocument(v interface{}) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, helper.NewError("marshal document", err)
	}
	return Document(b), nil
}

// Unmarshal decodes the document into v
func (d Document) Unmarshal(v interface{}) error {
	if len(d) == 0 {
		return nil
	}
	return json.Unmarshal(d, v)
}
