package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/eventgraph/helper"
	"github.com/siherrmann/eventgraph/model"
	loadSql "github.com/siherrmann/eventgraph/sql"
)

// Record is one persisted JSONB document with its stable identity
type Record struct {
	ID         uuid.UUID      `json:"id"`
	Collection string         `json:"collection"`
	Doc        model.Document `json:"doc"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StoreTxFunctions defines the record store operations that are available
// both on the handler and inside a transaction.
type StoreTxFunctions interface {
	InsertRecord(collection string, doc interface{}) (*Record, error)
	SelectRecord(id uuid.UUID) (*Record, error)
	SelectRecordsByField(collection string, field string, value string) ([]*Record, error)
	SelectRecordsByArrayContains(collection string, field string, value string) ([]*Record, error)
	SelectAllRecords(collection string) ([]*Record, error)
	UpdateRecord(id uuid.UUID, doc interface{}) error
	DeleteRecord(id uuid.UUID) error
}

// StoreDBHandlerFunctions defines the interface for record store
// database operations.
type StoreDBHandlerFunctions interface {
	StoreTxFunctions
	WithinTransaction(ctx context.Context, fn func(tx StoreTxFunctions) error) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// StoreDBHandler handles record store database operations
type StoreDBHandler struct {
	storeOps
	db *helper.Database
}

// NewStoreDBHandler creates a new record store database handler.
// It initializes the database connection and loads record-related SQL
// functions. If force is true, it will reload the SQL functions even if
// they already exist.
func NewStoreDBHandler(db *helper.Database, force bool) (*StoreDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	storeDbHandler := &StoreDBHandler{
		storeOps: storeOps{q: db.Instance},
		db:       db,
	}

	err := loadSql.LoadRecordsSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load records sql", err)
	}

	err = storeDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized StoreDBHandler")

	return storeDbHandler, nil
}

// CreateTable creates the 'records' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *StoreDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_records();`)
	if err != nil {
		return helper.NewError("initialize records table", err)
	}

	h.db.Logger.Info("Checked/created table records")

	return nil
}

// WithinTransaction runs fn with record store operations bound to one
// database transaction. The transaction commits only if fn returns nil;
// any error rolls back every operation fn performed.
func (h *StoreDBHandler) WithinTransaction(ctx context.Context, fn func(tx StoreTxFunctions) error) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}

	if err := fn(&storeOps{q: tx}); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return helper.NewError("rollback transaction", fmt.Errorf("%v (caused by: %w)", rollbackErr, err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// storeOps implements the record operations over any queryer
type storeOps struct {
	q queryer
}

// InsertRecord inserts a new record into a collection. The doc may be any
// JSON-marshalable value; the returned record carries the generated id.
func (s *storeOps) InsertRecord(collection string, doc interface{}) (*Record, error) {
	document, err := toDocument(doc)
	if err != nil {
		return nil, err
	}

	record := &Record{}
	row := s.q.QueryRow(
		`SELECT * FROM insert_record($1, $2)`,
		collection,
		document,
	)

	err = row.Scan(
		&record.ID,
		&record.Collection,
		&record.Doc,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectRecord retrieves a record by id. Returns nil without error if the
// record does not exist.
func (s *storeOps) SelectRecord(id uuid.UUID) (*Record, error) {
	record := &Record{}
	row := s.q.QueryRow(
		`SELECT * FROM select_record($1)`,
		id,
	)

	err := row.Scan(
		&record.ID,
		&record.Collection,
		&record.Doc,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectRecordsByField retrieves all records of a collection whose
// top-level field equals value, compared case-insensitively
func (s *storeOps) SelectRecordsByField(collection string, field string, value string) ([]*Record, error) {
	rows, err := s.q.Query(
		`SELECT * FROM select_records_by_field($1, $2, $3)`,
		collection,
		field,
		value,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SelectRecordsByArrayContains retrieves all records of a collection whose
// top-level array field contains value, compared case-insensitively
func (s *storeOps) SelectRecordsByArrayContains(collection string, field string, value string) ([]*Record, error) {
	rows, err := s.q.Query(
		`SELECT * FROM select_records_by_array_contains($1, $2, $3)`,
		collection,
		field,
		value,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SelectAllRecords retrieves all records of a collection ordered by
// creation time
func (s *storeOps) SelectAllRecords(collection string) ([]*Record, error) {
	rows, err := s.q.Query(
		`SELECT * FROM select_all_records($1)`,
		collection,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// UpdateRecord replaces the document of an existing record
func (s *storeOps) UpdateRecord(id uuid.UUID, doc interface{}) error {
	document, err := toDocument(doc)
	if err != nil {
		return err
	}

	record := &Record{}
	row := s.q.QueryRow(
		`SELECT * FROM update_record($1, $2)`,
		id,
		document,
	)

	err = row.Scan(
		&record.ID,
		&record.Collection,
		&record.Doc,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return helper.NewError("update record", fmt.Errorf("record %v does not exist", id))
	}
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteRecord deletes a record by id
func (s *storeOps) DeleteRecord(id uuid.UUID) error {
	_, err := s.q.Exec(
		`SELECT delete_record($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record := &Record{}
		err := rows.Scan(
			&record.ID,
			&record.Collection,
			&record.Doc,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

func toDocument(doc interface{}) (model.Document, error) {
	switch d := doc.(type) {
	case model.Document:
		return d, nil
	case []byte:
		return model.Document(d), nil
	default:
		return model.NewDocument(doc)
	}
}
