// ABOUTME: Store is the injected data-store capability used by the sync engine and HTTP layer
// ABOUTME: Wraps *sql.DB with context-aware CRUD for appointments, integrations, and notifications
package db

import (
	"database/sql"
	"errors"
)

var (
	ErrInvalidAppointment  = errors.New("invalid appointment")
	ErrInvalidIntegration  = errors.New("invalid integration")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrUnknownProvider     = errors.New("unknown provider")
)

// Store provides CRUD operations over the calendar tables.
type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore creates a store over an already initialized database.
func NewStore(db *sql.DB, dialect string) *Store {
	if dialect == "" {
		dialect = DialectSQLite
	}
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect the store was opened with.
func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}
