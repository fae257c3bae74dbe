package repository

import "database/sql"

// Store is the MySQL-backed implementation of permit.Store.  Its methods
// are spread across permit_store.go, counter_store.go and
// identity_store.go.  Every method opens its own short-lived statement or
// transaction; no connection is held across calls.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for callers that need to begin their
// own transactions (none of the core paths do today).
func (s *Store) DB() *sql.DB { return s.db }
