// Package storage implements SQLite persistence for leads, questions,
// the knowledge base, and the manager roster.
package storage

import (
	"github.com/jmoiron/sqlx"
)

// Store bundles all repositories over a single database handle.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}
