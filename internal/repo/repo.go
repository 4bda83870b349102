// Package repo builds normalized domain entities on top of the record
// store. Every read emits entities conforming to the current schema
// even when the stored document predates it; defaulting happens on
// read and is never written back proactively.
package repo

import (
	"github.com/nhle/dayflow/internal/store"
)

// Repository wraps the record store with normalization, defaulting,
// and the task-list sort invariant.
type Repository struct {
	store store.Store
}

// New creates a Repository over the given record store.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// Store exposes the underlying record store for confirmation-state
// access, which needs the store's CAS semantics directly.
func (r *Repository) Store() store.Store {
	return r.store
}
