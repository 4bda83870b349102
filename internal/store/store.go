package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nhle/dayflow/internal/model"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrVersionConflict is returned when a compare-and-swap write on the
// confirmation record loses a race with a concurrent turn.
var ErrVersionConflict = errors.New("confirmation version conflict")

// DayDoc is one per-day task document as stored, before normalization.
type DayDoc struct {
	UserID    string          `db:"user_id"`
	Date      string          `db:"date"`
	Tasks     json.RawMessage `db:"tasks"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Store is the record store adapter: typed read/write/delete operations
// against per-user hierarchical JSON documents. Documents are always
// written as whole units; there are no sub-document writes.
type Store interface {
	// === Day documents (one per user per calendar date) ===

	GetDay(ctx context.Context, userID, date string) (json.RawMessage, error)
	PutDay(ctx context.Context, userID, date string, tasks json.RawMessage) error
	DeleteDay(ctx context.Context, userID, date string) error
	ListDays(ctx context.Context, userID string) ([]DayDoc, error)

	// === Project documents ===

	GetProject(ctx context.Context, userID, id string) (json.RawMessage, error)
	PutProject(ctx context.Context, userID, id string, doc json.RawMessage) error
	DeleteProject(ctx context.Context, userID, id string) error
	ListProjects(ctx context.Context, userID string) ([]json.RawMessage, error)

	// === Routine template documents ===

	GetRoutine(ctx context.Context, userID, id string) (json.RawMessage, error)
	PutRoutine(ctx context.Context, userID, id string, doc json.RawMessage) error
	DeleteRoutine(ctx context.Context, userID, id string) error
	ListRoutines(ctx context.Context, userID string) ([]json.RawMessage, error)

	// === Confirmation state (per-user singleton, CAS-guarded) ===

	// GetConfirmation returns the user's confirmation record. When no
	// record exists it returns an idle state with Version 0.
	GetConfirmation(ctx context.Context, userID string) (model.ConfirmationState, error)

	// PutConfirmation writes the record if its stored version still
	// equals expectedVersion (0 means "no record yet") and returns the
	// new version. Returns ErrVersionConflict otherwise.
	PutConfirmation(ctx context.Context, state model.ConfirmationState, expectedVersion int64) (int64, error)

	// DeleteConfirmation removes the record under the same CAS rule.
	// Deleting an absent record is not an error.
	DeleteConfirmation(ctx context.Context, userID string, expectedVersion int64) error

	Close() error
}
