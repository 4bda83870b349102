package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/dayflow/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite
// database. Every document column holds a whole JSON unit; writes never
// touch a sub-document.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// === Day documents ===

// GetDay retrieves the raw task document for one user and date.
func (s *SQLiteStore) GetDay(ctx context.Context, userID, date string) (json.RawMessage, error) {
	var tasks string
	err := s.db.GetContext(ctx, &tasks,
		"SELECT tasks FROM days WHERE user_id = ? AND date = ?", userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting day %s/%s: %w", userID, date, err)
	}
	return json.RawMessage(tasks), nil
}

// PutDay writes the whole task document for one user and date.
func (s *SQLiteStore) PutDay(ctx context.Context, userID, date string, tasks json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO days (user_id, date, tasks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			tasks = excluded.tasks,
			updated_at = excluded.updated_at`,
		userID, date, string(tasks), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("putting day %s/%s: %w", userID, date, err)
	}
	return nil
}

// DeleteDay removes the task document for one user and date.
func (s *SQLiteStore) DeleteDay(ctx context.Context, userID, date string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM days WHERE user_id = ? AND date = ?", userID, date)
	if err != nil {
		return fmt.Errorf("deleting day %s/%s: %w", userID, date, err)
	}
	return nil
}

// ListDays retrieves all of a user's day documents ordered by date.
func (s *SQLiteStore) ListDays(ctx context.Context, userID string) ([]DayDoc, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT user_id, date, tasks, updated_at FROM days WHERE user_id = ? ORDER BY date",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying days for %s: %w", userID, err)
	}
	defer rows.Close()

	var days []DayDoc
	for rows.Next() {
		var (
			d     DayDoc
			tasks string
		)
		if err := rows.Scan(&d.UserID, &d.Date, &tasks, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning day row: %w", err)
		}
		d.Tasks = json.RawMessage(tasks)
		days = append(days, d)
	}
	return days, rows.Err()
}

// === Project documents ===

func (s *SQLiteStore) GetProject(ctx context.Context, userID, id string) (json.RawMessage, error) {
	return s.getDoc(ctx, "projects", userID, id)
}

func (s *SQLiteStore) PutProject(ctx context.Context, userID, id string, doc json.RawMessage) error {
	return s.putDoc(ctx, "projects", userID, id, doc)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, userID, id string) error {
	return s.deleteDoc(ctx, "projects", userID, id)
}

func (s *SQLiteStore) ListProjects(ctx context.Context, userID string) ([]json.RawMessage, error) {
	return s.listDocs(ctx, "projects", userID)
}

// === Routine template documents ===

func (s *SQLiteStore) GetRoutine(ctx context.Context, userID, id string) (json.RawMessage, error) {
	return s.getDoc(ctx, "routines", userID, id)
}

func (s *SQLiteStore) PutRoutine(ctx context.Context, userID, id string, doc json.RawMessage) error {
	return s.putDoc(ctx, "routines", userID, id, doc)
}

func (s *SQLiteStore) DeleteRoutine(ctx context.Context, userID, id string) error {
	return s.deleteDoc(ctx, "routines", userID, id)
}

func (s *SQLiteStore) ListRoutines(ctx context.Context, userID string) ([]json.RawMessage, error) {
	return s.listDocs(ctx, "routines", userID)
}

// getDoc reads one JSON document from a (user_id, id) keyed table.
// The table name is always one of the fixed identifiers above, never
// caller input.
func (s *SQLiteStore) getDoc(ctx context.Context, table, userID, id string) (json.RawMessage, error) {
	var doc string
	query := fmt.Sprintf("SELECT doc FROM %s WHERE user_id = ? AND id = ?", table)
	err := s.db.GetContext(ctx, &doc, query, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s document %s: %w", table, id, err)
	}
	return json.RawMessage(doc), nil
}

func (s *SQLiteStore) putDoc(ctx context.Context, table, userID, id string, doc json.RawMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, id, doc, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = excluded.updated_at`, table)
	_, err := s.db.ExecContext(ctx, query, userID, id, string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("putting %s document %s: %w", table, id, err)
	}
	return nil
}

func (s *SQLiteStore) deleteDoc(ctx context.Context, table, userID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND id = ?", table)
	if _, err := s.db.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("deleting %s document %s: %w", table, id, err)
	}
	return nil
}

func (s *SQLiteStore) listDocs(ctx context.Context, table, userID string) ([]json.RawMessage, error) {
	query := fmt.Sprintf("SELECT doc FROM %s WHERE user_id = ? ORDER BY id", table)
	rows, err := s.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying %s for %s: %w", table, userID, err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		docs = append(docs, json.RawMessage(doc))
	}
	return docs, rows.Err()
}

// === Confirmation state ===

// GetConfirmation returns the user's confirmation record, or an idle
// state with Version 0 when no record exists.
func (s *SQLiteStore) GetConfirmation(ctx context.Context, userID string) (model.ConfirmationState, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT user_id, awaiting, payload, message, version, updated_at
		FROM confirmations WHERE user_id = ?`, userID)

	var (
		state    model.ConfirmationState
		awaiting int
		payload  string
	)
	err := row.Scan(&state.UserID, &awaiting, &payload, &state.Message,
		&state.Version, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ConfirmationState{UserID: userID}, nil
	}
	if err != nil {
		return model.ConfirmationState{}, fmt.Errorf("getting confirmation for %s: %w", userID, err)
	}

	state.Awaiting = awaiting != 0
	if err := json.Unmarshal([]byte(payload), &state.Payload); err != nil {
		return model.ConfirmationState{}, fmt.Errorf("unmarshaling confirmation payload: %w", err)
	}
	return state, nil
}

// PutConfirmation writes the record under a compare-and-swap on the
// version column and returns the new version.
func (s *SQLiteStore) PutConfirmation(ctx context.Context, state model.ConfirmationState, expectedVersion int64) (int64, error) {
	payload, err := json.Marshal(state.Payload)
	if err != nil {
		return 0, fmt.Errorf("marshaling confirmation payload: %w", err)
	}
	now := time.Now().UTC()

	if expectedVersion == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO confirmations (user_id, awaiting, payload, message, version, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)`,
			state.UserID, boolToInt(state.Awaiting), string(payload), state.Message, now)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, ErrVersionConflict
			}
			return 0, fmt.Errorf("inserting confirmation for %s: %w", state.UserID, err)
		}
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE confirmations
		SET awaiting = ?, payload = ?, message = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`,
		boolToInt(state.Awaiting), string(payload), state.Message, now,
		state.UserID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("updating confirmation for %s: %w", state.UserID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking confirmation update: %w", err)
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

// DeleteConfirmation removes the record under the same CAS rule.
func (s *SQLiteStore) DeleteConfirmation(ctx context.Context, userID string, expectedVersion int64) error {
	if expectedVersion == 0 {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM confirmations WHERE user_id = ? AND version = ?",
		userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("deleting confirmation for %s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking confirmation delete: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// isUniqueViolation reports whether err is a primary-key collision.
// modernc.org/sqlite surfaces SQLITE_CONSTRAINT errors by message text,
// so match on that rather than a driver-specific type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
