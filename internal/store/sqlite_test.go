package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dayflow/internal/model"
)

// setupTestStore creates a store backed by a throwaway database file.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDayRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := json.RawMessage(`[{"id":"t1","description":"Buy milk"}]`)
	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-01", doc))

	got, err := s.GetDay(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))
}

func TestGetDayMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetDay(context.Background(), "u1", "2025-03-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutDayOverwritesWholeDocument(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-01", json.RawMessage(`["a","b"]`)))
	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-01", json.RawMessage(`["c"]`)))

	got, err := s.GetDay(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	assert.JSONEq(t, `["c"]`, string(got))
}

func TestDeleteDay(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-01", json.RawMessage(`[]`)))
	require.NoError(t, s.DeleteDay(ctx, "u1", "2025-03-01"))

	_, err := s.GetDay(ctx, "u1", "2025-03-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDaysOrderedAndScopedToUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-02", json.RawMessage(`[]`)))
	require.NoError(t, s.PutDay(ctx, "u1", "2025-03-01", json.RawMessage(`[]`)))
	require.NoError(t, s.PutDay(ctx, "u2", "2025-01-01", json.RawMessage(`[]`)))

	days, err := s.ListDays(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-01", days[0].Date)
	assert.Equal(t, "2025-03-02", days[1].Date)
}

func TestProjectDocuments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutProject(ctx, "u1", "p1", json.RawMessage(`{"id":"p1","name":"Garden"}`)))

	got, err := s.GetProject(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Contains(t, string(got), "Garden")

	docs, err := s.ListProjects(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.DeleteProject(ctx, "u1", "p1"))
	_, err = s.GetProject(ctx, "u1", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetConfirmationAbsentReturnsIdleVersionZero(t *testing.T) {
	s := setupTestStore(t)

	state, err := s.GetConfirmation(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)
	assert.Equal(t, int64(0), state.Version)
	assert.Equal(t, "u1", state.UserID)
}

func TestPutConfirmationInsertAndUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	state := model.ConfirmationState{
		UserID:   "u1",
		Awaiting: true,
		Payload:  model.ActionPayload{UserID: "u1", ItemType: model.ItemTask, Action: model.ActionCreate},
		Message:  "Should I create that task?",
	}

	v1, err := s.PutConfirmation(ctx, state, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	loaded, err := s.GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, loaded.Awaiting)
	assert.Equal(t, "Should I create that task?", loaded.Message)
	assert.Equal(t, model.ActionCreate, loaded.Payload.Action)

	v2, err := s.PutConfirmation(ctx, state, v1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)
}

func TestPutConfirmationDetectsRace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	state := model.ConfirmationState{UserID: "u1", Awaiting: true}
	_, err := s.PutConfirmation(ctx, state, 0)
	require.NoError(t, err)

	// A second writer that still believes there is no record loses.
	_, err = s.PutConfirmation(ctx, state, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// A stale version loses too.
	_, err = s.PutConfirmation(ctx, state, 99)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestDeleteConfirmationCAS(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Deleting an absent record is a no-op.
	require.NoError(t, s.DeleteConfirmation(ctx, "u1", 0))

	v, err := s.PutConfirmation(ctx, model.ConfirmationState{UserID: "u1", Awaiting: true}, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteConfirmation(ctx, "u1", v+1), ErrVersionConflict)
	require.NoError(t, s.DeleteConfirmation(ctx, "u1", v))

	state, err := s.GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)
	assert.Equal(t, int64(0), state.Version)
}
