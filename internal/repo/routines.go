package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/store"
)

// ErrRoutineNotFound is returned when neither id nor name resolves to
// a routine template.
var ErrRoutineNotFound = errors.New("routine not found")

// Routine returns one normalized routine template by id.
func (r *Repository) Routine(ctx context.Context, userID, id string) (*model.RoutineTemplate, error) {
	raw, err := r.store.GetRoutine(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoutineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading routine %s: %w", id, err)
	}

	var rt model.RoutineTemplate
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("unmarshaling routine %s: %w", id, err)
	}
	normalizeRoutine(&rt, time.Now().UTC())
	return &rt, nil
}

// SaveRoutine persists a routine template document as a whole unit.
func (r *Repository) SaveRoutine(ctx context.Context, userID string, rt model.RoutineTemplate) error {
	doc, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("marshaling routine %s: %w", rt.ID, err)
	}
	if err := r.store.PutRoutine(ctx, userID, rt.ID, doc); err != nil {
		return fmt.Errorf("saving routine %s: %w", rt.ID, err)
	}
	return nil
}

// DeleteRoutine removes a routine template.
func (r *Repository) DeleteRoutine(ctx context.Context, userID, id string) error {
	if err := r.store.DeleteRoutine(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting routine %s: %w", id, err)
	}
	return nil
}

// Routines returns all of a user's routine templates, normalized.
func (r *Repository) Routines(ctx context.Context, userID string) ([]model.RoutineTemplate, error) {
	docs, err := r.store.ListRoutines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing routines: %w", err)
	}

	now := time.Now().UTC()
	routines := make([]model.RoutineTemplate, 0, len(docs))
	for _, raw := range docs {
		var rt model.RoutineTemplate
		if err := json.Unmarshal(raw, &rt); err != nil {
			continue
		}
		normalizeRoutine(&rt, now)
		routines = append(routines, rt)
	}
	return routines, nil
}

// ResolveRoutine finds a routine template by id first, falling back to
// an exact case-insensitive name match.
func (r *Repository) ResolveRoutine(ctx context.Context, userID, idOrName string) (*model.RoutineTemplate, error) {
	if idOrName == "" {
		return nil, ErrRoutineNotFound
	}

	rt, err := r.Routine(ctx, userID, idOrName)
	if err == nil {
		return rt, nil
	}
	if !errors.Is(err, ErrRoutineNotFound) {
		return nil, err
	}

	routines, err := r.Routines(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range routines {
		if strings.EqualFold(routines[i].Name, idOrName) {
			return &routines[i], nil
		}
	}
	return nil, ErrRoutineNotFound
}
