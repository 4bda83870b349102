package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/store"
)

// ErrProjectNotFound is returned when a project id resolves to nothing.
var ErrProjectNotFound = errors.New("project not found")

// Project returns one normalized project by id.
func (r *Repository) Project(ctx context.Context, userID, id string) (*model.Project, error) {
	raw, err := r.store.GetProject(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", id, err)
	}

	var p model.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling project %s: %w", id, err)
	}
	normalizeProject(&p, time.Now().UTC())
	return &p, nil
}

// SaveProject persists a project document as a whole unit.
func (r *Repository) SaveProject(ctx context.Context, userID string, p model.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project %s: %w", p.ID, err)
	}
	if err := r.store.PutProject(ctx, userID, p.ID, doc); err != nil {
		return fmt.Errorf("saving project %s: %w", p.ID, err)
	}
	return nil
}

// DeleteProject removes a project document entirely; there is no soft
// delete.
func (r *Repository) DeleteProject(ctx context.Context, userID, id string) error {
	if err := r.store.DeleteProject(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}

// Projects returns all of a user's projects, normalized.
func (r *Repository) Projects(ctx context.Context, userID string) ([]model.Project, error) {
	docs, err := r.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	now := time.Now().UTC()
	projects := make([]model.Project, 0, len(docs))
	for _, raw := range docs {
		var p model.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		normalizeProject(&p, now)
		projects = append(projects, p)
	}
	return projects, nil
}
