package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/store"
)

// Day pairs a calendar date with its normalized task list.
type Day struct {
	Date  string       `json:"date"`
	Tasks []model.Task `json:"tasks"`
}

// DayTasks returns the normalized, time-sorted task list for one date.
// A missing day document is an empty list, not an error.
func (r *Repository) DayTasks(ctx context.Context, userID, date string) ([]model.Task, error) {
	raw, err := r.store.GetDay(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading day %s: %w", date, err)
	}

	tasks := normalizeTasks(raw, date, time.Now().UTC())
	SortTasks(tasks)
	return tasks, nil
}

// SaveDayTasks persists a day's task list as a single whole-document
// write, sorted by the time invariant. An empty list deletes the day
// document entirely so no dangling empty days accumulate.
func (r *Repository) SaveDayTasks(ctx context.Context, userID, date string, tasks []model.Task) error {
	if len(tasks) == 0 {
		if err := r.store.DeleteDay(ctx, userID, date); err != nil {
			return fmt.Errorf("removing empty day %s: %w", date, err)
		}
		return nil
	}

	SortTasks(tasks)
	doc, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshaling day %s: %w", date, err)
	}
	if err := r.store.PutDay(ctx, userID, date, doc); err != nil {
		return fmt.Errorf("saving day %s: %w", date, err)
	}
	return nil
}

// AllDays returns every day document of a user, normalized and sorted,
// ordered by date ascending.
func (r *Repository) AllDays(ctx context.Context, userID string) ([]Day, error) {
	docs, err := r.store.ListDays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}

	days := make([]Day, 0, len(docs))
	now := time.Now().UTC()
	for _, doc := range docs {
		tasks := normalizeTasks(doc.Tasks, doc.Date, now)
		SortTasks(tasks)
		days = append(days, Day{Date: doc.Date, Tasks: tasks})
	}
	return days, nil
}

// SortTasks orders tasks by time ascending with tasks lacking a
// parsable time first. The order is stable so equal times keep their
// relative position. This is a storage invariant, not a display
// concern: duplicate detection and summarization assume sorted input.
func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return timeKey(tasks[i].Time) < timeKey(tasks[j].Time)
	})
}

// timeKey maps "HH:MM" to minutes since midnight; unparsable times
// sort before midnight.
func timeKey(clock string) int {
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// HasIncompleteDuplicate reports whether tasks already contains an
// incomplete task with the same description and time. Completed tasks
// do not block re-creation.
func HasIncompleteDuplicate(tasks []model.Task, description, clock string) bool {
	for _, t := range tasks {
		if !t.Completed && t.Description == description && t.Time == clock {
			return true
		}
	}
	return false
}
