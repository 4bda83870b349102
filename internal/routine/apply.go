// Package routine merges a routine template's schedule into a single
// day's task list under a conflict policy.
package routine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
)

// Engine applies routine templates to calendar days.
type Engine struct {
	repo *repo.Repository
	log  zerolog.Logger
}

// NewEngine creates a routine application engine.
func NewEngine(r *repo.Repository, log zerolog.Logger) *Engine {
	return &Engine{repo: r, log: log}
}

// ApplyResult summarizes what one application changed.
type ApplyResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Apply merges the named routine's schedule into the given date.
// The resulting list is persisted as one whole-document write.
func (e *Engine) Apply(ctx context.Context, userID, date, idOrName string, strategy model.ConflictStrategy) model.Response {
	if strategy == "" {
		strategy = model.StrategyMerge
	}
	if !model.ValidStrategy(strategy) {
		return model.ErrorResponse(fmt.Sprintf("unknown conflict strategy %q", strategy))
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return model.ErrorResponse(fmt.Sprintf("invalid date %q", date))
	}

	rt, err := e.repo.ResolveRoutine(ctx, userID, idOrName)
	if errors.Is(err, repo.ErrRoutineNotFound) {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: fmt.Sprintf("I couldn't find a routine called %q.", idOrName),
		}
	}
	if err != nil {
		e.log.Error().Err(err).Str("user_id", userID).Msg("resolving routine")
		return model.ErrorResponse("I couldn't load that routine right now.")
	}

	if len(rt.Schedule) == 0 {
		return model.InfoResponse(fmt.Sprintf("Routine %q has an empty schedule, nothing to apply.", rt.Name))
	}

	existing, err := e.repo.DayTasks(ctx, userID, date)
	if err != nil {
		e.log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("loading day for routine")
		return model.ErrorResponse("I couldn't load that day right now.")
	}

	now := time.Now().UTC()
	var (
		result ApplyResult
		tasks  []model.Task
	)

	switch strategy {
	case model.StrategyOverwrite:
		tasks = make([]model.Task, 0, len(rt.Schedule))
		for _, item := range rt.Schedule {
			tasks = append(tasks, taskFromItem(item, date, now))
			result.Added++
		}

	case model.StrategyMerge:
		tasks = append(tasks, existing...)
		for _, item := range rt.Schedule {
			if idx := indexByRoutineItem(tasks, item.ID); idx >= 0 {
				// Idempotent re-application: refresh template fields but
				// keep the task's identity and completion state.
				tasks[idx].Description = item.Description
				tasks[idx].Time = normalizedTime(item.Time)
				tasks[idx].DurationMinutes = item.DurationMinutes
				tasks[idx].UpdatedAt = now
				result.Replaced++
				continue
			}
			if collides(tasks, item) {
				// Existing data wins: an incomplete non-external task at
				// the same description+time means the slot is already
				// satisfied, so the schedule item is skipped.
				result.Skipped++
				continue
			}
			tasks = append(tasks, taskFromItem(item, date, now))
			result.Added++
		}
	}

	if err := e.repo.SaveDayTasks(ctx, userID, date, tasks); err != nil {
		e.log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("saving routine application")
		return model.ErrorResponse("I couldn't save the routine to that day.")
	}

	return model.Response{
		Status: model.StatusSuccess,
		Message: fmt.Sprintf("Applied routine %q to %s: %d added, %d replaced, %d skipped.",
			rt.Name, date, result.Added, result.Replaced, result.Skipped),
		Data: result,
	}
}

// taskFromItem builds a new routine-origin task for one schedule item.
func taskFromItem(item model.ScheduleItem, date string, now time.Time) model.Task {
	itemID := item.ID
	return model.Task{
		ID:              uuid.New().String(),
		Description:     item.Description,
		Date:            date,
		Time:            normalizedTime(item.Time),
		DurationMinutes: item.DurationMinutes,
		Status:          model.StatusTodo,
		Origin:          model.OriginRoutine,
		RoutineItemID:   &itemID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func normalizedTime(clock string) string {
	if clock == "" {
		return model.DefaultTime
	}
	return clock
}

// indexByRoutineItem finds the task previously generated from the
// given schedule item, if any.
func indexByRoutineItem(tasks []model.Task, itemID string) int {
	for i := range tasks {
		if tasks[i].RoutineItemID != nil && *tasks[i].RoutineItemID == itemID {
			return i
		}
	}
	return -1
}

// collides reports whether an incomplete, non-external task already
// occupies the schedule item's description+time slot.
func collides(tasks []model.Task, item model.ScheduleItem) bool {
	clock := normalizedTime(item.Time)
	for _, t := range tasks {
		if t.Completed || t.Origin == model.OriginExternalCalendar {
			continue
		}
		if t.Description == item.Description && t.Time == clock {
			return true
		}
	}
	return false
}
