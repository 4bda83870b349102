package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
)

// createTask creates one task on one day. Duplicate (description, time)
// pairs among incomplete tasks are a distinct "duplicate" outcome, not
// an error.
func (d *Dispatcher) createTask(ctx context.Context, p model.ActionPayload) model.Response {
	var data model.TaskData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the task details.")
		}
	}

	description := ""
	if data.Description != nil {
		description = strings.TrimSpace(*data.Description)
	}
	if description == "" {
		return model.ErrorResponse("A task needs a description.")
	}

	date := payloadDate(p, data.Date)
	if date == "" {
		return model.ErrorResponse("A task needs a date.")
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return model.ErrorResponse(fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", date))
	}

	clock := model.DefaultTime
	if data.Time != nil && *data.Time != "" {
		if _, err := time.Parse(model.TimeLayout, *data.Time); err != nil {
			return model.ErrorResponse(fmt.Sprintf("Invalid time %q, expected HH:MM.", *data.Time))
		}
		clock = *data.Time
	}

	tasks, err := d.repo.DayTasks(ctx, p.UserID, date)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("loading day for create")
		return model.ErrorResponse("I couldn't load that day right now.")
	}

	if repo.HasIncompleteDuplicate(tasks, description, clock) {
		return model.Response{
			Status:  model.StatusDuplicate,
			Message: fmt.Sprintf("You already have %q at %s on %s.", description, clock, date),
		}
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.New().String(),
		Description: description,
		Date:        date,
		Time:        clock,
		Status:      model.StatusTodo,
		Origin:      model.OriginUserAdded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if data.DurationMinutes != nil && *data.DurationMinutes > 0 {
		task.DurationMinutes = *data.DurationMinutes
	}

	if err := d.repo.SaveDayTasks(ctx, p.UserID, date, append(tasks, task)); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("saving created task")
		return model.ErrorResponse("I couldn't save the task.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Added %q at %s on %s.", description, clock, date),
		Data:         task,
		HTMLViewData: d.dayView(ctx, p.UserID, date),
	}
}

// updateTask applies only the fields present in the payload to one
// task. forceComplete marks the task done regardless of the data body.
func (d *Dispatcher) updateTask(ctx context.Context, p model.ActionPayload, forceComplete bool) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which task to change.")
	}

	var data model.TaskData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the task details.")
		}
	}

	date := payloadDate(p, data.Date)
	if date == "" {
		return model.ErrorResponse("I need to know which day the task is on.")
	}

	tasks, err := d.repo.DayTasks(ctx, p.UserID, date)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("loading day for update")
		return model.ErrorResponse("I couldn't load that day right now.")
	}

	idx := -1
	for i := range tasks {
		if tasks[i].ID == *p.ItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: fmt.Sprintf("I couldn't find that task on %s.", date),
		}
	}

	task := &tasks[idx]
	changed := false

	if data.Description != nil {
		description := strings.TrimSpace(*data.Description)
		if description == "" {
			return model.ErrorResponse("A task description can't be empty.")
		}
		task.Description = description
		changed = true
	}
	if data.Time != nil && *data.Time != "" {
		if _, err := time.Parse(model.TimeLayout, *data.Time); err != nil {
			return model.ErrorResponse(fmt.Sprintf("Invalid time %q, expected HH:MM.", *data.Time))
		}
		task.Time = *data.Time
		changed = true
	}
	if data.DurationMinutes != nil {
		if *data.DurationMinutes < 0 {
			return model.ErrorResponse("Duration can't be negative.")
		}
		task.DurationMinutes = *data.DurationMinutes
		changed = true
	}
	if data.Status != nil {
		if !model.ValidStatus(*data.Status) {
			return model.ErrorResponse(fmt.Sprintf("Unknown status %q.", *data.Status))
		}
		task.SetStatus(*data.Status)
		changed = true
	}
	if data.Completed != nil {
		task.SetCompleted(*data.Completed)
		changed = true
	}
	if forceComplete {
		task.SetCompleted(true)
		changed = true
	}

	if !changed {
		return model.Response{
			Status:  model.StatusNoChanges,
			Message: "There was nothing to change on that task.",
		}
	}

	task.UpdatedAt = time.Now().UTC()
	if err := d.repo.SaveDayTasks(ctx, p.UserID, date, tasks); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("saving updated task")
		return model.ErrorResponse("I couldn't save the change.")
	}

	message := fmt.Sprintf("Updated %q on %s.", task.Description, date)
	if forceComplete {
		message = fmt.Sprintf("Marked %q as done.", task.Description)
	}
	return model.Response{
		Status:       model.StatusSuccess,
		Message:      message,
		Data:         *task,
		HTMLViewData: d.dayView(ctx, p.UserID, date),
	}
}

// deleteTask removes one task from one day. If the day ends up empty
// the day document itself is deleted.
func (d *Dispatcher) deleteTask(ctx context.Context, p model.ActionPayload) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which task to delete.")
	}
	date := payloadDate(p, nil)
	if date == "" {
		return model.ErrorResponse("I need to know which day the task is on.")
	}

	tasks, err := d.repo.DayTasks(ctx, p.UserID, date)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("loading day for delete")
		return model.ErrorResponse("I couldn't load that day right now.")
	}

	remaining := tasks[:0:0]
	removed := ""
	for _, t := range tasks {
		if t.ID == *p.ItemID {
			removed = t.Description
			continue
		}
		remaining = append(remaining, t)
	}
	if removed == "" {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: fmt.Sprintf("I couldn't find that task on %s.", date),
		}
	}

	if err := d.repo.SaveDayTasks(ctx, p.UserID, date, remaining); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Str("date", date).Msg("saving after delete")
		return model.ErrorResponse("I couldn't delete the task.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Deleted %q from %s.", removed, date),
		HTMLViewData: d.dayView(ctx, p.UserID, date),
	}
}

// bulkDeleteResult reports the outcome of a bulk deletion.
type bulkDeleteResult struct {
	Deleted  int      `json:"deleted"`
	Failures []string `json:"failures,omitempty"`
}

// bulkDeleteTasks removes tasks either by an explicit list of
// (task_id, date) pairs or by a filter scanned across all of the
// user's days. Not-found items are recorded as failures and do not
// abort the batch.
func (d *Dispatcher) bulkDeleteTasks(ctx context.Context, p model.ActionPayload) model.Response {
	var data model.BulkDeleteData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the bulk delete request.")
		}
	}

	switch {
	case len(data.Items) > 0:
		return d.bulkDeleteByItems(ctx, p.UserID, data.Items)
	case data.Filter != nil:
		return d.bulkDeleteByFilter(ctx, p.UserID, *data.Filter)
	default:
		return model.ErrorResponse("Bulk delete needs either a list of tasks or a filter.")
	}
}

func (d *Dispatcher) bulkDeleteByItems(ctx context.Context, userID string, items []model.TaskRef) model.Response {
	// Group by date so each day document is rewritten once.
	byDate := map[string][]string{}
	for _, item := range items {
		byDate[item.Date] = append(byDate[item.Date], item.TaskID)
	}

	var result bulkDeleteResult
	for date, ids := range byDate {
		tasks, err := d.repo.DayTasks(ctx, userID, date)
		if err != nil {
			for _, id := range ids {
				result.Failures = append(result.Failures, fmt.Sprintf("%s on %s: load failed", id, date))
			}
			continue
		}

		wanted := map[string]bool{}
		for _, id := range ids {
			wanted[id] = true
		}

		remaining := tasks[:0:0]
		found := map[string]bool{}
		for _, t := range tasks {
			if wanted[t.ID] {
				found[t.ID] = true
				result.Deleted++
				continue
			}
			remaining = append(remaining, t)
		}
		for _, id := range ids {
			if !found[id] {
				result.Failures = append(result.Failures, fmt.Sprintf("%s on %s: not found", id, date))
			}
		}

		if len(found) == 0 {
			continue
		}
		if err := d.repo.SaveDayTasks(ctx, userID, date, remaining); err != nil {
			d.log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("saving bulk delete")
			result.Deleted -= len(found)
			for id := range found {
				result.Failures = append(result.Failures, fmt.Sprintf("%s on %s: save failed", id, date))
			}
		}
	}

	return d.bulkDeleteResponse(ctx, userID, result)
}

func (d *Dispatcher) bulkDeleteByFilter(ctx context.Context, userID string, filter model.BulkDeleteFilter) model.Response {
	if filter.DescriptionContains == "" && filter.DateBefore == "" && filter.DateRange == nil {
		return model.ErrorResponse("The bulk delete filter is empty.")
	}

	var rangeStart, rangeEnd string
	if filter.DateRange != nil {
		parts := strings.SplitN(*filter.DateRange, "..", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return model.ErrorResponse("Invalid date range, expected start..end.")
		}
		rangeStart, rangeEnd = parts[0], parts[1]
	}

	days, err := d.repo.AllDays(ctx, userID)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", userID).Msg("scanning days for bulk delete")
		return model.ErrorResponse("I couldn't scan your tasks right now.")
	}

	needle := strings.ToLower(filter.DescriptionContains)
	var result bulkDeleteResult
	for _, day := range days {
		if filter.DateBefore != "" && day.Date >= filter.DateBefore {
			continue
		}
		if filter.DateRange != nil && (day.Date < rangeStart || day.Date > rangeEnd) {
			continue
		}

		remaining := day.Tasks[:0:0]
		removed := 0
		for _, t := range day.Tasks {
			if needle != "" && !strings.Contains(strings.ToLower(t.Description), needle) {
				remaining = append(remaining, t)
				continue
			}
			removed++
		}
		if removed == 0 {
			continue
		}

		if err := d.repo.SaveDayTasks(ctx, userID, day.Date, remaining); err != nil {
			d.log.Error().Err(err).Str("user_id", userID).Str("date", day.Date).Msg("saving filtered bulk delete")
			result.Failures = append(result.Failures, fmt.Sprintf("%s: save failed", day.Date))
			continue
		}
		result.Deleted += removed
	}

	return d.bulkDeleteResponse(ctx, userID, result)
}

func (d *Dispatcher) bulkDeleteResponse(ctx context.Context, userID string, result bulkDeleteResult) model.Response {
	message := fmt.Sprintf("Deleted %d task(s).", result.Deleted)
	if len(result.Failures) > 0 {
		message = fmt.Sprintf("Deleted %d task(s); %d could not be removed.", result.Deleted, len(result.Failures))
	}

	days, err := d.repo.AllDays(ctx, userID)
	var view interface{}
	if err == nil {
		view = map[string]interface{}{"days": days}
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      message,
		Data:         result,
		HTMLViewData: view,
	}
}

// payloadDate picks the effective date: the data body wins over the
// payload-level date.
func payloadDate(p model.ActionPayload, dataDate *string) string {
	if dataDate != nil && *dataDate != "" {
		return *dataDate
	}
	if p.Date != nil {
		return *p.Date
	}
	return ""
}
