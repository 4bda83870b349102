package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
)

func (d *Dispatcher) createRoutine(ctx context.Context, p model.ActionPayload) model.Response {
	var data model.RoutineData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the routine details.")
		}
	}

	name := ""
	if data.Name != nil {
		name = strings.TrimSpace(*data.Name)
	}
	if name == "" {
		return model.ErrorResponse("A routine needs a name.")
	}

	now := time.Now().UTC()
	rt := model.RoutineTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Schedule:  data.Schedule,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if data.Description != nil {
		rt.Description = *data.Description
	}
	if data.RecurrenceRule != nil {
		rt.RecurrenceRule = *data.RecurrenceRule
	}
	for i := range rt.Schedule {
		if rt.Schedule[i].ID == "" {
			rt.Schedule[i].ID = uuid.New().String()
		}
		if rt.Schedule[i].Time == "" {
			rt.Schedule[i].Time = model.DefaultTime
		}
	}

	if err := d.repo.SaveRoutine(ctx, p.UserID, rt); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("saving created routine")
		return model.ErrorResponse("I couldn't save the routine.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Created routine %q with %d item(s).", name, len(rt.Schedule)),
		Data:         rt,
		HTMLViewData: d.routineView(ctx, p.UserID),
	}
}

// updateRoutine edits the template itself; applying a routine to a day
// is the distinct apply_routine action.
func (d *Dispatcher) updateRoutine(ctx context.Context, p model.ActionPayload) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which routine to change.")
	}

	var data model.RoutineData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the routine details.")
		}
	}

	rt, err := d.repo.ResolveRoutine(ctx, p.UserID, *p.ItemID)
	if errors.Is(err, repo.ErrRoutineNotFound) {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: "I couldn't find that routine.",
		}
	}
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("loading routine for update")
		return model.ErrorResponse("I couldn't load that routine right now.")
	}

	changed := false
	if data.Name != nil {
		name := strings.TrimSpace(*data.Name)
		if name == "" {
			return model.ErrorResponse("A routine name can't be empty.")
		}
		rt.Name = name
		changed = true
	}
	if data.Description != nil {
		rt.Description = *data.Description
		changed = true
	}
	if data.RecurrenceRule != nil {
		rt.RecurrenceRule = *data.RecurrenceRule
		changed = true
	}
	if data.Schedule != nil {
		for i := range data.Schedule {
			if data.Schedule[i].ID == "" {
				data.Schedule[i].ID = uuid.New().String()
			}
			if data.Schedule[i].Time == "" {
				data.Schedule[i].Time = model.DefaultTime
			}
		}
		rt.Schedule = data.Schedule
		changed = true
	}

	if !changed {
		return model.Response{
			Status:  model.StatusNoChanges,
			Message: "There was nothing to change on that routine.",
		}
	}

	rt.UpdatedAt = time.Now().UTC()
	if err := d.repo.SaveRoutine(ctx, p.UserID, *rt); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("saving updated routine")
		return model.ErrorResponse("I couldn't save the routine.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Updated routine %q.", rt.Name),
		Data:         *rt,
		HTMLViewData: d.routineView(ctx, p.UserID),
	}
}

func (d *Dispatcher) deleteRoutine(ctx context.Context, p model.ActionPayload) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which routine to delete.")
	}

	rt, err := d.repo.ResolveRoutine(ctx, p.UserID, *p.ItemID)
	if errors.Is(err, repo.ErrRoutineNotFound) {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: "I couldn't find that routine.",
		}
	}
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("loading routine for delete")
		return model.ErrorResponse("I couldn't load that routine right now.")
	}

	if err := d.repo.DeleteRoutine(ctx, p.UserID, rt.ID); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("deleting routine")
		return model.ErrorResponse("I couldn't delete the routine.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Deleted routine %q.", rt.Name),
		HTMLViewData: d.routineView(ctx, p.UserID),
	}
}

// applyRoutine merges a routine template into one day via the routine
// engine and refreshes the day view on success.
func (d *Dispatcher) applyRoutine(ctx context.Context, p model.ActionPayload) model.Response {
	var data model.RoutineApplyData
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the routine request.")
		}
	}

	idOrName := data.RoutineID
	if idOrName == "" {
		idOrName = data.Name
	}
	if idOrName == "" && p.ItemID != nil {
		idOrName = *p.ItemID
	}
	if idOrName == "" {
		return model.ErrorResponse("I need to know which routine to apply.")
	}

	date := payloadDate(p, nil)
	if date == "" {
		return model.ErrorResponse("I need to know which day to apply the routine to.")
	}

	resp := d.routines.Apply(ctx, p.UserID, date, idOrName, data.Strategy)
	if resp.Status == model.StatusSuccess {
		resp.HTMLViewData = d.dayView(ctx, p.UserID, date)
	}
	return resp
}
