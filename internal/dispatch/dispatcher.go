// Package dispatch validates an ActionPayload and performs exactly one
// create/update/delete against the repository, returning a normalized
// result envelope.
package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
	"github.com/nhle/dayflow/internal/routine"
)

// Dispatcher routes action payloads strictly by (item_type, action).
type Dispatcher struct {
	repo     *repo.Repository
	routines *routine.Engine
	log      zerolog.Logger
}

// New creates a Dispatcher.
func New(r *repo.Repository, engine *routine.Engine, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{repo: r, routines: engine, log: log}
}

// Dispatch validates and executes one action payload. Every successful
// mutation re-reads the affected collection into HTMLViewData so the
// caller always sees its own write.
func (d *Dispatcher) Dispatch(ctx context.Context, p model.ActionPayload) model.Response {
	if p.UserID == "" {
		return model.ErrorResponse("user_id is required")
	}

	switch p.ItemType {
	case model.ItemTask:
		switch p.Action {
		case model.ActionCreate:
			return d.createTask(ctx, p)
		case model.ActionUpdate:
			return d.updateTask(ctx, p, false)
		case model.ActionComplete:
			// Complete is an update that forces completed=true, sharing
			// the update path and its not-found semantics.
			return d.updateTask(ctx, p, true)
		case model.ActionDelete:
			return d.deleteTask(ctx, p)
		case model.ActionBulkDelete:
			return d.bulkDeleteTasks(ctx, p)
		}

	case model.ItemProject:
		switch p.Action {
		case model.ActionCreate:
			return d.createProject(ctx, p)
		case model.ActionUpdate:
			return d.updateProject(ctx, p)
		case model.ActionDelete:
			return d.deleteProject(ctx, p)
		}

	case model.ItemRoutine:
		switch p.Action {
		case model.ActionCreate:
			return d.createRoutine(ctx, p)
		case model.ActionUpdate:
			return d.updateRoutine(ctx, p)
		case model.ActionDelete:
			return d.deleteRoutine(ctx, p)
		case model.ActionApplyRoutine:
			return d.applyRoutine(ctx, p)
		}
	}

	return model.ErrorResponse(fmt.Sprintf("unsupported action %q for item type %q", p.Action, p.ItemType))
}

// dayView re-reads one day's task list for the response envelope.
func (d *Dispatcher) dayView(ctx context.Context, userID, date string) interface{} {
	tasks, err := d.repo.DayTasks(ctx, userID, date)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Str("date", date).Msg("refreshing day view")
		return nil
	}
	return map[string]interface{}{"date": date, "tasks": tasks}
}

// projectView re-reads the full project list for the response envelope.
func (d *Dispatcher) projectView(ctx context.Context, userID string) interface{} {
	projects, err := d.repo.Projects(ctx, userID)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("refreshing project view")
		return nil
	}
	return map[string]interface{}{"projects": projects}
}

// routineView re-reads the routine template list.
func (d *Dispatcher) routineView(ctx context.Context, userID string) interface{} {
	routines, err := d.repo.Routines(ctx, userID)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("refreshing routine view")
		return nil
	}
	return map[string]interface{}{"routines": routines}
}
