package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
)

// projectFields mirrors the allow-listed project keys. Pointer fields
// distinguish "absent" from zero for partial updates.
type projectFields struct {
	Name         *string           `json:"name,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Status       *string           `json:"status,omitempty"`
	ProgressTags []string          `json:"progress_tags,omitempty"`
	Priority     *string           `json:"priority,omitempty"`
	Deadline     *string           `json:"deadline,omitempty"`
	MicroTasks   []model.MicroTask `json:"micro_tasks,omitempty"`
	Category     *string           `json:"category,omitempty"`
	Stakeholders []string          `json:"stakeholders,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
}

func (d *Dispatcher) createProject(ctx context.Context, p model.ActionPayload) model.Response {
	var data projectFields
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &data); err != nil {
			return model.ErrorResponse("I couldn't read the project details.")
		}
	}

	name := ""
	if data.Name != nil {
		name = strings.TrimSpace(*data.Name)
	}
	if name == "" {
		return model.ErrorResponse("A project needs a name.")
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:           uuid.New().String(),
		Name:         name,
		ProgressTags: data.ProgressTags,
		Deadline:     data.Deadline,
		MicroTasks:   data.MicroTasks,
		Stakeholders: data.Stakeholders,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if data.Description != nil {
		project.Description = *data.Description
	}
	if data.Priority != nil {
		project.Priority = *data.Priority
	}
	if data.Category != nil {
		project.Category = *data.Category
	}
	if data.Notes != nil {
		project.Notes = *data.Notes
	}
	if data.Status != nil {
		project.SetStatus(*data.Status, now)
	}
	for i := range project.MicroTasks {
		if project.MicroTasks[i].ID == "" {
			project.MicroTasks[i].ID = uuid.New().String()
		}
	}

	if err := d.repo.SaveProject(ctx, p.UserID, project); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("saving created project")
		return model.ErrorResponse("I couldn't save the project.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Created project %q.", name),
		Data:         project,
		HTMLViewData: d.projectView(ctx, p.UserID),
	}
}

// updateProject applies a partial project update. If any key in the
// payload is outside the allow-list the whole call is rejected and no
// field is applied.
func (d *Dispatcher) updateProject(ctx context.Context, p model.ActionPayload) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which project to change.")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(p.Data, &keys); err != nil {
		return model.ErrorResponse("I couldn't read the project details.")
	}
	if len(keys) == 0 {
		return model.Response{
			Status:  model.StatusNoChanges,
			Message: "There was nothing to change on that project.",
		}
	}

	var rejected []string
	for key := range keys {
		if !model.ProjectFieldAllowed(key) {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return model.ErrorResponse(fmt.Sprintf(
			"These fields can't be changed on a project: %s.", strings.Join(rejected, ", ")))
	}

	var data projectFields
	if err := json.Unmarshal(p.Data, &data); err != nil {
		return model.ErrorResponse("I couldn't read the project details.")
	}

	project, err := d.repo.Project(ctx, p.UserID, *p.ItemID)
	if errors.Is(err, repo.ErrProjectNotFound) {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: "I couldn't find that project.",
		}
	}
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("loading project for update")
		return model.ErrorResponse("I couldn't load that project right now.")
	}

	now := time.Now().UTC()
	if data.Name != nil {
		name := strings.TrimSpace(*data.Name)
		if name == "" {
			return model.ErrorResponse("A project name can't be empty.")
		}
		project.Name = name
	}
	if data.Description != nil {
		project.Description = *data.Description
	}
	if data.Status != nil {
		project.SetStatus(*data.Status, now)
	}
	if _, ok := keys["progress_tags"]; ok {
		project.ProgressTags = data.ProgressTags
	}
	if data.Priority != nil {
		project.Priority = *data.Priority
	}
	if _, ok := keys["deadline"]; ok {
		project.Deadline = data.Deadline
	}
	if _, ok := keys["micro_tasks"]; ok {
		for i := range data.MicroTasks {
			if data.MicroTasks[i].ID == "" {
				data.MicroTasks[i].ID = uuid.New().String()
			}
		}
		project.MicroTasks = data.MicroTasks
	}
	if data.Category != nil {
		project.Category = *data.Category
	}
	if _, ok := keys["stakeholders"]; ok {
		project.Stakeholders = data.Stakeholders
	}
	if data.Notes != nil {
		project.Notes = *data.Notes
	}
	project.UpdatedAt = now

	if err := d.repo.SaveProject(ctx, p.UserID, *project); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("saving updated project")
		return model.ErrorResponse("I couldn't save the project.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Updated project %q.", project.Name),
		Data:         *project,
		HTMLViewData: d.projectView(ctx, p.UserID),
	}
}

// deleteProject removes a project entirely.
func (d *Dispatcher) deleteProject(ctx context.Context, p model.ActionPayload) model.Response {
	if p.ItemID == nil || *p.ItemID == "" {
		return model.ErrorResponse("I need to know which project to delete.")
	}

	project, err := d.repo.Project(ctx, p.UserID, *p.ItemID)
	if errors.Is(err, repo.ErrProjectNotFound) {
		return model.Response{
			Status:  model.StatusNotFound,
			Message: "I couldn't find that project.",
		}
	}
	if err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("loading project for delete")
		return model.ErrorResponse("I couldn't load that project right now.")
	}

	if err := d.repo.DeleteProject(ctx, p.UserID, project.ID); err != nil {
		d.log.Error().Err(err).Str("user_id", p.UserID).Msg("deleting project")
		return model.ErrorResponse("I couldn't delete the project.")
	}

	return model.Response{
		Status:       model.StatusSuccess,
		Message:      fmt.Sprintf("Deleted project %q.", project.Name),
		HTMLViewData: d.projectView(ctx, p.UserID),
	}
}
