package repo

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/dayflow/internal/model"
)

// normalizeTasks upgrades a raw day document to the current task
// schema. Legacy documents may contain plain-text entries or partial
// objects; both become full task records with generated ids and
// documented defaults. Entries that are neither are dropped.
func normalizeTasks(raw json.RawMessage, date string, now time.Time) []model.Task {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []model.Task{}
	}

	tasks := make([]model.Task, 0, len(elems))
	for _, elem := range elems {
		// Legacy format: a bare string is the task description.
		var text string
		if err := json.Unmarshal(elem, &text); err == nil {
			tasks = append(tasks, model.Task{
				ID:          uuid.New().String(),
				Description: text,
				Date:        date,
				Time:        model.DefaultTime,
				Status:      model.StatusTodo,
				Origin:      model.OriginUserAdded,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			continue
		}

		var t model.Task
		if err := json.Unmarshal(elem, &t); err != nil {
			continue
		}
		normalizeTask(&t, date, now)
		tasks = append(tasks, t)
	}
	return tasks
}

// normalizeTask fills the documented defaults on a partially-populated
// task record.
func normalizeTask(t *model.Task, date string, now time.Time) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Date == "" {
		t.Date = date
	}
	if t.Time == "" {
		t.Time = model.DefaultTime
	}
	if t.DurationMinutes < 0 {
		t.DurationMinutes = 0
	}
	if t.Origin == "" {
		t.Origin = model.OriginUserAdded
	}
	// Status is the source of truth when valid; otherwise derive it
	// from the completed flag.
	if model.ValidStatus(t.Status) {
		t.Completed = t.Status == model.StatusDone
	} else {
		t.SetCompleted(t.Completed)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}

// normalizeProject fills defaults on a stored project document.
func normalizeProject(p *model.Project, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	for i := range p.MicroTasks {
		if p.MicroTasks[i].ID == "" {
			p.MicroTasks[i].ID = uuid.New().String()
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
}

// normalizeRoutine fills defaults on a stored routine template.
func normalizeRoutine(rt *model.RoutineTemplate, now time.Time) {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	for i := range rt.Schedule {
		if rt.Schedule[i].ID == "" {
			rt.Schedule[i].ID = uuid.New().String()
		}
		if rt.Schedule[i].Time == "" {
			rt.Schedule[i].Time = model.DefaultTime
		}
		if rt.Schedule[i].DurationMinutes < 0 {
			rt.Schedule[i].DurationMinutes = 0
		}
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now
	}
	if rt.UpdatedAt.IsZero() {
		rt.UpdatedAt = now
	}
}
