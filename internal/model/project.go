package model

import "time"

// ProjectStatusCompleted is the status value that stamps CompletedAt.
const ProjectStatusCompleted = "completed"

// MicroTask is a small sub-step tracked inside a project.
type MicroTask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Project is a longer-lived unit of work, independent of calendar date.
type Project struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Status       string      `json:"status"`
	ProgressTags []string    `json:"progress_tags,omitempty"`
	Priority     string      `json:"priority,omitempty"`
	Deadline     *string     `json:"deadline,omitempty"`
	MicroTasks   []MicroTask `json:"micro_tasks,omitempty"`
	Category     string      `json:"category,omitempty"`
	Stakeholders []string    `json:"stakeholders,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// CompletedAt is set when Status becomes ProjectStatusCompleted and
	// cleared again if the status regresses.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// projectUpdateAllowList enumerates the only keys a project update may
// carry. Updates containing any other key are rejected in full.
var projectUpdateAllowList = map[string]bool{
	"name":          true,
	"description":   true,
	"status":        true,
	"progress_tags": true,
	"priority":      true,
	"deadline":      true,
	"micro_tasks":   true,
	"category":      true,
	"stakeholders":  true,
	"notes":         true,
}

// ProjectFieldAllowed reports whether a project update may touch key.
func ProjectFieldAllowed(key string) bool {
	return projectUpdateAllowList[key]
}

// SetStatus updates the project status, stamping CompletedAt on
// completion and clearing it when the status regresses.
func (p *Project) SetStatus(status string, now time.Time) {
	p.Status = status
	if status == ProjectStatusCompleted {
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		return
	}
	p.CompletedAt = nil
}
