package model

import "time"

// Normalized task status constants.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Origin identifies how a task entered the system.
type Origin string

const (
	OriginUserAdded        Origin = "user_added"
	OriginRoutine          Origin = "routine"
	OriginExternalCalendar Origin = "external_calendar"
)

// DateLayout is the calendar-date format used throughout ("2025-03-01").
const DateLayout = "2006-01-02"

// TimeLayout is the clock-time format used on tasks ("09:30").
const TimeLayout = "15:04"

// DefaultTime is assigned to tasks created without an explicit time.
const DefaultTime = "00:00"

// Task is one scheduled or unscheduled unit of work for a user on a
// given calendar day.
type Task struct {
	// ID is the internal unique identifier for this task.
	ID string `json:"id"`

	// Description is the human-readable text of the task.
	Description string `json:"description"`

	// Date is the calendar day the task belongs to (DateLayout).
	Date string `json:"date"`

	// Time is the scheduled clock time (TimeLayout); DefaultTime when
	// the task is unscheduled.
	Time string `json:"time"`

	// DurationMinutes is the planned duration; zero when unknown.
	DurationMinutes int `json:"duration_minutes"`

	// Completed mirrors Status == StatusDone. Mutate through
	// SetCompleted/SetStatus only, so the two never drift apart.
	Completed bool `json:"completed"`

	// Status is the normalized status (use Status* constants).
	Status string `json:"status"`

	// Origin records whether the task was user-entered, generated from
	// a routine, or imported from an external calendar.
	Origin Origin `json:"origin"`

	// RoutineItemID links back to the routine schedule item that
	// produced this task, when Origin is OriginRoutine.
	RoutineItemID *string `json:"routine_item_id,omitempty"`

	// ExternalEventID links to the calendar event this task mirrors,
	// when Origin is OriginExternalCalendar.
	ExternalEventID *string `json:"external_event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetCompleted sets the completed flag and keeps status in sync:
// completing forces StatusDone, un-completing a done task reopens it.
func (t *Task) SetCompleted(done bool) {
	t.Completed = done
	if done {
		t.Status = StatusDone
	} else if t.Status == StatusDone {
		t.Status = StatusTodo
	}
}

// SetStatus sets the status and derives the completed flag from it.
func (t *Task) SetStatus(status string) {
	t.Status = status
	t.Completed = status == StatusDone
}

// ValidStatus reports whether s is one of the Status* constants.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
