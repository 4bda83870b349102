package model

import "time"

// ScheduleItem is one time-boxed entry within a routine template.
type ScheduleItem struct {
	ID              string `json:"id"`
	Time            string `json:"time"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"type,omitempty"`
}

// RoutineTemplate is a reusable named schedule that can be applied to
// any calendar date. Applying a routine is a distinct operation from
// editing the template itself.
type RoutineTemplate struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	RecurrenceRule string         `json:"recurrence_rule,omitempty"`
	Schedule       []ScheduleItem `json:"schedule"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ConflictStrategy governs how a routine's items combine with a day's
// existing tasks.
type ConflictStrategy string

const (
	// StrategyOverwrite discards the day's current tasks and rebuilds
	// the list from the routine schedule alone.
	StrategyOverwrite ConflictStrategy = "overwrite"

	// StrategyMerge keeps existing tasks, replaces previously-applied
	// routine items in place, and skips schedule items that collide
	// with an existing incomplete task at the same description+time.
	StrategyMerge ConflictStrategy = "merge"
)

// ValidStrategy reports whether s is a recognized conflict strategy.
func ValidStrategy(s ConflictStrategy) bool {
	return s == StrategyOverwrite || s == StrategyMerge
}
