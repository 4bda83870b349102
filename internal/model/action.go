package model

import "encoding/json"

// ItemType identifies the kind of entity an action targets.
type ItemType string

const (
	ItemTask    ItemType = "task"
	ItemProject ItemType = "project"
	ItemRoutine ItemType = "routine"
)

// Action identifies the mutation an ActionPayload requests.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionComplete     Action = "complete"
	ActionApplyRoutine Action = "apply_routine"
	ActionBulkDelete   Action = "bulk_delete"
)

// ActionPayload is the canonical unit passed between intent extraction,
// the confirmation state machine, and the dispatcher. Data is decoded
// into the (ItemType, Action)-specific payload shape at the dispatcher
// boundary, never poked at by key elsewhere.
type ActionPayload struct {
	UserID   string          `json:"user_id"`
	ItemType ItemType        `json:"item_type"`
	Action   Action          `json:"action"`
	ItemID   *string         `json:"item_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Date     *string         `json:"date,omitempty"`
}

// TaskData is the decoded data payload for task create/update/complete.
// Pointer fields distinguish "absent" from zero for partial updates.
type TaskData struct {
	Description     *string `json:"description,omitempty"`
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Completed       *bool   `json:"completed,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// TaskRef addresses one task for bulk deletion.
type TaskRef struct {
	TaskID string `json:"task_id"`
	Date   string `json:"date"`
}

// BulkDeleteFilter selects tasks across all of a user's days.
type BulkDeleteFilter struct {
	DescriptionContains string  `json:"description_contains,omitempty"`
	DateBefore          string  `json:"date_before,omitempty"`
	DateRange           *string `json:"date_range,omitempty"` // "start..end", both inclusive
}

// BulkDeleteData is the decoded data payload for task bulk_delete:
// either an explicit list of task refs or a scan filter.
type BulkDeleteData struct {
	Items  []TaskRef         `json:"items,omitempty"`
	Filter *BulkDeleteFilter `json:"filter,omitempty"`
}

// RoutineData is the decoded data payload for routine create/update.
type RoutineData struct {
	Name           *string        `json:"name,omitempty"`
	Description    *string        `json:"description,omitempty"`
	RecurrenceRule *string        `json:"recurrence_rule,omitempty"`
	Schedule       []ScheduleItem `json:"schedule,omitempty"`
}

// RoutineApplyData is the decoded data payload for apply_routine.
type RoutineApplyData struct {
	RoutineID string           `json:"routine_id,omitempty"`
	Name      string           `json:"name,omitempty"`
	Strategy  ConflictStrategy `json:"strategy,omitempty"`
}
