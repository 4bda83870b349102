// Package intent sends a user message to the Claude Messages API and
// parses a constrained JSON action-intent response. The service is
// treated as unreliable: everything it returns is re-validated
// downstream, and anything unparsable collapses to IntentNone. All
// "the model might say anything" handling lives in this package.
package intent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nhle/dayflow/internal/model"
)

// Intent identifies what kind of entity a message is about.
type Intent string

const (
	IntentNone    Intent = "none"
	IntentTask    Intent = "task"
	IntentProject Intent = "project"
	IntentRoutine Intent = "routine"
)

// Turn is one prior exchange in the conversation, newest last.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// maxHistoryTurns bounds how much conversation history is sent along.
const maxHistoryTurns = 5

// Request carries everything the extractor needs for one message.
type Request struct {
	UserID   string
	Message  string
	History  []Turn
	Routines []model.RoutineTemplate
	Now      time.Time
	Location *time.Location
}

// Result is the extractor's typed output. Intent is IntentNone for
// acknowledgement-only replies, open conversation, and anything the
// model returned that could not be decoded.
type Result struct {
	Intent       Intent          `json:"intent_detected"`
	Action       model.Action    `json:"action,omitempty"`
	ItemID       string          `json:"item_id,omitempty"`
	ItemDetails  json.RawMessage `json:"item_details,omitempty"`
	Confirmation string          `json:"confirmation_message,omitempty"`
}

// None is the sentinel result for messages with no actionable intent.
func None() *Result {
	return &Result{Intent: IntentNone}
}

// Actionable reports whether the result should start a confirmation.
func (r *Result) Actionable() bool {
	return r != nil && r.Intent != IntentNone && r.Intent != "" && r.Action != ""
}

// Extractor is the external-collaborator boundary for intent
// extraction.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}
