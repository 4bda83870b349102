package model

// Closed status vocabulary for response envelopes.
const (
	StatusSuccess              = "success"
	StatusError                = "error"
	StatusDuplicate            = "duplicate"
	StatusNotFound             = "not_found"
	StatusNoChanges            = "no_changes"
	StatusInfo                 = "info"
	StatusAwaitingConfirmation = "awaiting_confirmation"
)

// Response is the envelope returned by the dispatcher and orchestrator.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	// HTMLViewData carries a refreshed snapshot of the affected
	// collection after a successful mutation, so callers can update a
	// view without a second round trip.
	HTMLViewData interface{} `json:"html_view_data,omitempty"`
}

// ErrorResponse builds an error envelope with the given message.
func ErrorResponse(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// InfoResponse builds an info envelope with the given message.
func InfoResponse(message string) Response {
	return Response{Status: StatusInfo, Message: message}
}
