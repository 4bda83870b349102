package model

import "time"

// ConfirmationState is the per-user singleton tracking a provisional
// action awaiting explicit approval. It is the only cross-request
// mutable state the core owns and is always externally persisted.
type ConfirmationState struct {
	UserID   string        `json:"user_id"`
	Awaiting bool          `json:"awaiting_confirmation"`
	Payload  ActionPayload `json:"confirmation_payload_cache"`
	Message  string        `json:"confirmation_message"`

	// Version is a compare-and-swap token. Two concurrent turns from
	// the same user detect the race instead of silently overwriting
	// each other's pending action.
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
