// Package orchestrator is the top-level controller: it persists a
// single pending-confirmation record per user and, on each message,
// either resolves that confirmation, attempts new intent extraction,
// or falls through to open conversation.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/dayflow/internal/dispatch"
	"github.com/nhle/dayflow/internal/intent"
	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
	"github.com/nhle/dayflow/internal/store"
)

// followUpPrompt is appended after a successfully executed action.
const followUpPrompt = " Anything else I can help you with?"

// Message is one inbound chat message with its context.
type Message struct {
	UserID   string
	Text     string
	History  []intent.Turn
	Timezone string // IANA name; UTC when empty or unknown
}

// Orchestrator is the confirmation state machine.
type Orchestrator struct {
	repo       *repo.Repository
	dispatcher *dispatch.Dispatcher
	extractor  intent.Extractor
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an Orchestrator.
func New(r *repo.Repository, d *dispatch.Dispatcher, e intent.Extractor, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		repo:       r,
		dispatcher: d,
		extractor:  e,
		log:        log,
		now:        time.Now,
	}
}

// Handle processes one message: resolve a pending confirmation if one
// exists, otherwise try to extract a new intent. No mutation ever
// happens on the first pass of a request; every action round-trips
// through an explicit confirmation.
func (o *Orchestrator) Handle(ctx context.Context, msg Message) model.Response {
	if msg.UserID == "" {
		return model.ErrorResponse("user_id is required")
	}

	state, err := o.repo.Store().GetConfirmation(ctx, msg.UserID)
	if err != nil {
		o.log.Error().Err(err).Str("user_id", msg.UserID).Msg("loading confirmation state")
		return model.ErrorResponse("Something went wrong, please try again.")
	}

	if state.Awaiting {
		return o.resolveConfirmation(ctx, msg, state)
	}
	return o.extractIntent(ctx, msg, state.Version)
}

// resolveConfirmation classifies the reply against the pending action.
func (o *Orchestrator) resolveConfirmation(ctx context.Context, msg Message, state model.ConfirmationState) model.Response {
	switch classifyReply(msg.Text) {
	case replyAffirmative:
		return o.executeConfirmed(ctx, msg.UserID, state)

	case replyNegative:
		if err := o.clearState(ctx, msg.UserID, state.Version); err != nil {
			return *err
		}
		return model.InfoResponse("Okay, I won't do that.")

	default:
		// Ambiguous replies are never reinterpreted as new commands; a
		// hallucinated intent must not execute the wrong action. The
		// stored question is re-emitted verbatim and state is untouched.
		return model.Response{
			Status:  model.StatusAwaitingConfirmation,
			Message: state.Message,
		}
	}
}

// executeConfirmed clears the pending state and then dispatches the
// cached payload. Clearing happens first so a failing action is never
// retried on the next turn as if still pending.
func (o *Orchestrator) executeConfirmed(ctx context.Context, userID string, state model.ConfirmationState) model.Response {
	if err := o.clearState(ctx, userID, state.Version); err != nil {
		return *err
	}

	resp := o.dispatcher.Dispatch(ctx, state.Payload)
	if resp.Status == model.StatusSuccess {
		resp.Message += followUpPrompt
	}
	return resp
}

// clearState removes the confirmation record under its CAS version.
func (o *Orchestrator) clearState(ctx context.Context, userID string, version int64) *model.Response {
	err := o.repo.Store().DeleteConfirmation(ctx, userID, version)
	if errors.Is(err, store.ErrVersionConflict) {
		resp := model.ErrorResponse("Your previous request is still being processed, please try again.")
		return &resp
	}
	if err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("clearing confirmation state")
		resp := model.ErrorResponse("Something went wrong, please try again.")
		return &resp
	}
	return nil
}

// extractIntent runs the extractor and, when an actionable intent
// comes back, stores a provisional payload and asks for confirmation.
func (o *Orchestrator) extractIntent(ctx context.Context, msg Message, version int64) model.Response {
	loc := time.UTC
	if msg.Timezone != "" {
		if parsed, err := time.LoadLocation(msg.Timezone); err == nil {
			loc = parsed
		}
	}

	routines, err := o.repo.Routines(ctx, msg.UserID)
	if err != nil {
		o.log.Warn().Err(err).Str("user_id", msg.UserID).Msg("loading routines for extraction")
		routines = nil
	}

	result, err := o.extractor.Extract(ctx, intent.Request{
		UserID:   msg.UserID,
		Message:  msg.Text,
		History:  msg.History,
		Routines: routines,
		Now:      o.now(),
		Location: loc,
	})
	if err != nil {
		// An unreliable extractor never crashes the turn; a failure is
		// the same as no intent.
		o.log.Warn().Err(err).Str("user_id", msg.UserID).Msg("intent extraction failed")
		result = intent.None()
	}

	if !result.Actionable() {
		return model.InfoResponse("")
	}

	payload, question, buildErr := o.buildPayload(msg.UserID, result, loc)
	if buildErr != nil {
		return model.ErrorResponse(buildErr.Error())
	}

	state := model.ConfirmationState{
		UserID:   msg.UserID,
		Awaiting: true,
		Payload:  payload,
		Message:  question,
	}
	if _, err := o.repo.Store().PutConfirmation(ctx, state, version); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return model.ErrorResponse("Your previous request is still being processed, please try again.")
		}
		o.log.Error().Err(err).Str("user_id", msg.UserID).Msg("saving confirmation state")
		return model.ErrorResponse("Something went wrong, please try again.")
	}

	return model.Response{
		Status:  model.StatusAwaitingConfirmation,
		Message: question,
	}
}

// buildPayload turns an extraction result into a provisional payload,
// applying the date/time defaulting policy for task and routine
// actions. Nothing the extractor returned is trusted to be validated.
func (o *Orchestrator) buildPayload(userID string, result *intent.Result, loc *time.Location) (model.ActionPayload, string, error) {
	payload := model.ActionPayload{
		UserID:   userID,
		ItemType: model.ItemType(result.Intent),
		Action:   result.Action,
		Data:     result.ItemDetails,
	}
	if result.ItemID != "" {
		itemID := result.ItemID
		payload.ItemID = &itemID
	}

	if payload.ItemType == model.ItemTask || payload.Action == model.ActionApplyRoutine {
		var details struct {
			Date string `json:"date"`
			Time string `json:"time"`
		}
		if len(result.ItemDetails) > 0 {
			// Best effort: unreadable details fail later, at dispatch
			// validation, with a clearer message.
			_ = json.Unmarshal(result.ItemDetails, &details)
		}

		date, err := intent.ResolveDate(details.Date, o.now(), loc)
		if err != nil {
			return model.ActionPayload{}, "", fmt.Errorf("I couldn't make sense of the date %q", details.Date)
		}
		payload.Date = &date

		if payload.ItemType == model.ItemTask && payload.Action == model.ActionCreate {
			clock, err := intent.ResolveTime(details.Time)
			if err != nil {
				return model.ActionPayload{}, "", fmt.Errorf("I couldn't make sense of the time %q", details.Time)
			}
			payload.Data = withResolvedDateTime(result.ItemDetails, date, clock)
		}
	}

	question := result.Confirmation
	if question == "" {
		question = synthesizeQuestion(payload)
	}
	return payload, question, nil
}

// withResolvedDateTime rewrites the date and time keys of a details
// object with their resolved values.
func withResolvedDateTime(details json.RawMessage, date, clock string) json.RawMessage {
	fields := map[string]json.RawMessage{}
	if len(details) > 0 {
		_ = json.Unmarshal(details, &fields)
	}
	dateJSON, _ := json.Marshal(date)
	clockJSON, _ := json.Marshal(clock)
	fields["date"] = dateJSON
	fields["time"] = clockJSON

	out, err := json.Marshal(fields)
	if err != nil {
		return details
	}
	return out
}

// synthesizeQuestion builds a fallback confirmation question when the
// extractor did not provide one.
func synthesizeQuestion(p model.ActionPayload) string {
	verb := map[model.Action]string{
		model.ActionCreate:       "create",
		model.ActionUpdate:       "update",
		model.ActionDelete:       "delete",
		model.ActionComplete:     "complete",
		model.ActionApplyRoutine: "apply",
		model.ActionBulkDelete:   "delete those",
	}[p.Action]
	if verb == "" {
		verb = string(p.Action)
	}

	switch p.Action {
	case model.ActionApplyRoutine:
		if p.Date != nil {
			return fmt.Sprintf("Should I apply that routine to %s?", *p.Date)
		}
		return "Should I apply that routine?"
	case model.ActionBulkDelete:
		return "Should I delete those tasks?"
	default:
		return fmt.Sprintf("Should I %s that %s?", verb, p.ItemType)
	}
}
