package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dayflow/internal/dispatch"
	"github.com/nhle/dayflow/internal/intent"
	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/repo"
	"github.com/nhle/dayflow/internal/routine"
	"github.com/nhle/dayflow/tests/testutil"
)

// fakeExtractor returns a canned result or error and records requests.
type fakeExtractor struct {
	result   *intent.Result
	err      error
	requests []intent.Request
}

func (f *fakeExtractor) Extract(_ context.Context, req intent.Request) (*intent.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func setupOrchestratorTest(t *testing.T, extractor intent.Extractor) (*Orchestrator, *repo.Repository) {
	t.Helper()
	r := repo.New(testutil.NewTestStore(t))
	engine := routine.NewEngine(r, zerolog.Nop())
	d := dispatch.New(r, engine, zerolog.Nop())
	return New(r, d, extractor, zerolog.Nop()), r
}

func createIntent(description, date string) *intent.Result {
	return &intent.Result{
		Intent:       intent.IntentTask,
		Action:       model.ActionCreate,
		ItemDetails:  []byte(`{"description":"` + description + `","date":"` + date + `","time":"09:00"}`),
		Confirmation: "Should I add \"" + description + "\" on " + date + "?",
	}
}

func TestHandleRequiresUser(t *testing.T) {
	o, _ := setupOrchestratorTest(t, &fakeExtractor{result: intent.None()})

	resp := o.Handle(context.Background(), Message{Text: "hello"})
	assert.Equal(t, model.StatusError, resp.Status)
}

func TestActionableIntentAsksForConfirmation(t *testing.T) {
	fake := &fakeExtractor{result: createIntent("Buy milk", "2099-03-01")}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "add buy milk tomorrow"})
	require.Equal(t, model.StatusAwaitingConfirmation, resp.Status)
	assert.Equal(t, "Should I add \"Buy milk\" on 2099-03-01?", resp.Message)

	// Nothing was written yet, only the pending state.
	tasks, err := r.DayTasks(ctx, "u1", "2099-03-01")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.Awaiting)
	assert.Equal(t, model.ActionCreate, state.Payload.Action)
}

func TestAffirmativeReplyExecutesOnce(t *testing.T) {
	fake := &fakeExtractor{result: createIntent("Buy milk", "2099-03-01")}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	require.Equal(t, model.StatusAwaitingConfirmation,
		o.Handle(ctx, Message{UserID: "u1", Text: "add buy milk"}).Status)

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "yes"})
	require.Equal(t, model.StatusSuccess, resp.Status)
	assert.Contains(t, resp.Message, followUpPrompt)

	tasks, err := r.DayTasks(ctx, "u1", "2099-03-01")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Description)

	// The state is cleared; the reply was consumed, not re-executed.
	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)

	// Extraction ran only for the first message.
	assert.Len(t, fake.requests, 1)
}

func TestNegativeReplyCancels(t *testing.T) {
	fake := &fakeExtractor{result: createIntent("Buy milk", "2099-03-01")}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	require.Equal(t, model.StatusAwaitingConfirmation,
		o.Handle(ctx, Message{UserID: "u1", Text: "add buy milk"}).Status)

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "no"})
	assert.Equal(t, model.StatusInfo, resp.Status)
	assert.Equal(t, "Okay, I won't do that.", resp.Message)

	tasks, err := r.DayTasks(ctx, "u1", "2099-03-01")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)
}

func TestAmbiguousReplyReasksVerbatim(t *testing.T) {
	fake := &fakeExtractor{result: createIntent("Buy milk", "2099-03-01")}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	first := o.Handle(ctx, Message{UserID: "u1", Text: "add buy milk"})
	require.Equal(t, model.StatusAwaitingConfirmation, first.Status)

	second := o.Handle(ctx, Message{UserID: "u1", Text: "hmm what about 3pm instead"})
	assert.Equal(t, model.StatusAwaitingConfirmation, second.Status)
	assert.Equal(t, first.Message, second.Message)

	// State survives, and no extraction ran for the ambiguous reply.
	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.Awaiting)
	assert.Len(t, fake.requests, 1)

	// Still resolvable afterwards.
	resp := o.Handle(ctx, Message{UserID: "u1", Text: "yes"})
	assert.Equal(t, model.StatusSuccess, resp.Status)
}

func TestNonActionableMessageIsOpenConversation(t *testing.T) {
	fake := &fakeExtractor{result: intent.None()}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "thanks!"})
	assert.Equal(t, model.StatusInfo, resp.Status)

	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)
}

func TestExtractorFailureIsTreatedAsNoIntent(t *testing.T) {
	fake := &fakeExtractor{err: errors.New("api down")}
	o, _ := setupOrchestratorTest(t, fake)

	resp := o.Handle(context.Background(), Message{UserID: "u1", Text: "add buy milk"})
	assert.Equal(t, model.StatusInfo, resp.Status)
}

func TestFailedActionIsNotRetriedOnNextTurn(t *testing.T) {
	// A delete of a task that doesn't exist resolves to not_found once,
	// and the cleared state means the next message starts fresh.
	itemID := "ghost"
	date := "2099-03-01"
	fake := &fakeExtractor{result: &intent.Result{
		Intent:       intent.IntentTask,
		Action:       model.ActionDelete,
		ItemID:       itemID,
		ItemDetails:  []byte(`{"date":"2099-03-01"}`),
		Confirmation: "Should I delete that?",
	}}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	require.Equal(t, model.StatusAwaitingConfirmation,
		o.Handle(ctx, Message{UserID: "u1", Text: "delete it"}).Status)

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "yes"})
	assert.Equal(t, model.StatusNotFound, resp.Status)
	assert.Contains(t, resp.Message, date)

	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.Awaiting)

	// A later "yes" with no pending action goes through extraction.
	before := len(fake.requests)
	o.Handle(ctx, Message{UserID: "u1", Text: "yes"})
	assert.Len(t, fake.requests, before+1)
}

func TestBuildPayloadResolvesDateAndTime(t *testing.T) {
	fake := &fakeExtractor{result: &intent.Result{
		Intent:      intent.IntentTask,
		Action:      model.ActionCreate,
		ItemDetails: []byte(`{"description":"Dentist","date":"","time":""}`),
	}}
	o, r := setupOrchestratorTest(t, fake)
	ctx := context.Background()

	resp := o.Handle(ctx, Message{UserID: "u1", Text: "dentist today"})
	require.Equal(t, model.StatusAwaitingConfirmation, resp.Status)
	// No confirmation text from the extractor, so one is synthesized.
	assert.Equal(t, "Should I create that task?", resp.Message)

	state, err := r.Store().GetConfirmation(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, state.Payload.Date)
	assert.NotEmpty(t, *state.Payload.Date)
	// The defaulted time was written back into the details body.
	assert.Contains(t, string(state.Payload.Data), model.DefaultTime)
}
