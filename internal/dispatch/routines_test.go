package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dayflow/internal/model"
)

func TestCreateRoutine(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	resp := d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionCreate, "",
		`{"name":"Morning","schedule":[{"time":"07:00","description":"Stretch"},{"description":"Journal"}]}`))
	require.Equal(t, model.StatusSuccess, resp.Status)

	routines, err := r.Routines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	require.Len(t, routines[0].Schedule, 2)
	for _, item := range routines[0].Schedule {
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.Time)
	}

	resp = d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionCreate, "", `{"schedule":[]}`))
	assert.Equal(t, model.StatusError, resp.Status)
}

func TestUpdateRoutineByName(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionCreate, "",
		`{"name":"Morning","schedule":[{"time":"07:00","description":"Stretch"}]}`)).Status)

	// The item id slot also accepts the routine's name.
	resp := d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionUpdate, "morning",
		`{"description":"Weekday mornings"}`))
	require.Equal(t, model.StatusSuccess, resp.Status)

	routines, err := r.Routines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, "Weekday mornings", routines[0].Description)
	// The schedule was not part of the update and is untouched.
	require.Len(t, routines[0].Schedule, 1)

	resp = d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionUpdate, "morning", `{}`))
	assert.Equal(t, model.StatusNoChanges, resp.Status)

	resp = d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionUpdate, "evening", `{"description":"x"}`))
	assert.Equal(t, model.StatusNotFound, resp.Status)
}

func TestDeleteRoutine(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionCreate, "",
		`{"name":"Morning"}`)).Status)

	resp := d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionDelete, "morning", ""))
	require.Equal(t, model.StatusSuccess, resp.Status)

	routines, err := r.Routines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, routines)
}

func TestApplyRoutineAction(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemRoutine, model.ActionCreate, "",
		`{"name":"Morning","schedule":[{"time":"07:00","description":"Stretch"}]}`)).Status)

	p := payload(model.ItemRoutine, model.ActionApplyRoutine, "", `{"name":"Morning"}`)
	p.Date = strPtr("2025-03-01")
	resp := d.Dispatch(ctx, p)
	require.Equal(t, model.StatusSuccess, resp.Status)
	assert.NotNil(t, resp.HTMLViewData)

	tasks, err := r.DayTasks(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.OriginRoutine, tasks[0].Origin)
}

func TestApplyRoutineNeedsTargetAndDate(t *testing.T) {
	d, _ := setupDispatchTest(t)
	ctx := context.Background()

	p := payload(model.ItemRoutine, model.ActionApplyRoutine, "", "")
	p.Date = strPtr("2025-03-01")
	assert.Equal(t, model.StatusError, d.Dispatch(ctx, p).Status)

	p = payload(model.ItemRoutine, model.ActionApplyRoutine, "", `{"name":"Morning"}`)
	assert.Equal(t, model.StatusError, d.Dispatch(ctx, p).Status)
}
