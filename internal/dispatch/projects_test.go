package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dayflow/internal/model"
)

func TestCreateProject(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden","priority":"high","micro_tasks":[{"description":"Buy seeds"}]}`))
	require.Equal(t, model.StatusSuccess, resp.Status)

	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Garden", projects[0].Name)
	assert.Equal(t, "high", projects[0].Priority)
	require.Len(t, projects[0].MicroTasks, 1)
	assert.NotEmpty(t, projects[0].MicroTasks[0].ID)
}

func TestCreateProjectNeedsName(t *testing.T) {
	d, _ := setupDispatchTest(t)

	resp := d.Dispatch(context.Background(), payload(model.ItemProject, model.ActionCreate, "",
		`{"description":"nameless"}`))
	assert.Equal(t, model.StatusError, resp.Status)
}

func TestUpdateProjectPartial(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden","priority":"high"}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)
	id := projects[0].ID

	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, id, `{"notes":"waiting on spring"}`))
	require.Equal(t, model.StatusSuccess, resp.Status)

	p, err := r.Project(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "waiting on spring", p.Notes)
	assert.Equal(t, "high", p.Priority)
}

func TestUpdateProjectRejectsUnknownFieldEntirely(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden"}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)
	id := projects[0].ID

	// One bad key rejects the whole update, even alongside valid keys.
	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, id,
		`{"notes":"should not land","foo":"bar"}`))
	require.Equal(t, model.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "foo")

	p, err := r.Project(ctx, "u1", id)
	require.NoError(t, err)
	assert.Empty(t, p.Notes)
}

func TestUpdateProjectStatusStampsCompletedAt(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden"}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)
	id := projects[0].ID

	require.Equal(t, model.StatusSuccess,
		d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, id, `{"status":"completed"}`)).Status)
	p, err := r.Project(ctx, "u1", id)
	require.NoError(t, err)
	require.NotNil(t, p.CompletedAt)

	// Reopening clears the completion timestamp.
	require.Equal(t, model.StatusSuccess,
		d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, id, `{"status":"active"}`)).Status)
	p, err = r.Project(ctx, "u1", id)
	require.NoError(t, err)
	assert.Nil(t, p.CompletedAt)
}

func TestUpdateProjectClearsNullableFields(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden","deadline":"2025-06-01","progress_tags":["started"]}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)
	id := projects[0].ID

	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, id,
		`{"deadline":null,"progress_tags":[]}`))
	require.Equal(t, model.StatusSuccess, resp.Status)

	p, err := r.Project(ctx, "u1", id)
	require.NoError(t, err)
	assert.Nil(t, p.Deadline)
	assert.Empty(t, p.ProgressTags)
}

func TestUpdateProjectNoChangesAndNotFound(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden"}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)

	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, projects[0].ID, `{}`))
	assert.Equal(t, model.StatusNoChanges, resp.Status)

	resp = d.Dispatch(ctx, payload(model.ItemProject, model.ActionUpdate, "ghost", `{"notes":"x"}`))
	assert.Equal(t, model.StatusNotFound, resp.Status)
}

func TestDeleteProject(t *testing.T) {
	d, r := setupDispatchTest(t)
	ctx := context.Background()

	require.Equal(t, model.StatusSuccess, d.Dispatch(ctx, payload(model.ItemProject, model.ActionCreate, "",
		`{"name":"Garden"}`)).Status)
	projects, err := r.Projects(ctx, "u1")
	require.NoError(t, err)

	resp := d.Dispatch(ctx, payload(model.ItemProject, model.ActionDelete, projects[0].ID, ""))
	require.Equal(t, model.StatusSuccess, resp.Status)

	projects, err = r.Projects(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, projects)

	resp = d.Dispatch(ctx, payload(model.ItemProject, model.ActionDelete, "ghost", ""))
	assert.Equal(t, model.StatusNotFound, resp.Status)
}
