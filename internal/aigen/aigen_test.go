package aigen_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"abricot/internal/aigen"
	"abricot/internal/model"
	"abricot/pkg/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var members = []model.Member{
	{User: model.User{ID: "u1", Name: strPtr("Alice Martin"), Email: "alice@x.io"}, Role: model.RoleAdmin},
	{User: model.User{ID: "u2", Name: strPtr("Bob Durand"), Email: "bob@x.io"}, Role: model.RoleContributor},
	{User: model.User{ID: "u3", Name: strPtr("Bobby Tables"), Email: "bobby@x.io"}, Role: model.RoleContributor},
}

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestNormalizeDefaultsAndRejections(t *testing.T) {
	drafts, rejections := aigen.Normalize(raws(
		`{"title":"  Campagne Marketing ","description":"Définir les canaux"}`,
		`{"title":"   "}`,
		`"just a string"`,
		`{"title":"Audit","priority":"urgent","status":"in_progress","dueDate":"2025-04-01"}`,
		`{"title":"Visuels","priority":"ASAP","status":"LATER","dueDate":"next week"}`,
	), members)

	require.Len(t, drafts, 3)
	require.Len(t, rejections, 2)
	assert.Equal(t, 1, rejections[0].Index)
	assert.Equal(t, aigen.ReasonMissingTitle, rejections[0].Reason)
	assert.Equal(t, 2, rejections[1].Index)
	assert.Equal(t, aigen.ReasonNotObject, rejections[1].Reason)

	first := drafts[0].Input
	assert.Equal(t, "Campagne Marketing", first.Title)
	assert.Equal(t, "Définir les canaux", *first.Description)
	assert.Equal(t, model.PriorityMedium, first.Priority)
	assert.Equal(t, model.StatusTodo, first.Status)
	assert.Nil(t, first.DueDate)
	assert.Equal(t, []model.ID{}, first.AssigneeIDs)

	audit := drafts[1].Input
	assert.Equal(t, model.PriorityUrgent, audit.Priority)
	assert.Equal(t, model.StatusInProgress, audit.Status)
	require.NotNil(t, audit.DueDate)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *audit.DueDate)

	visuels := drafts[2].Input
	assert.Equal(t, model.PriorityMedium, visuels.Priority)
	assert.Equal(t, model.StatusTodo, visuels.Status)
	assert.Nil(t, visuels.DueDate)
	assert.Equal(t, "", *visuels.Description)

	assert.NotEqual(t, drafts[0].ID, drafts[1].ID)
	for _, d := range drafts {
		assert.NoError(t, d.Input.Validate())
	}
}

func TestNormalizeMatchesAssignees(t *testing.T) {
	drafts, _ := aigen.Normalize(raws(
		`{"title":"A","assignee":"alice martin"}`,
		`{"title":"B","assignees":["BOB@x.io","Bobby","Zoe"]}`,
		`{"title":"C","assigneeNames":["Bob"]}`,
		`{"title":"D","assignees":[{"name":"Alice"}],"assignee":"Alice Martin"}`,
	), members)
	require.Len(t, drafts, 4)

	assert.Equal(t, []model.ID{"u1"}, drafts[0].Input.AssigneeIDs)
	assert.Empty(t, drafts[0].Unmatched)

	assert.Equal(t, []model.ID{"u2", "u3"}, drafts[1].Input.AssigneeIDs)
	assert.Equal(t, []string{"Zoe"}, drafts[1].Unmatched)

	// "Bob" prefixes both Bob Durand and Bobby Tables.
	assert.Equal(t, []model.ID{}, drafts[2].Input.AssigneeIDs)
	assert.Equal(t, []string{"Bob"}, drafts[2].Unmatched)

	assert.Equal(t, []model.ID{"u1"}, drafts[3].Input.AssigneeIDs)
}

type fakeBackend struct {
	raw   []json.RawMessage
	calls int
}

func (f *fakeBackend) GenerateTasks(context.Context, model.ID, string) ([]json.RawMessage, error) {
	f.calls++
	return f.raw, nil
}

type fakeCreator struct {
	inputs []model.TaskInput
	failAt int
}

func (f *fakeCreator) CreateTask(_ context.Context, projectID model.ID, input model.TaskInput) (*model.Task, error) {
	if f.failAt > 0 && len(f.inputs)+1 == f.failAt {
		return nil, errors.New("Projet introuvable")
	}
	f.inputs = append(f.inputs, input)
	return &model.Task{ID: model.ID(input.Title), ProjectID: projectID, Title: input.Title}, nil
}

func TestGenerateRejectsBlankPrompt(t *testing.T) {
	backend := &fakeBackend{}
	g := aigen.NewGenerator(backend, &fakeCreator{}, nil, nil)

	_, err := g.Generate(context.Background(), "p1", "   ", members)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, backend.calls)
}

func TestGenerateAndApply(t *testing.T) {
	backend := &fakeBackend{raw: raws(`{"title":"One"}`, `{"title":""}`, `{"title":"Two","priority":"HIGH"}`)}
	creator := &fakeCreator{}
	g := aigen.NewGenerator(backend, creator, nil, nil)

	p, err := g.Generate(context.Background(), "p1", "plan the launch", members)
	require.NoError(t, err)
	require.Len(t, p.Drafts, 2)
	assert.Len(t, p.Rejections, 1)

	res, err := g.Apply(context.Background(), "p1", p.Drafts)
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	require.Len(t, creator.inputs, 2)
	assert.Equal(t, "One", creator.inputs[0].Title)
	assert.Equal(t, model.PriorityHigh, creator.inputs[1].Priority)
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	drafts, _ := aigen.Normalize(raws(`{"title":"One"}`, `{"title":"Two"}`, `{"title":"Three"}`), nil)
	creator := &fakeCreator{failAt: 2}
	g := aigen.NewGenerator(&fakeBackend{}, creator, nil, nil)

	res, err := g.Apply(context.Background(), "p1", drafts)
	require.EqualError(t, err, "Projet introuvable")
	require.Len(t, res.Created, 1)
	assert.Equal(t, "One", res.Created[0].Title)
	assert.Len(t, creator.inputs, 1)
}

func TestApplyTwiceCreatesOnce(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	drafts, _ := aigen.Normalize(raws(`{"title":"One"}`, `{"title":"Two"}`), nil)
	creator := &fakeCreator{}
	g := aigen.NewGenerator(&fakeBackend{}, creator, util.NewDeduper(rdb, time.Hour), nil)

	first, err := g.Apply(context.Background(), "p1", drafts)
	require.NoError(t, err)
	assert.Len(t, first.Created, 2)

	second, err := g.Apply(context.Background(), "p1", drafts)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.ElementsMatch(t, []string{drafts[0].ID, drafts[1].ID}, second.Skipped)
	assert.Len(t, creator.inputs, 2)
}

func TestApplyFailureReleasesClaim(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	drafts, _ := aigen.Normalize(raws(`{"title":"One"}`), nil)
	dedup := util.NewDeduper(rdb, time.Hour)

	_, err = aigen.NewGenerator(&fakeBackend{}, &fakeCreator{failAt: 1}, dedup, nil).Apply(context.Background(), "p1", drafts)
	require.Error(t, err)

	creator := &fakeCreator{}
	res, err := aigen.NewGenerator(&fakeBackend{}, creator, dedup, nil).Apply(context.Background(), "p1", drafts)
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
}

func TestApplyDraftsWithoutIDAreAlwaysCreated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	drafts := []aigen.Draft{
		{Input: model.TaskInput{Title: "One"}},
		{Input: model.TaskInput{Title: "Two"}},
	}
	creator := &fakeCreator{}
	g := aigen.NewGenerator(&fakeBackend{}, creator, util.NewDeduper(rdb, time.Hour), nil)

	res, err := g.Apply(context.Background(), "p1", drafts)
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Skipped)

	res, err = g.Apply(context.Background(), "p2", drafts[:1])
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	assert.Empty(t, res.Skipped)
	assert.Len(t, creator.inputs, 3)
}

func TestApplySameDraftInTwoProjects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	drafts, _ := aigen.Normalize(raws(`{"title":"One"}`), nil)
	g := aigen.NewGenerator(&fakeBackend{}, &fakeCreator{}, util.NewDeduper(rdb, time.Hour), nil)

	for _, project := range []model.ID{"p1", "p2"} {
		res, err := g.Apply(context.Background(), project, drafts)
		require.NoError(t, err)
		assert.Len(t, res.Created, 1, project.String())
	}
	assert.True(t, mr.Exists("abricot:dedup:ai-apply:p1:"+drafts[0].ID))
}
