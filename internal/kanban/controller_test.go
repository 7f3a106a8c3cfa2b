package kanban_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"abricot/internal/kanban"
	"abricot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateCall struct {
	projectID model.ID
	taskID    model.ID
	update    model.TaskUpdate
}

type fakeUpdater struct {
	calls []updateCall
	err   error
}

func (f *fakeUpdater) UpdateTask(_ context.Context, projectID, taskID model.ID, update model.TaskUpdate) (*model.Task, error) {
	f.calls = append(f.calls, updateCall{projectID, taskID, update})
	if f.err != nil {
		return nil, f.err
	}
	return &model.Task{ID: taskID, Status: *update.Status}, nil
}

var board = []model.Task{
	{ID: "42", ProjectID: "p1", Status: model.StatusTodo, Priority: model.PriorityHigh},
	{ID: "43", ProjectID: "p1", Status: model.StatusTodo},
	{ID: "44", Project: &model.ProjectRef{ID: "p2"}, Status: model.StatusInProgress},
}

func drag(id string, from kanban.Column, fromIdx int, to kanban.Column, toIdx int) kanban.DragEvent {
	return kanban.DragEvent{
		TaskID:      model.ID(id),
		Source:      kanban.Location{Column: from, Index: fromIdx},
		Destination: &kanban.Location{Column: to, Index: toIdx},
	}
}

func TestDragToOtherColumnUpdatesStatusOnly(t *testing.T) {
	u := &fakeUpdater{}
	c := kanban.NewController(u, nil)

	out, err := c.HandleDragEnd(context.Background(), board, drag("42", kanban.ColumnTodo, 0, kanban.ColumnDone, 0))
	require.NoError(t, err)
	assert.Equal(t, kanban.OutcomeStatusChanged, out)

	require.Len(t, u.calls, 1)
	assert.Equal(t, model.ID("42"), u.calls[0].taskID)
	assert.Equal(t, model.ID("p1"), u.calls[0].projectID)
	body, err := json.Marshal(u.calls[0].update)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"DONE"}`, string(body))
}

func TestDragWithoutMutation(t *testing.T) {
	tests := []struct {
		name string
		ev   kanban.DragEvent
		want kanban.Outcome
	}{
		{"dropped outside", kanban.DragEvent{TaskID: "42", Source: kanban.Location{Column: kanban.ColumnTodo}}, kanban.OutcomeNoDestination},
		{"same place", drag("42", kanban.ColumnTodo, 0, kanban.ColumnTodo, 0), kanban.OutcomeUnchanged},
		{"reorder in column", drag("42", kanban.ColumnTodo, 0, kanban.ColumnTodo, 1), kanban.OutcomeReordered},
		{"unknown task", drag("99", kanban.ColumnTodo, 0, kanban.ColumnDone, 0), kanban.OutcomeTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &fakeUpdater{}
			out, err := kanban.NewController(u, nil).HandleDragEnd(context.Background(), board, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Empty(t, u.calls)
		})
	}
}

func TestDragToUnknownColumn(t *testing.T) {
	u := &fakeUpdater{}
	_, err := kanban.NewController(u, nil).HandleDragEnd(context.Background(), board,
		drag("42", kanban.ColumnTodo, 0, kanban.Column("CANCELLED"), 0))
	require.ErrorIs(t, err, kanban.ErrUnknownColumn)
	assert.Empty(t, u.calls)
}

func TestDragUsesEmbeddedProject(t *testing.T) {
	u := &fakeUpdater{}
	_, err := kanban.NewController(u, nil).HandleDragEnd(context.Background(), board,
		drag("44", kanban.ColumnInProgress, 0, kanban.ColumnTodo, 2))
	require.NoError(t, err)
	require.Len(t, u.calls, 1)
	assert.Equal(t, model.ID("p2"), u.calls[0].projectID)
}

func TestDragMutationErrorPassesThrough(t *testing.T) {
	denied := errors.New("Accès refusé")
	u := &fakeUpdater{err: denied}
	_, err := kanban.NewController(u, nil).HandleDragEnd(context.Background(), board,
		drag("43", kanban.ColumnTodo, 1, kanban.ColumnInProgress, 0))
	require.ErrorIs(t, err, denied)
}
