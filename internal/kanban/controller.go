// Package kanban turns drag gestures on the three-column board into task
// status updates.
package kanban

import (
	"context"
	"errors"
	"fmt"

	"abricot/internal/model"
	"abricot/pkg/logger"

	"go.uber.org/zap"
)

// Column is a board column; its id is the status it stands for.
type Column string

const (
	ColumnTodo       Column = Column(model.StatusTodo)
	ColumnInProgress Column = Column(model.StatusInProgress)
	ColumnDone       Column = Column(model.StatusDone)
)

// Columns in display order.
var Columns = []Column{ColumnTodo, ColumnInProgress, ColumnDone}

func (c Column) Valid() bool {
	return c == ColumnTodo || c == ColumnInProgress || c == ColumnDone
}

func (c Column) Status() model.Status { return model.Status(c) }

var ErrUnknownColumn = errors.New("unknown kanban column")

// Location is a slot on the board.
type Location struct {
	Column Column `json:"column"`
	Index  int    `json:"index"`
}

// DragEvent is the end of a drag gesture. Destination is nil when the card
// was dropped outside every column.
type DragEvent struct {
	TaskID      model.ID  `json:"taskId"`
	Source      Location  `json:"source"`
	Destination *Location `json:"destination"`
}

// Outcome is what a drag end resolved to.
type Outcome string

const (
	OutcomeNoDestination Outcome = "no_destination"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeTaskNotFound  Outcome = "task_not_found"
	// OutcomeReordered: moved within its column. Order is not persisted.
	OutcomeReordered     Outcome = "reordered"
	OutcomeStatusChanged Outcome = "status_changed"
)

// TaskUpdater is the update-task mutation.
type TaskUpdater interface {
	UpdateTask(ctx context.Context, projectID, taskID model.ID, update model.TaskUpdate) (*model.Task, error)
}

type Controller struct {
	updater TaskUpdater
	logger  *zap.Logger
}

func NewController(updater TaskUpdater, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{updater: updater, logger: logger}
}

// HandleDragEnd applies ev to tasks, the list currently on the board. At most
// one update is issued and it only carries the new status.
func (c *Controller) HandleDragEnd(ctx context.Context, tasks []model.Task, ev DragEvent) (Outcome, error) {
	dst := ev.Destination
	if dst == nil {
		return OutcomeNoDestination, nil
	}
	if dst.Column == ev.Source.Column && dst.Index == ev.Source.Index {
		return OutcomeUnchanged, nil
	}
	if !dst.Column.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, dst.Column)
	}

	task, ok := find(tasks, ev.TaskID)
	if !ok {
		return OutcomeTaskNotFound, nil
	}
	status := dst.Column.Status()
	if task.Status == status {
		return OutcomeReordered, nil
	}

	projectID := task.ProjectID
	if projectID.Empty() && task.Project != nil {
		projectID = task.Project.ID
	}
	if _, err := c.updater.UpdateTask(ctx, projectID, task.ID, model.StatusUpdate(status)); err != nil {
		return "", err
	}
	logger.WithTrace(ctx, c.logger).Debug("Task moved",
		zap.String("task_id", task.ID.String()),
		zap.String("from", string(task.Status)),
		zap.String("to", string(status)),
	)
	return OutcomeStatusChanged, nil
}

func find(tasks []model.Task, id model.ID) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}
