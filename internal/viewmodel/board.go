package viewmodel

import (
	"sort"
	"time"

	"abricot/internal/model"
)

// Board is a task list partitioned by status. Other holds statuses the client
// does not know, so every task lands in exactly one bucket.
type Board struct {
	Todo       []model.Task `json:"todo"`
	InProgress []model.Task `json:"inProgress"`
	Done       []model.Task `json:"done"`
	Cancelled  []model.Task `json:"cancelled"`
	Other      []model.Task `json:"other,omitempty"`
}

// BucketByStatus partitions tasks by exact status, keeping input order.
func BucketByStatus(tasks []model.Task) Board {
	b := Board{
		Todo:       []model.Task{},
		InProgress: []model.Task{},
		Done:       []model.Task{},
		Cancelled:  []model.Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusTodo:
			b.Todo = append(b.Todo, t)
		case model.StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case model.StatusDone:
			b.Done = append(b.Done, t)
		case model.StatusCancelled:
			b.Cancelled = append(b.Cancelled, t)
		default:
			b.Other = append(b.Other, t)
		}
	}
	return b
}

// Column returns the bucket of status s.
func (b Board) Column(s model.Status) []model.Task {
	switch s {
	case model.StatusTodo:
		return b.Todo
	case model.StatusInProgress:
		return b.InProgress
	case model.StatusDone:
		return b.Done
	case model.StatusCancelled:
		return b.Cancelled
	}
	return b.Other
}

// Len is the number of tasks on the board.
func (b Board) Len() int {
	return len(b.Todo) + len(b.InProgress) + len(b.Done) + len(b.Cancelled) + len(b.Other)
}

// Summary is the header of the dashboard.
type Summary struct {
	Total      int          `json:"total"`
	Todo       int          `json:"todo"`
	InProgress int          `json:"inProgress"`
	Done       int          `json:"done"`
	Overdue    []model.Task `json:"overdue"`
}

// DashboardSummary counts the assigned tasks per bucket and lists the open
// tasks whose due date is before now, soonest first.
func DashboardSummary(tasks []model.Task, now time.Time) Summary {
	b := BucketByStatus(tasks)
	s := Summary{
		Total:      len(tasks),
		Todo:       len(b.Todo),
		InProgress: len(b.InProgress),
		Done:       len(b.Done),
		Overdue:    []model.Task{},
	}
	for _, t := range tasks {
		if t.Overdue(now) {
			s.Overdue = append(s.Overdue, t)
		}
	}
	sortByDueDate(s.Overdue)
	return s
}

// sortByDueDate orders tasks by due date, undated last.
func sortByDueDate(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}

var statusLabels = map[model.Status]string{
	model.StatusTodo:       "À faire",
	model.StatusInProgress: "En cours",
	model.StatusDone:       "Terminée",
}

// StatusLabel is the display name of s; unknown statuses show verbatim.
func StatusLabel(s model.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
