package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists every valid priority, most pressing first.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID           ID          `json:"id"`
	Title        string      `json:"title"`
	Description  *string     `json:"description"`
	Status       Status      `json:"status"`
	Priority     Priority    `json:"priority"`
	DueDate      *time.Time  `json:"dueDate"`
	ProjectID    ID          `json:"projectId"`
	Project      *ProjectRef `json:"project,omitempty"`
	Assignees    []User      `json:"assignees"`
	CommentCount int         `json:"commentCount"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time  `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts assignees either as users or wrapped as {user: ...},
// reads `_count.comments`, and tolerates date-only or malformed due dates.
func (t *Task) UnmarshalJSON(b []byte) error {
	type alias Task
	aux := struct {
		*alias
		DueDate      json.RawMessage   `json:"dueDate"`
		Assignees    []json.RawMessage `json:"assignees"`
		CommentCount *int              `json:"commentCount"`
		Count        *struct {
			Comments int `json:"comments"`
		} `json:"_count"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	t.DueDate = ParseLooseTime(aux.DueDate)

	t.Assignees = nil
	for _, raw := range aux.Assignees {
		u, err := decodeAssignee(raw)
		if err != nil {
			return err
		}
		t.Assignees = append(t.Assignees, u)
	}

	switch {
	case aux.CommentCount != nil:
		t.CommentCount = *aux.CommentCount
	case aux.Count != nil:
		t.CommentCount = aux.Count.Comments
	default:
		t.CommentCount = 0
	}
	return nil
}

func decodeAssignee(raw json.RawMessage) (User, error) {
	var wrapped struct {
		User *User `json:"user"`
	}
	if bytes.Contains(raw, []byte(`"user"`)) {
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
			return *wrapped.User, nil
		}
	}
	var u User
	err := json.Unmarshal(raw, &u)
	return u, err
}

// AssigneeIDs returns the ids of the assigned users.
func (t Task) AssigneeIDs() []ID {
	ids := make([]ID, 0, len(t.Assignees))
	for _, u := range t.Assignees {
		ids = append(ids, u.ID)
	}
	return ids
}

// Overdue reports whether the task is past its due date and still open.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone || t.Status == StatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}
