package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p LoginPayload) Validate() error {
	v := newValidation()
	v.require("email", p.Email)
	v.require("password", p.Password)
	return v.err()
}

type RegisterPayload struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	// ConfirmPassword is checked locally and never sent.
	ConfirmPassword string `json:"-"`
}

func (p RegisterPayload) Validate() error {
	v := newValidation()
	v.require("email", p.Email)
	v.require("password", p.Password)
	v.require("confirmPassword", p.ConfirmPassword)
	if p.ConfirmPassword != "" && p.ConfirmPassword != p.Password {
		v.fail("confirmPassword", MsgPasswordMismatch)
	}
	return v.err()
}

type ProjectInput struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	Contributors []string `json:"contributors,omitempty"`
}

func (p ProjectInput) Validate() error {
	v := newValidation()
	v.requireMsg("name", p.Name, MsgTitleRequired)
	return v.err()
}

type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p ProjectUpdate) Validate() error {
	v := newValidation()
	if p.Name != nil {
		v.requireMsg("name", *p.Name, MsgTitleRequired)
	}
	return v.err()
}

type ContributorInput struct {
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

func (c ContributorInput) Validate() error {
	v := newValidation()
	v.require("email", c.Email)
	if c.Role != "" && !c.Role.Valid() {
		v.fail("role", MsgInvalidValue)
	}
	return v.err()
}

type RoleUpdate struct {
	Role Role `json:"role"`
}

func (r RoleUpdate) Validate() error {
	v := newValidation()
	if !r.Role.Valid() {
		v.fail("role", MsgInvalidValue)
	}
	return v.err()
}

type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeIDs []ID       `json:"assigneeIds"`
}

// UnmarshalJSON accepts dueDate as a timestamp or a bare date, which is what
// a date input submits.
func (t *TaskInput) UnmarshalJSON(b []byte) error {
	type plain TaskInput
	aux := struct {
		*plain
		DueDate json.RawMessage `json:"dueDate"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	due, err := decodeDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	t.DueDate = due
	return nil
}

func (t TaskInput) Validate() error {
	v := newValidation()
	v.requireMsg("title", t.Title, MsgTitleRequired)
	if t.Status != "" && !t.Status.Valid() {
		v.fail("status", MsgInvalidValue)
	}
	if t.Priority != "" && !t.Priority.Valid() {
		v.fail("priority", MsgInvalidValue)
	}
	return v.err()
}

// WithDefaults fills the status and priority the create form preselects.
func (t TaskInput) WithDefaults() TaskInput {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []ID{}
	}
	return t
}

// TaskUpdate only serialises the fields that are set.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeIDs *[]ID      `json:"assigneeIds,omitempty"`
}

func (t *TaskUpdate) UnmarshalJSON(b []byte) error {
	type plain TaskUpdate
	aux := struct {
		*plain
		DueDate json.RawMessage `json:"dueDate"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	due, err := decodeDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	t.DueDate = due
	return nil
}

// decodeDueDate reads an optional dueDate. null and "" mean unset.
func decodeDueDate(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	if s == "" {
		return nil, nil
	}
	t, ok := ParseTime(s)
	if !ok {
		return nil, fmt.Errorf("dueDate: unrecognised date %q", s)
	}
	return &t, nil
}

func (t TaskUpdate) Validate() error {
	v := newValidation()
	if t.Title != nil {
		v.requireMsg("title", *t.Title, MsgTitleRequired)
	}
	if t.Status != nil && !t.Status.Valid() {
		v.fail("status", MsgInvalidValue)
	}
	if t.Priority != nil && !t.Priority.Valid() {
		v.fail("priority", MsgInvalidValue)
	}
	return v.err()
}

// StatusUpdate is the update issued by a kanban move.
func StatusUpdate(s Status) TaskUpdate {
	return TaskUpdate{Status: &s}
}

type CommentInput struct {
	Content string `json:"content"`
}

func (c CommentInput) Validate() error {
	v := newValidation()
	v.require("content", c.Content)
	return v.err()
}

type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (p ProfileUpdate) Validate() error {
	v := newValidation()
	if p.Email != nil {
		v.require("email", *p.Email)
	}
	return v.err()
}

type PasswordUpdate struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	// ConfirmPassword is checked locally and never sent.
	ConfirmPassword string `json:"-"`
}

func (p PasswordUpdate) Validate() error {
	v := newValidation()
	v.require("currentPassword", p.CurrentPassword)
	v.require("newPassword", p.NewPassword)
	if p.ConfirmPassword != p.NewPassword {
		v.fail("confirmPassword", MsgPasswordMismatch)
	}
	return v.err()
}

type GenerateTasksInput struct {
	Prompt string `json:"prompt"`
}

func (g GenerateTasksInput) Validate() error {
	v := newValidation()
	v.require("prompt", strings.TrimSpace(g.Prompt))
	return v.err()
}
