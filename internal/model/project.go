package model

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleContributor Role = "CONTRIBUTOR"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleContributor
}

type Member struct {
	User User `json:"user"`
	Role Role `json:"role"`
}

type Project struct {
	ID                 ID         `json:"id"`
	Name               string     `json:"name"`
	Description        *string    `json:"description"`
	Owner              *User      `json:"owner,omitempty"`
	Members            []Member   `json:"members"`
	TaskCount          int        `json:"taskCount"`
	CompletedTaskCount int        `json:"completedTaskCount"`
	Tasks              []Task     `json:"tasks,omitempty"`
	UserRole           Role       `json:"userRole,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON also reads the backend's `_count` block and derives the
// completed count from embedded tasks when the backend does not send it.
func (p *Project) UnmarshalJSON(b []byte) error {
	type alias Project
	aux := struct {
		*alias
		TaskCount          *int `json:"taskCount"`
		CompletedTaskCount *int `json:"completedTaskCount"`
		Count              *struct {
			Tasks int `json:"tasks"`
		} `json:"_count"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	switch {
	case aux.TaskCount != nil:
		p.TaskCount = *aux.TaskCount
	case aux.Count != nil:
		p.TaskCount = aux.Count.Tasks
	default:
		p.TaskCount = len(p.Tasks)
	}

	if aux.CompletedTaskCount != nil {
		p.CompletedTaskCount = *aux.CompletedTaskCount
	} else {
		p.CompletedTaskCount = 0
		for _, t := range p.Tasks {
			if t.Status == StatusDone {
				p.CompletedTaskCount++
			}
		}
	}
	return nil
}

// MemberRole returns the project role of userID: "OWNER", a member role, or ""
// for strangers.
func (p Project) MemberRole(userID ID) string {
	if p.Owner != nil && p.Owner.ID == userID {
		return "OWNER"
	}
	for _, m := range p.Members {
		if m.User.ID == userID {
			return string(m.Role)
		}
	}
	return ""
}

// IsOwner reports whether userID owns the project.
func (p Project) IsOwner(userID ID) bool {
	return p.Owner != nil && p.Owner.ID == userID
}

// ProjectRef is the short project embedded in tasks.
type ProjectRef struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
