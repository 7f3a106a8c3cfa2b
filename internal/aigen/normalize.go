// Package aigen validates AI generated task candidates and turns the ones the
// user keeps into real tasks.
package aigen

import (
	"bytes"
	"encoding/json"
	"strings"

	"abricot/internal/model"

	"github.com/google/uuid"
)

// Draft is a candidate that passed validation, ready for review.
type Draft struct {
	// ID is local to the review session; it never reaches the backend.
	ID    string          `json:"id"`
	Input model.TaskInput `json:"input"`
	// Unmatched lists assignee names no project member answered to.
	Unmatched []string `json:"unmatched,omitempty"`
}

// Rejection is a candidate that could not be used.
type Rejection struct {
	Index  int             `json:"index"`
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"raw"`
}

// Rejection reasons.
const (
	ReasonNotObject    = "not an object"
	ReasonMissingTitle = "missing title"
)

type candidate struct {
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	Priority      string          `json:"priority"`
	Status        string          `json:"status"`
	DueDate       json.RawMessage `json:"dueDate"`
	Assignee      json.RawMessage `json:"assignee"`
	Assignees     json.RawMessage `json:"assignees"`
	AssigneeNames json.RawMessage `json:"assigneeNames"`
}

// Normalize validates each raw candidate. Missing or unknown fields are
// defaulted; only a blank title or a non-object rejects a candidate.
// Assignee names are resolved against members and never invented.
func Normalize(raw []json.RawMessage, members []model.Member) ([]Draft, []Rejection) {
	drafts := []Draft{}
	rejections := []Rejection{}

	for i, r := range raw {
		trimmed := bytes.TrimSpace(r)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			rejections = append(rejections, Rejection{Index: i, Reason: ReasonNotObject, Raw: r})
			continue
		}
		var c candidate
		if err := json.Unmarshal(trimmed, &c); err != nil {
			rejections = append(rejections, Rejection{Index: i, Reason: ReasonNotObject, Raw: r})
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			rejections = append(rejections, Rejection{Index: i, Reason: ReasonMissingTitle, Raw: r})
			continue
		}

		description := ""
		if c.Description != nil {
			description = strings.TrimSpace(*c.Description)
		}
		input := model.TaskInput{
			Title:       title,
			Description: &description,
			Status:      model.Status(strings.ToUpper(strings.TrimSpace(c.Status))),
			Priority:    model.Priority(strings.ToUpper(strings.TrimSpace(c.Priority))),
			DueDate:     model.ParseLooseTime(c.DueDate),
		}
		if !input.Status.Valid() {
			input.Status = model.StatusTodo
		}
		if !input.Priority.Valid() {
			input.Priority = model.PriorityMedium
		}

		names := append(append(stringList(c.Assignee), stringList(c.Assignees)...), stringList(c.AssigneeNames)...)
		ids, unmatched := matchAssignees(names, members)
		input.AssigneeIDs = ids

		drafts = append(drafts, Draft{
			ID:        uuid.NewString(),
			Input:     input,
			Unmatched: unmatched,
		})
	}
	return drafts, rejections
}

// stringList reads a string or an array of strings; anything else is empty.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one = strings.TrimSpace(one); one != "" {
			return []string{one}
		}
		return nil
	}
	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	var out []string
	for _, m := range many {
		out = append(out, stringList(m)...)
	}
	return out
}

// matchAssignees resolves names case-insensitively: exact name first, then
// exact email, then a prefix of exactly one member's name.
func matchAssignees(names []string, members []model.Member) ([]model.ID, []string) {
	ids := []model.ID{}
	var unmatched []string
	seen := map[model.ID]bool{}

	for _, name := range names {
		u, ok := matchOne(name, members)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		if !seen[u.ID] {
			seen[u.ID] = true
			ids = append(ids, u.ID)
		}
	}
	return ids, unmatched
}

func matchOne(name string, members []model.Member) (model.User, bool) {
	want := strings.ToLower(name)
	for _, m := range members {
		if m.User.Name != nil && strings.ToLower(strings.TrimSpace(*m.User.Name)) == want {
			return m.User, true
		}
	}
	for _, m := range members {
		if strings.ToLower(m.User.Email) == want {
			return m.User, true
		}
	}
	var found []model.User
	for _, m := range members {
		if m.User.Name != nil && strings.HasPrefix(strings.ToLower(*m.User.Name), want) {
			found = append(found, m.User)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return model.User{}, false
}
