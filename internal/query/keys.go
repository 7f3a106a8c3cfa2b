package query

import (
	"net/url"
	"strings"

	"abricot/internal/model"
)

// Key identifies a cached read: entity kind first, then identifying parameters.
type Key []string

func Projects() Key                       { return Key{"projects"} }
func Project(id model.ID) Key             { return Key{"projects", id.String()} }
func ProjectTasks(projectID model.ID) Key { return Key{"projects", projectID.String(), "tasks"} }
func TaskComments(taskID model.ID) Key    { return Key{"tasks", taskID.String(), "comments"} }
func DashboardStats() Key                 { return Key{"dashboard", "stats"} }
func AssignedTasks() Key                  { return Key{"dashboard", "assigned-tasks"} }
func UserProfile() Key                    { return Key{"user", "profile"} }
func UserSearch(q string) Key             { return Key{"users", "search", q} }

// String is a stable, unambiguous encoding of the key.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = url.QueryEscape(s)
	}
	return strings.Join(parts, ":")
}

// HasPrefix reports whether every segment of prefix matches the start of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.HasPrefix(o)
}
