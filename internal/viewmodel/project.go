package viewmodel

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"abricot/internal/model"
	"abricot/pkg/rbac"
)

// PrioritaireThreshold: a project scoring strictly above it is flagged.
const PrioritaireThreshold = 10

var urgencyWeights = map[model.Priority]int{
	model.PriorityUrgent: 10,
	model.PriorityHigh:   5,
	model.PriorityMedium: 2,
}

// Urgency is a project with its outstanding-task pressure.
type Urgency struct {
	Project     model.Project `json:"project"`
	Score       int           `json:"score"`
	Prioritaire bool          `json:"prioritaire"`
}

// ProjectUrgency sums the weight of every task that is not DONE.
func ProjectUrgency(p model.Project) Urgency {
	score := 0
	for _, t := range p.Tasks {
		if t.Status == model.StatusDone {
			continue
		}
		if w, ok := urgencyWeights[t.Priority]; ok {
			score += w
		} else {
			score++
		}
	}
	return Urgency{Project: p, Score: score, Prioritaire: score > PrioritaireThreshold}
}

// RankProjects orders projects by descending urgency. Ties keep input order.
func RankProjects(projects []model.Project) []Urgency {
	out := make([]Urgency, len(projects))
	for i, p := range projects {
		out[i] = ProjectUrgency(p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Progress is the rounded percentage of completed tasks, 0 for an empty project.
func Progress(p model.Project) int {
	if p.TaskCount <= 0 {
		return 0
	}
	return int(math.Round(float64(p.CompletedTaskCount) * 100 / float64(p.TaskCount)))
}

// CanManage reports whether user may edit the project and its members.
func CanManage(p model.Project, userID model.ID) bool {
	return rbac.HasPermission(p.MemberRole(userID), rbac.PermissionManageMembers)
}

// Can reports whether user holds permission on the project.
func Can(p model.Project, userID model.ID, permission string) bool {
	return rbac.HasPermission(p.MemberRole(userID), permission)
}

// Initials is the avatar text: the first two letters of name, upper-cased.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if n++; n == 2 {
			break
		}
	}
	if n == 0 {
		return "?"
	}
	return b.String()
}

// SplitName splits a stored full name into the account form's first and last
// name fields.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// JoinName is the inverse of SplitName.
func JoinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
