package query

import "abricot/internal/model"

// MutationKind names a write against the backend.
type MutationKind string

const (
	CreateProject         MutationKind = "create_project"
	UpdateProject         MutationKind = "update_project"
	DeleteProject         MutationKind = "delete_project"
	AddContributor        MutationKind = "add_contributor"
	RemoveContributor     MutationKind = "remove_contributor"
	UpdateContributorRole MutationKind = "update_contributor_role"
	CreateTask            MutationKind = "create_task"
	UpdateTask            MutationKind = "update_task"
	DeleteTask            MutationKind = "delete_task"
	AddComment            MutationKind = "add_comment"
	UpdateProfile         MutationKind = "update_profile"
	UpdatePassword        MutationKind = "update_password"
	GenerateTasks         MutationKind = "generate_tasks"
)

// Target carries the identifiers a mutation touched.
type Target struct {
	ProjectID model.ID
	TaskID    model.ID
}

// Dependents returns the cached reads a successful mutation of kind makes
// stale. Keys match by prefix, so Project(id) also covers ProjectTasks(id).
func Dependents(kind MutationKind, t Target) []Key {
	switch kind {
	case CreateProject, UpdateProject, DeleteProject:
		keys := []Key{Projects()}
		if !t.ProjectID.Empty() {
			keys = append(keys, Project(t.ProjectID))
		}
		return keys

	case AddContributor, RemoveContributor, UpdateContributorRole:
		// Membership lives on the project entry only.
		return []Key{Project(t.ProjectID)}

	case CreateTask, UpdateTask, DeleteTask:
		return []Key{
			ProjectTasks(t.ProjectID),
			Project(t.ProjectID), // task counts
			AssignedTasks(),
			DashboardStats(),
		}

	case AddComment:
		return []Key{
			TaskComments(t.TaskID),
			ProjectTasks(t.ProjectID), // comment count
			AssignedTasks(),
		}

	case UpdateProfile:
		return []Key{UserProfile()}

	default:
		// UpdatePassword, GenerateTasks: nothing cached depends on them.
		return nil
	}
}
