package rbac

// Project permissions
const (
	PermissionUpdateProject = "project:update"
	PermissionDeleteProject = "project:delete"
	PermissionManageMembers = "member:manage"

	PermissionCreateTask    = "task:create"
	PermissionUpdateTask    = "task:update"
	PermissionDeleteTask    = "task:delete"
	PermissionCreateComment = "comment:create"
)

// Project roles. The owner is not a member row; it is derived from project.owner.
const (
	RoleOwner       = "OWNER"
	RoleAdmin       = "ADMIN"
	RoleContributor = "CONTRIBUTOR"
)

var contributorPermissions = []string{
	PermissionCreateTask,
	PermissionUpdateTask,
	PermissionDeleteTask,
	PermissionCreateComment,
}

var rolePermissions = map[string][]string{
	RoleContributor: contributorPermissions,
	RoleAdmin: append([]string{
		PermissionUpdateProject,
		PermissionManageMembers,
	}, contributorPermissions...),
	RoleOwner: append([]string{
		PermissionUpdateProject,
		PermissionDeleteProject,
		PermissionManageMembers,
	}, contributorPermissions...),
}

// HasPermission reports whether role grants permission. Unknown roles grant nothing.
func HasPermission(role, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}
