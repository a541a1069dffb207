package rbac

type CatalogEntry struct {
	Key         string
	Description string
}

// DefaultCatalog is seeded into every installation. Wildcards first, then the
// concrete keys routes ask for.
var DefaultCatalog = []CatalogEntry{
	{"attendance.*", "Full access to attendance"},
	{"exam.*", "Full access to exams"},
	{"task.*", "Full access to tasks"},
	{"role.*", "Manage roles and assignments"},
	{"user.*", "Manage project users"},
	{"audit.view", "View the project audit log"},
	{"project.*", "Manage project settings"},

	{"attendance.upload", "Upload attendance sheets"},
	{"attendance.view", "View attendance uploads"},
	{"exam.upload", "Upload exam results"},
	{"exam.view", "View exam uploads"},
	{"role.create", "Create roles"},
	{"role.delete", "Delete roles"},
	{"role.assign", "Assign roles to users"},
	{"role.revoke", "Revoke roles from users"},
	{"role.view", "View roles"},
	{"user.view", "View project users"},
	{"project.view", "View project details"},
}

const (
	PermAttendanceUpload = "attendance.upload"
	PermAttendanceView   = "attendance.view"
	PermExamUpload       = "exam.upload"
	PermExamView         = "exam.view"
	PermRoleCreate       = "role.create"
	PermRoleDelete       = "role.delete"
	PermRoleAssign       = "role.assign"
	PermRoleRevoke       = "role.revoke"
	PermRoleView         = "role.view"
	PermAuditView        = "audit.view"
	PermProjectView      = "project.view"
)
