package datamodel

import (
	"github.com/frahmantamala/school-core/internal/core/datamodel/audit"
	"github.com/frahmantamala/school-core/internal/core/datamodel/project"
	"github.com/frahmantamala/school-core/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-core/internal/core/datamodel/school"
	"github.com/frahmantamala/school-core/internal/core/datamodel/upload"
	"github.com/frahmantamala/school-core/internal/core/datamodel/user"
)

// All lists every table model, in dependency order, for gorm AutoMigrate.
func All() []any {
	return []any{
		&project.Project{},
		&user.User{},
		&rbac.Permission{},
		&rbac.Role{},
		&rbac.RolePermission{},
		&rbac.UserRoleProject{},
		&school.Student{},
		&school.Subject{},
		&school.Exam{},
		&upload.Upload{},
		&upload.RowOutcome{},
		&school.AttendanceRecord{},
		&school.ExamRecord{},
		&audit.AuditLog{},
	}
}
