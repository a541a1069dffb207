package rbac

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/rbac"
)

type Role struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsProjectAdmin bool      `json:"is_project_admin"`
	IsRoleAdmin    bool      `json:"is_role_admin"`
	Permissions    []string  `json:"permissions"`
	CreatedAt      time.Time `json:"created_at"`
}

type Assignment struct {
	UserID    int64     `json:"user_id"`
	RoleID    int64     `json:"role_id"`
	ProjectID int64     `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func ToDataModel(r *Role, createdBy int64) *rbacDatamodel.Role {
	row := &rbacDatamodel.Role{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Name:           r.Name,
		Description:    r.Description,
		IsProjectAdmin: r.IsProjectAdmin,
		IsRoleAdmin:    r.IsRoleAdmin,
		CreatedAt:      r.CreatedAt,
	}
	if createdBy != 0 {
		row.CreatedBy = &createdBy
	}
	return row
}

func FromDataModel(r *rbacDatamodel.Role, permissions []string) *Role {
	if permissions == nil {
		permissions = []string{}
	}
	return &Role{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Name:           r.Name,
		Description:    r.Description,
		IsProjectAdmin: r.IsProjectAdmin,
		IsRoleAdmin:    r.IsRoleAdmin,
		Permissions:    permissions,
		CreatedAt:      r.CreatedAt,
	}
}
