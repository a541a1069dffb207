package rbac

import "time"

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type Role struct {
	ID             int64     `gorm:"primaryKey"`
	ProjectID      int64     `gorm:"column:project_id;not null;uniqueIndex:idx_roles_project_name"`
	Name           string    `gorm:"column:name;not null;uniqueIndex:idx_roles_project_name"`
	Description    string    `gorm:"column:description"`
	IsProjectAdmin bool      `gorm:"column:is_project_admin;default:false"`
	IsRoleAdmin    bool      `gorm:"column:is_role_admin;default:false"`
	CreatedBy      *int64    `gorm:"column:created_by"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	ProjectID    int64     `gorm:"column:project_id;not null;index"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permissions_role_perm"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permissions_role_perm"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type UserRoleProject struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_role_project"`
	RoleID     int64     `gorm:"column:role_id;not null;uniqueIndex:idx_user_role_project"`
	ProjectID  int64     `gorm:"column:project_id;not null;uniqueIndex:idx_user_role_project"`
	AssignedBy *int64    `gorm:"column:assigned_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRoleProject) TableName() string {
	return "user_role_projects"
}
