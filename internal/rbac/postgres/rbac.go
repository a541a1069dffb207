package postgres

import (
	"context"
	"database/sql"
	"errors"

	rbacDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/user"
	"github.com/frahmantamala/school-core/internal/rbac"
	"gorm.io/gorm"
)

type RBACRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &RBACRepository{db: db}
}

// RoleGrants always hits the database; the engine relies on that for revocation.
func (r *RBACRepository) RoleGrants(ctx context.Context, userID, projectID int64) ([]rbac.RoleGrant, error) {
	query := `SELECT r.id, r.name, r.is_project_admin, p.name
	          FROM user_role_projects urp
	          JOIN roles r ON r.id = urp.role_id AND r.project_id = urp.project_id
	          LEFT JOIN role_permissions rp ON rp.role_id = r.id
	          LEFT JOIN permissions p ON p.id = rp.permission_id
	          WHERE urp.user_id = ? AND urp.project_id = ?
	          ORDER BY r.id`

	rows, err := r.db.WithContext(ctx).Raw(query, userID, projectID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []rbac.RoleGrant
	index := map[int64]int{}
	for rows.Next() {
		var (
			roleID   int64
			roleName string
			isAdmin  bool
			permName sql.NullString
		)
		if err := rows.Scan(&roleID, &roleName, &isAdmin, &permName); err != nil {
			return nil, err
		}
		i, ok := index[roleID]
		if !ok {
			grants = append(grants, rbac.RoleGrant{RoleID: roleID, RoleName: roleName, IsProjectAdmin: isAdmin})
			i = len(grants) - 1
			index[roleID] = i
		}
		if permName.Valid {
			grants[i].Keys = append(grants[i].Keys, permName.String)
		}
	}
	return grants, rows.Err()
}

func (r *RBACRepository) PermissionsByName(ctx context.Context, names []string) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	if len(names) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&perms).Error
	return perms, err
}

func (r *RBACRepository) UpsertPermission(ctx context.Context, name, description string) (*rbacDatamodel.Permission, error) {
	perm := rbacDatamodel.Permission{Name: name, Description: description}
	err := r.db.WithContext(ctx).
		Where(rbacDatamodel.Permission{Name: name}).
		Attrs(rbacDatamodel.Permission{Description: description}).
		FirstOrCreate(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *rbacDatamodel.Role, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		links := make([]rbacDatamodel.RolePermission, len(permissionIDs))
		for i, pid := range permissionIDs {
			links[i] = rbacDatamodel.RolePermission{ProjectID: role.ProjectID, RoleID: role.ID, PermissionID: pid}
		}
		return tx.Create(&links).Error
	})
}

func (r *RBACRepository) GetRole(ctx context.Context, projectID, roleID int64) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", roleID, projectID).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *RBACRepository) GetRoleByName(ctx context.Context, projectID int64, name string) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("project_id = ? AND name = ?", projectID, name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *RBACRepository) ListRoles(ctx context.Context, projectID int64) ([]*rbacDatamodel.Role, error) {
	var roles []*rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *RBACRepository) RolePermissionNames(ctx context.Context, roleIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	type row struct {
		RoleID int64
		Name   string
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.role_id AS role_id, permissions.name AS name").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Order("permissions.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.RoleID] = append(out[rw.RoleID], rw.Name)
	}
	return out, nil
}

func (r *RBACRepository) DeleteRole(ctx context.Context, projectID, roleID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ? AND project_id = ?", roleID, projectID).
			Delete(&rbacDatamodel.UserRoleProject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND project_id = ?", roleID, projectID).Delete(&rbacDatamodel.Role{}).Error
	})
}

func (r *RBACRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *RBACRepository) AssignmentExists(ctx context.Context, userID, roleID, projectID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&rbacDatamodel.UserRoleProject{}).
		Where("user_id = ? AND role_id = ? AND project_id = ?", userID, roleID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *RBACRepository) Assign(ctx context.Context, a *rbacDatamodel.UserRoleProject) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *RBACRepository) Revoke(ctx context.Context, userID, roleID, projectID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND project_id = ?", userID, roleID, projectID).
		Delete(&rbacDatamodel.UserRoleProject{})
	return res.RowsAffected, res.Error
}
