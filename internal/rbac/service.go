package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/audit"
	rbacDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-core/internal/tenancy"
)

type RepositoryAPI interface {
	AssignmentReader
	PermissionsByName(ctx context.Context, names []string) ([]*rbacDatamodel.Permission, error)
	UpsertPermission(ctx context.Context, name, description string) (*rbacDatamodel.Permission, error)
	CreateRole(ctx context.Context, role *rbacDatamodel.Role, permissionIDs []int64) error
	GetRole(ctx context.Context, projectID, roleID int64) (*rbacDatamodel.Role, error)
	GetRoleByName(ctx context.Context, projectID int64, name string) (*rbacDatamodel.Role, error)
	ListRoles(ctx context.Context, projectID int64) ([]*rbacDatamodel.Role, error)
	RolePermissionNames(ctx context.Context, roleIDs []int64) (map[int64][]string, error)
	DeleteRole(ctx context.Context, projectID, roleID int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)
	AssignmentExists(ctx context.Context, userID, roleID, projectID int64) (bool, error)
	Assign(ctx context.Context, a *rbacDatamodel.UserRoleProject) error
	Revoke(ctx context.Context, userID, roleID, projectID int64) (int64, error)
}

// Authorizer gates every project-scoped call: tenancy first, then permissions.
type Authorizer interface {
	Authorize(ctx context.Context, actor internal.Identity, projectID int64, key string) (tenancy.Context, error)
	Resolve(ctx context.Context, projectID int64) (tenancy.Context, error)
}

type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

type ServiceAPI interface {
	CreateRole(ctx context.Context, actor internal.Identity, projectID int64, dto CreateRoleDTO) (*Role, error)
	DeleteRole(ctx context.Context, actor internal.Identity, projectID, roleID int64) error
	ListRoles(ctx context.Context, actor internal.Identity, projectID int64) ([]*Role, error)
	AssignRole(ctx context.Context, actor internal.Identity, projectID, roleID, userID int64) (*Assignment, error)
	RevokeRole(ctx context.Context, actor internal.Identity, projectID, roleID, userID int64) error
	MyPermissions(ctx context.Context, actor internal.Identity, projectID int64) (EffectivePermissions, error)
}

type Service struct {
	repo       RepositoryAPI
	authorizer Authorizer
	engine     *Engine
	audit      AuditAppender
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, authorizer Authorizer, engine *Engine, recorder AuditAppender, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		engine:     engine,
		audit:      recorder,
		logger:     logger,
	}
}

func (s *Service) CreateRole(ctx context.Context, actor internal.Identity, projectID int64, dto CreateRoleDTO) (*Role, error) {
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, PermRoleCreate); err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	name := strings.TrimSpace(dto.Name)
	existing, err := s.repo.GetRoleByName(ctx, projectID, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check role name", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Role name already exists in this project", map[string]any{"name": name})
	}

	keys := dto.normalizedPermissions()
	perms, err := s.repo.PermissionsByName(ctx, keys)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}
	known := make(map[string]int64, len(perms))
	for _, p := range perms {
		known[p.Name] = p.ID
	}
	permissionIDs := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, ok := known[k]
		if !ok {
			return nil, internal.NewValidationError("Unknown permission", map[string]any{"permission": k})
		}
		permissionIDs = append(permissionIDs, id)
	}

	row := ToDataModel(&Role{ProjectID: projectID, Name: name, Description: strings.TrimSpace(dto.Description)}, actor.UserID)
	if err := s.repo.CreateRole(ctx, row, permissionIDs); err != nil {
		s.logger.Error("failed to create role", "project_id", projectID, "name", name, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}
	role := FromDataModel(row, keys)

	if _, err := s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionRoleCreated,
		ResourceType: "role",
		ResourceID:   audit.ID(role.ID),
		Description:  fmt.Sprintf("Role %q created", role.Name),
		Metadata:     map[string]any{"permissions": keys},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("role created", "project_id", projectID, "role_id", role.ID, "actor_id", actor.UserID)
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, actor internal.Identity, projectID, roleID int64) error {
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, PermRoleDelete); err != nil {
		return err
	}

	row, err := s.repo.GetRole(ctx, projectID, roleID)
	if err != nil {
		return internal.NewInternalError("failed to load role", err)
	}
	if row == nil {
		return internal.NewNotFoundError("role", roleID)
	}
	if row.IsProjectAdmin {
		return internal.NewValidationError("The project admin role cannot be deleted", map[string]any{"role_id": roleID})
	}

	if err := s.repo.DeleteRole(ctx, projectID, roleID); err != nil {
		s.logger.Error("failed to delete role", "project_id", projectID, "role_id", roleID, "error", err)
		return internal.NewInternalError("failed to delete role", err)
	}

	_, err = s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionRoleDeleted,
		ResourceType: "role",
		ResourceID:   audit.ID(roleID),
		Description:  fmt.Sprintf("Role %q deleted", row.Name),
	})
	return err
}

func (s *Service) ListRoles(ctx context.Context, actor internal.Identity, projectID int64) ([]*Role, error) {
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, PermRoleView); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListRoles(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	names, err := s.repo.RolePermissionNames(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to list role permissions", err)
	}

	roles := make([]*Role, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, FromDataModel(r, names[r.ID]))
	}
	return roles, nil
}

func (s *Service) AssignRole(ctx context.Context, actor internal.Identity, projectID, roleID, userID int64) (*Assignment, error) {
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, PermRoleAssign); err != nil {
		return nil, err
	}

	role, err := s.repo.GetRole(ctx, projectID, roleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if role == nil {
		return nil, internal.NewNotFoundError("role", roleID)
	}
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !exists {
		return nil, internal.NewNotFoundError("user", userID)
	}

	already, err := s.repo.AssignmentExists(ctx, userID, roleID, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check assignment", err)
	}
	row := &rbacDatamodel.UserRoleProject{UserID: userID, RoleID: roleID, ProjectID: projectID}
	if already {
		return &Assignment{UserID: userID, RoleID: roleID, ProjectID: projectID}, nil
	}
	if actor.UserID != 0 {
		by := actor.UserID
		row.AssignedBy = &by
	}
	if err := s.repo.Assign(ctx, row); err != nil {
		s.logger.Error("failed to assign role", "project_id", projectID, "role_id", roleID, "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to assign role", err)
	}

	if _, err := s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionRoleAssigned,
		ResourceType: "user",
		ResourceID:   audit.ID(userID),
		Description:  fmt.Sprintf("Role %q assigned", role.Name),
		Metadata:     map[string]any{"role_id": roleID},
	}); err != nil {
		return nil, err
	}

	return &Assignment{UserID: userID, RoleID: roleID, ProjectID: projectID, CreatedAt: row.CreatedAt}, nil
}

func (s *Service) RevokeRole(ctx context.Context, actor internal.Identity, projectID, roleID, userID int64) error {
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, PermRoleRevoke); err != nil {
		return err
	}

	removed, err := s.repo.Revoke(ctx, userID, roleID, projectID)
	if err != nil {
		s.logger.Error("failed to revoke role", "project_id", projectID, "role_id", roleID, "user_id", userID, "error", err)
		return internal.NewInternalError("failed to revoke role", err)
	}
	if removed == 0 {
		return internal.NewNotFoundError("role assignment", fmt.Sprintf("%d:%d", roleID, userID))
	}

	_, err = s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionRoleRevoked,
		ResourceType: "user",
		ResourceID:   audit.ID(userID),
		Description:  "Role revoked",
		Metadata:     map[string]any{"role_id": roleID},
	})
	return err
}

// MyPermissions needs no key: any member of an active project may see its own grants.
func (s *Service) MyPermissions(ctx context.Context, actor internal.Identity, projectID int64) (EffectivePermissions, error) {
	tc, err := s.authorizer.Resolve(ctx, projectID)
	if err != nil {
		return EffectivePermissions{}, err
	}
	return s.engine.EffectivePermissions(ctx, actor.UserID, tc)
}

// SeedCatalog makes sure every default key exists.
func (s *Service) SeedCatalog(ctx context.Context) error {
	for _, entry := range DefaultCatalog {
		if _, err := s.repo.UpsertPermission(ctx, entry.Key, entry.Description); err != nil {
			return fmt.Errorf("seed permission %s: %w", entry.Key, err)
		}
	}
	return nil
}
