package tenancy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/audit"
	"github.com/frahmantamala/school-core/internal/core/common/validation"
	"github.com/frahmantamala/school-core/internal/core/events"
)

type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

// AccessChecker is satisfied by the access guard. It is injected here because
// the guard itself depends on this package.
type AccessChecker interface {
	Check(ctx context.Context, actor internal.Identity, projectID int64, key string) error
}

const (
	// permProjectView matches the catalog key in rbac.
	permProjectView   = "project.view"
	permPlatformAdmin = "platform.admin"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Identity, dto CreateProjectDTO) (*Project, error)
	SetStatus(ctx context.Context, actor internal.Identity, projectID int64, status Status) (*Project, error)
	Get(ctx context.Context, actor internal.Identity, projectID int64) (*Project, error)
	List(ctx context.Context, actor internal.Identity) ([]*Project, error)
}

// Service is platform administration. Only Get is open to project members.
type Service struct {
	repo    RepositoryAPI
	audit   AuditAppender
	checker AccessChecker
	events  events.Publisher
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, recorder AuditAppender, checker AccessChecker, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: recorder, checker: checker, events: publisher, logger: logger}
}

func requirePlatformAdmin(actor internal.Identity) error {
	if !actor.IsPlatformAdmin {
		return internal.NewPermissionDeniedError(permPlatformAdmin)
	}
	return nil
}

// denyProjectChange records a non-administrator's attempt on an existing
// project. Unknown projects get the same error without an entry.
func (s *Service) denyProjectChange(ctx context.Context, actor internal.Identity, projectID int64) error {
	denied := internal.NewPermissionDeniedError(permPlatformAdmin)
	s.logger.Warn("permission denied",
		"actor_id", actor.UserID,
		"project_id", projectID,
		"required_permission", permPlatformAdmin)

	ctx = context.WithoutCancel(ctx)
	row, err := s.repo.GetByID(ctx, projectID)
	if err != nil || row == nil {
		return denied
	}
	if _, err := s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionPermissionDenied,
		ResourceType: "project",
		ResourceID:   audit.ID(projectID),
		Description:  "Permission denied for " + permPlatformAdmin,
		Outcome:      audit.OutcomeDenied,
		Metadata:     map[string]any{"required_permission": permPlatformAdmin},
	}); err != nil {
		return err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, events.NewPermissionDeniedEvent(projectID, actor.UserID, permPlatformAdmin))
	}
	return denied
}

func (s *Service) Create(ctx context.Context, actor internal.Identity, dto CreateProjectDTO) (*Project, error) {
	if err := requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	code := strings.ToLower(strings.TrimSpace(dto.Code))
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, internal.NewInternalError("failed to check project code", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Project code already exists", map[string]any{"code": code})
	}

	project := &Project{Name: strings.TrimSpace(dto.Name), Code: code, Status: StatusActive}
	row := ToDataModel(project)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create project", "code", code, "error", err)
		return nil, internal.NewInternalError("failed to create project", err)
	}
	project = FromDataModel(row)

	if _, err := s.audit.Append(ctx, audit.Entry{
		ProjectID:    project.ID,
		ActorID:      actor.UserID,
		Action:       audit.ActionProjectCreated,
		ResourceType: "project",
		ResourceID:   audit.ID(project.ID),
		Description:  fmt.Sprintf("Project %q created", project.Name),
		Metadata:     map[string]any{"code": project.Code},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "project_id", project.ID, "code", project.Code, "actor_id", actor.UserID)
	return project, nil
}

func (s *Service) SetStatus(ctx context.Context, actor internal.Identity, projectID int64, status Status) (*Project, error) {
	if !actor.IsPlatformAdmin {
		return nil, s.denyProjectChange(ctx, actor, projectID)
	}
	if !status.Valid() {
		return nil, internal.NewValidationError("Invalid project status", map[string]any{"status": string(status)})
	}

	row, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("project", projectID)
	}
	project := FromDataModel(row)
	if project.Status == status {
		return project, nil
	}

	if err := s.repo.UpdateStatus(ctx, projectID, string(status)); err != nil {
		s.logger.Error("failed to update project status", "project_id", projectID, "error", err)
		return nil, internal.NewInternalError("failed to update project status", err)
	}
	project.Status = status

	action := audit.ActionProjectActivated
	if status == StatusSuspended {
		action = audit.ActionProjectSuspended
	}
	if _, err := s.audit.Append(ctx, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       action,
		ResourceType: "project",
		ResourceID:   audit.ID(projectID),
		Description:  fmt.Sprintf("Project status changed to %s", status),
	}); err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, events.NewProjectStatusChangedEvent(projectID, actor.UserID, string(status)))
	}

	s.logger.Info("project status changed", "project_id", projectID, "status", status, "actor_id", actor.UserID)
	return project, nil
}

func (s *Service) Get(ctx context.Context, actor internal.Identity, projectID int64) (*Project, error) {
	if !actor.IsPlatformAdmin {
		if s.checker == nil {
			return nil, internal.NewPermissionDeniedError(permProjectView)
		}
		if err := s.checker.Check(ctx, actor, projectID, permProjectView); err != nil {
			return nil, err
		}
	}
	row, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load project", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("project", projectID)
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, actor internal.Identity) ([]*Project, error) {
	if err := requirePlatformAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	projects := make([]*Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, FromDataModel(row))
	}
	return projects, nil
}

type CreateProjectDTO struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (d CreateProjectDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("code", d.Code).Required().MinLength(2).MaxLength(50)
	return v.Validate()
}

type UpdateStatusDTO struct {
	Status Status `json:"status" validate:"required,oneof=active suspended"`
}
