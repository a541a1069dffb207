package tenancy

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal"
	projectDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/project"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*projectDatamodel.Project, error)
	GetByCode(ctx context.Context, code string) (*projectDatamodel.Project, error)
	List(ctx context.Context) ([]*projectDatamodel.Project, error)
	Create(ctx context.Context, p *projectDatamodel.Project) error
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// Resolver reads the project on every call; status is never cached.
type Resolver struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(repo RepositoryAPI, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger, now: time.Now}
}

func (r *Resolver) Resolve(ctx context.Context, projectID int64) (Context, error) {
	row, err := r.repo.GetByID(ctx, projectID)
	if err != nil {
		r.logger.Error("failed to load project", "project_id", projectID, "error", err)
		return Context{}, internal.NewInternalError("failed to load project", err)
	}
	if row == nil {
		return Context{}, internal.NewNotFoundError("project", projectID)
	}

	project := FromDataModel(row)
	if !project.IsActive() {
		r.logger.Warn("rejected request for suspended project", "project_id", projectID)
		return Context{}, internal.NewProjectSuspendedError(projectID)
	}

	return NewContext(project, r.now().UTC()), nil
}
