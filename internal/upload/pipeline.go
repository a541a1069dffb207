package upload

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/tenancy"
)

type Input struct {
	Project    tenancy.Context
	UploadedBy int64
	Domain     Domain
	FileName   string
	FileSize   int64
	Rows       []Row
}

type Pipeline struct {
	store   BatchStore
	catalog CatalogReader
	logger  *slog.Logger
	now     func() time.Time
}

func NewPipeline(store BatchStore, catalog CatalogReader, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, catalog: catalog, logger: logger, now: time.Now}
}

// Run validates every row in order and hands the decisions to policy. An
// error before the commit phase means nothing was written.
func (p *Pipeline) Run(ctx context.Context, in Input, policy Policy) (*Batch, error) {
	if !in.Project.Active() {
		return nil, internal.NewProjectSuspendedError(in.Project.ProjectID())
	}

	validator, err := p.validatorFor(ctx, in)
	if err != nil {
		return nil, err
	}

	decisions := make([]Decision, len(in.Rows))
	for i, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decisions[i] = validator.Validate(row, i)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{
		ProjectID:  in.Project.ProjectID(),
		UploadedBy: in.UploadedBy,
		Domain:     in.Domain,
		FileName:   in.FileName,
		FileSize:   in.FileSize,
		TotalRows:  len(in.Rows),
		Status:     StatusPending,
	}
	err = policy.Commit(ctx, p.store, batch, decisions, p.now)
	if errors.Is(err, ErrOutcomesNotSaved) {
		p.logger.Error("upload finished without stored outcomes",
			"project_id", batch.ProjectID,
			"batch_id", batch.ID,
			"error", err)
		err = nil
	}
	if err != nil {
		p.logger.Error("upload commit failed",
			"project_id", batch.ProjectID,
			"domain", batch.Domain,
			"policy", policy.Name(),
			"error", err)
		return nil, err
	}

	p.logger.Info("upload processed",
		"project_id", batch.ProjectID,
		"batch_id", batch.ID,
		"domain", batch.Domain,
		"status", batch.Status,
		"applied", batch.SuccessfulRows,
		"total", batch.TotalRows)
	return batch, nil
}

func (p *Pipeline) validatorFor(ctx context.Context, in Input) (RowValidator, error) {
	projectID := in.Project.ProjectID()
	switch in.Domain {
	case DomainAttendance:
		students, err := p.catalog.StudentDirectory(ctx, projectID)
		if err != nil {
			return nil, internal.NewInternalError("Failed to load students", err)
		}
		return NewAttendanceValidator(students), nil
	case DomainExam:
		catalog, err := p.catalog.ExamCatalog(ctx, projectID)
		if err != nil {
			return nil, internal.NewInternalError("Failed to load exam catalog", err)
		}
		return NewExamValidator(catalog), nil
	}
	return nil, internal.NewValidationError("Unsupported upload domain", map[string]any{"domain": in.Domain})
}
