package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/audit"
	"github.com/frahmantamala/school-core/internal/core/events"
	"github.com/frahmantamala/school-core/internal/tenancy"
)

type Authorizer interface {
	Authorize(ctx context.Context, actor internal.Identity, projectID int64, key string) (tenancy.Context, error)
}

type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

type Runner interface {
	Do(ctx context.Context, job Job) error
}

type ServiceAPI interface {
	Submit(ctx context.Context, actor internal.Identity, projectID int64, req SubmitRequest) (*Batch, error)
	Get(ctx context.Context, actor internal.Identity, projectID int64, domain Domain, batchID int64) (*Batch, error)
	List(ctx context.Context, actor internal.Identity, projectID int64, domain Domain) ([]*Batch, error)
}

type SubmitRequest struct {
	Domain   Domain
	FileName string
	FileSize int64
	Rows     []Row
}

type Service struct {
	pipeline   *Pipeline
	store      BatchStore
	runner     Runner
	authorizer Authorizer
	audit      AuditAppender
	events     events.Publisher
	maxRows    int
	logger     *slog.Logger
}

func NewService(pipeline *Pipeline, store BatchStore, runner Runner, authorizer Authorizer, recorder AuditAppender, publisher events.Publisher, maxRows int, logger *slog.Logger) *Service {
	return &Service{
		pipeline:   pipeline,
		store:      store,
		runner:     runner,
		authorizer: authorizer,
		audit:      recorder,
		events:     publisher,
		maxRows:    maxRows,
		logger:     logger,
	}
}

func (s *Service) Submit(ctx context.Context, actor internal.Identity, projectID int64, req SubmitRequest) (*Batch, error) {
	if !req.Domain.Valid() {
		return nil, internal.NewValidationError("Unsupported upload domain", map[string]any{"domain": req.Domain})
	}

	tc, err := s.authorizer.Authorize(ctx, actor, projectID, req.Domain.UploadPermission())
	if err != nil {
		return nil, err
	}

	if len(req.Rows) == 0 {
		return nil, internal.NewValidationError("The uploaded file contains no data rows", nil)
	}
	if s.maxRows > 0 && len(req.Rows) > s.maxRows {
		return nil, internal.NewValidationError(
			fmt.Sprintf("The uploaded file has %d rows, the limit is %d", len(req.Rows), s.maxRows),
			map[string]any{"rows": len(req.Rows), "max_rows": s.maxRows})
	}

	in := Input{
		Project:    tc,
		UploadedBy: actor.UserID,
		Domain:     req.Domain,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		Rows:       req.Rows,
	}

	var batch *Batch
	err = s.runner.Do(ctx, func(jobCtx context.Context) error {
		var runErr error
		batch, runErr = s.pipeline.Run(jobCtx, in, PolicyFor(req.Domain))
		return runErr
	})
	if err != nil {
		return nil, s.mapRunError(err, projectID, req.Domain)
	}

	// the batch is committed, so the request may no longer cancel the audit write
	detached := context.WithoutCancel(ctx)

	action, outcome := audit.ActionUploadCompleted, audit.OutcomeSuccess
	if batch.Status == StatusFailed {
		action, outcome = audit.ActionUploadFailed, audit.OutcomeFailure
	}
	if _, err := s.audit.Append(detached, audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       action,
		ResourceType: "upload_batch",
		ResourceID:   audit.ID(batch.ID),
		Description:  batch.Message,
		Outcome:      outcome,
		Metadata: map[string]any{
			"domain":          batch.Domain,
			"status":          batch.Status,
			"file_name":       batch.FileName,
			"total_rows":      batch.TotalRows,
			"successful_rows": batch.SuccessfulRows,
			"failed_rows":     batch.FailedRows,
		},
	}); err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.Publish(detached, events.NewUploadCompletedEvent(
			projectID, batch.ID, string(batch.Domain), string(batch.Status), batch.SuccessfulRows, batch.TotalRows))
	}

	return batch, nil
}

func (s *Service) mapRunError(err error, projectID int64, domain Domain) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("upload cancelled before commit",
			"project_id", projectID, "domain", domain, "error", err)
		return internal.NewUploadFailedError("Upload was cancelled, no data was saved", err)
	case errors.Is(err, ErrPoolClosed):
		return internal.NewUploadFailedError("The server is shutting down, please retry the upload", err)
	}
	return internal.AsAppError(err)
}

func (s *Service) Get(ctx context.Context, actor internal.Identity, projectID int64, domain Domain, batchID int64) (*Batch, error) {
	if !domain.Valid() {
		return nil, internal.NewValidationError("Unsupported upload domain", map[string]any{"domain": domain})
	}
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, domain.ViewPermission()); err != nil {
		return nil, err
	}

	batch, err := s.store.GetBatch(ctx, projectID, batchID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get upload", err)
	}
	if batch == nil || batch.Domain != domain {
		return nil, internal.NewNotFoundError("upload_batch", batchID)
	}
	return batch, nil
}

func (s *Service) List(ctx context.Context, actor internal.Identity, projectID int64, domain Domain) ([]*Batch, error) {
	if !domain.Valid() {
		return nil, internal.NewValidationError("Unsupported upload domain", map[string]any{"domain": domain})
	}
	if _, err := s.authorizer.Authorize(ctx, actor, projectID, domain.ViewPermission()); err != nil {
		return nil, err
	}

	batches, err := s.store.ListBatches(ctx, projectID, domain)
	if err != nil {
		return nil, internal.NewInternalError("failed to list uploads", err)
	}
	return batches, nil
}
