package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal"
	auditDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/audit"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// RepositoryAPI is insert-only on purpose: there is no update or delete.
type RepositoryAPI interface {
	Insert(ctx context.Context, log *auditDatamodel.AuditLog) error
	ListByProject(ctx context.Context, projectID int64, filter ListFilter) ([]*auditDatamodel.AuditLog, error)
}

type ListFilter struct {
	Action Action
	Limit  int
	Offset int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// WithClock replaces the time source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Append writes the entry before returning. Callers treat a failed append as a
// failed action.
func (r *Recorder) Append(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ProjectID <= 0 {
		return Entry{}, internal.NewValidationError("audit entry requires a project", nil)
	}
	if !entry.Action.Valid() {
		return Entry{}, internal.NewValidationError("unknown audit action", map[string]any{"action": string(entry.Action)})
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeSuccess
	}

	meta := internal.RequestMetaFromContext(ctx)
	if entry.TraceID == "" {
		entry.TraceID = meta.TraceID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = meta.UserAgent
	}
	entry.ID = 0
	entry.CreatedAt = r.now().UTC()

	row, err := ToDataModel(&entry)
	if err != nil {
		return Entry{}, internal.NewInternalError("failed to encode audit metadata", err)
	}
	// the audited action has already happened, so a cancelled request must not lose its entry
	if err := r.repo.Insert(context.WithoutCancel(ctx), row); err != nil {
		r.logger.Error("failed to append audit entry",
			"project_id", entry.ProjectID,
			"action", entry.Action,
			"error", err)
		return Entry{}, internal.NewInternalError("failed to record audit entry", err)
	}
	entry.ID = row.ID

	r.logger.Debug("audit entry appended",
		"id", entry.ID,
		"project_id", entry.ProjectID,
		"action", entry.Action,
		"outcome", entry.Outcome)
	return entry, nil
}

// ListByProject returns entries oldest first; equal timestamps keep insertion order.
func (r *Recorder) ListByProject(ctx context.Context, projectID int64, filter ListFilter) ([]Entry, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, internal.NewValidationError("unknown audit action", map[string]any{"action": string(filter.Action)})
	}
	rows, err := r.repo.ListByProject(ctx, projectID, filter.normalized())
	if err != nil {
		r.logger.Error("failed to list audit entries", "project_id", projectID, "error", err)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *FromDataModel(row))
	}
	return entries, nil
}
