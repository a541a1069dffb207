package upload

import (
	"context"
)

// BatchStore persists batches, their outcomes and the records they produce.
type BatchStore interface {
	// CreatePending inserts b with status pending and sets its ID.
	CreatePending(ctx context.Context, b *Batch) error
	// ApplyRow writes the record of one applied row in its own transaction.
	ApplyRow(ctx context.Context, b *Batch, d Decision) error
	// Finalize moves a pending batch to its terminal status and writes the outcomes.
	Finalize(ctx context.Context, b *Batch) error
	// MarkFinished moves a pending batch to its terminal status and counters
	// without writing outcomes.
	MarkFinished(ctx context.Context, b *Batch) error
	// CommitAll inserts b, every record and every outcome in one transaction.
	CommitAll(ctx context.Context, b *Batch, decisions []Decision) error
	// SaveRejected inserts a terminal batch and its outcomes without records.
	SaveRejected(ctx context.Context, b *Batch) error

	GetBatch(ctx context.Context, projectID, batchID int64) (*Batch, error)
	ListBatches(ctx context.Context, projectID int64, domain Domain) ([]*Batch, error)
}

// CatalogReader fetches the lookups validators run against.
type CatalogReader interface {
	StudentDirectory(ctx context.Context, projectID int64) (StudentDirectory, error)
	ExamCatalog(ctx context.Context, projectID int64) (ExamCatalog, error)
}
