package upload

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/school-core/internal"
)

// Policy decides how validated rows are committed.
type Policy interface {
	Name() string
	Commit(ctx context.Context, store BatchStore, b *Batch, decisions []Decision, now func() time.Time) error
}

func PolicyFor(d Domain) Policy {
	if d == DomainExam {
		return AtomicPolicy{}
	}
	return PartialPolicy{}
}

func outcomeOf(index int, d Decision) RowOutcome {
	o := RowOutcome{
		Index:     index,
		RowNumber: index + firstDataRow,
		Reason:    d.Reason,
		Column:    d.Column,
		RawValue:  d.RawValue,
	}
	switch d.Kind {
	case DecisionApply:
		o.Status = OutcomeApplied
	case DecisionReject:
		o.Status = OutcomeRejected
	default:
		o.Status = OutcomeSkipped
	}
	return o
}

// ErrOutcomesNotSaved reports a batch whose records and status were stored
// but whose per-row outcomes were not.
var ErrOutcomesNotSaved = errors.New("upload outcomes not saved")

// PartialPolicy applies every valid row on its own. Commit ignores
// cancellation of ctx once it starts so the batch is always finalized.
type PartialPolicy struct{}

func (PartialPolicy) Name() string { return "partial" }

func (PartialPolicy) Commit(ctx context.Context, store BatchStore, b *Batch, decisions []Decision, now func() time.Time) error {
	ctx = context.WithoutCancel(ctx)

	b.Status = StatusPending
	b.CreatedAt = now().UTC()
	if err := store.CreatePending(ctx, b); err != nil {
		return internal.NewUploadFailedError("Failed to record upload", err)
	}

	b.Outcomes = make([]RowOutcome, len(decisions))
	for i, d := range decisions {
		o := outcomeOf(i, d)
		if d.Kind == DecisionApply {
			if err := store.ApplyRow(ctx, b, d); err != nil {
				o.Status = OutcomeSkipped
				o.Reason = "Failed to save record"
			}
		} else {
			// this policy never rejects
			o.Status = OutcomeSkipped
		}
		b.Outcomes[i] = o
	}

	status := StatusSucceeded
	if b.CountOutcomes(OutcomeSkipped) > 0 {
		status = StatusPartiallySucceeded
	}
	b.finish(status, now().UTC())

	if err := store.Finalize(ctx, b); err != nil {
		// rows are committed, so the batch must not stay pending and invite a resubmission
		if markErr := store.MarkFinished(ctx, b); markErr != nil {
			return internal.NewUploadFailedError("Records were saved but the upload could not be finalized. Do not resubmit the file.",
				errors.Join(err, markErr)).
				WithDetail("upload_id", b.ID).
				WithDetail("saved_rows", b.SuccessfulRows)
		}
		return errors.Join(ErrOutcomesNotSaved, err)
	}
	return nil
}

const batchRejectedReason = "batch rejected"

// AtomicPolicy commits all rows or none.
type AtomicPolicy struct{}

func (AtomicPolicy) Name() string { return "atomic" }

func (AtomicPolicy) Commit(ctx context.Context, store BatchStore, b *Batch, decisions []Decision, now func() time.Time) error {
	b.CreatedAt = now().UTC()
	b.Outcomes = make([]RowOutcome, len(decisions))

	rejected := false
	for i, d := range decisions {
		b.Outcomes[i] = outcomeOf(i, d)
		if d.Kind != DecisionApply {
			rejected = true
		}
	}

	if rejected {
		for i := range b.Outcomes {
			if b.Outcomes[i].Status == OutcomeApplied {
				b.Outcomes[i].Status = OutcomeSkipped
				b.Outcomes[i].Reason = batchRejectedReason
			}
		}
		b.finish(StatusFailed, now().UTC())
		if err := store.SaveRejected(ctx, b); err != nil {
			return internal.NewUploadFailedError("Failed to record upload", err)
		}
		return nil
	}

	b.finish(StatusSucceeded, now().UTC())
	if err := store.CommitAll(ctx, b, decisions); err != nil {
		b.ID = 0
		return internal.NewUploadFailedError("Upload was rolled back, no records were saved", err)
	}
	return nil
}
