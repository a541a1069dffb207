package upload

import (
	"fmt"
	"time"

	uploadDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/upload"
	"github.com/frahmantamala/school-core/internal/rbac"
)

type Domain string

const (
	DomainAttendance Domain = "attendance"
	DomainExam       Domain = "exam"
)

func (d Domain) Valid() bool {
	return d == DomainAttendance || d == DomainExam
}

func (d Domain) UploadPermission() string {
	if d == DomainExam {
		return rbac.PermExamUpload
	}
	return rbac.PermAttendanceUpload
}

func (d Domain) ViewPermission() string {
	if d == DomainExam {
		return rbac.PermExamView
	}
	return rbac.PermAttendanceView
}

type Status string

const (
	StatusPending            Status = "pending"
	StatusSucceeded          Status = "succeeded"
	StatusPartiallySucceeded Status = "partially_succeeded"
	StatusFailed             Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusPartiallySucceeded || s == StatusFailed
}

type OutcomeStatus string

const (
	OutcomeApplied  OutcomeStatus = "applied"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeRejected OutcomeStatus = "rejected"
)

// firstDataRow is the sheet row of index 0; row 1 is the header.
const firstDataRow = 2

type RowOutcome struct {
	Index     int           `json:"index"`
	RowNumber int           `json:"row_number"`
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Column    string        `json:"column,omitempty"`
	RawValue  string        `json:"raw_value,omitempty"`
}

// Batch is one ingestion attempt. Once Status is terminal it is not changed.
type Batch struct {
	ID             int64        `json:"id"`
	ProjectID      int64        `json:"project_id"`
	UploadedBy     int64        `json:"uploaded_by"`
	Domain         Domain       `json:"domain"`
	FileName       string       `json:"file_name,omitempty"`
	FileSize       int64        `json:"file_size,omitempty"`
	Status         Status       `json:"status"`
	TotalRows      int          `json:"total_rows"`
	SuccessfulRows int          `json:"successful_rows"`
	FailedRows     int          `json:"failed_rows"`
	Message        string       `json:"message"`
	Outcomes       []RowOutcome `json:"outcomes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// finish fills the counters and the message from the outcomes and marks the
// batch terminal.
func (b *Batch) finish(status Status, at time.Time) {
	b.SuccessfulRows, b.FailedRows = 0, 0
	for _, o := range b.Outcomes {
		if o.Status == OutcomeApplied {
			b.SuccessfulRows++
		} else {
			b.FailedRows++
		}
	}
	b.TotalRows = len(b.Outcomes)
	b.Status = status
	b.CompletedAt = &at

	switch {
	case status == StatusSucceeded:
		b.Message = fmt.Sprintf("Successfully imported %d records.", b.SuccessfulRows)
	case status == StatusPartiallySucceeded:
		b.Message = fmt.Sprintf("Partially imported: %d of %d rows imported, %d skipped.",
			b.SuccessfulRows, b.TotalRows, b.FailedRows)
	case b.Domain == DomainExam:
		b.Message = "Exam upload failed. All rows rejected due to validation errors."
	default:
		b.Message = "Upload failed."
	}
}

func (b *Batch) CountOutcomes(status OutcomeStatus) int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func ToDataModel(b *Batch) *uploadDatamodel.Upload {
	return &uploadDatamodel.Upload{
		ID:             b.ID,
		ProjectID:      b.ProjectID,
		UploadedBy:     b.UploadedBy,
		Domain:         string(b.Domain),
		FileName:       b.FileName,
		FileSize:       b.FileSize,
		Status:         string(b.Status),
		TotalRows:      b.TotalRows,
		SuccessfulRows: b.SuccessfulRows,
		FailedRows:     b.FailedRows,
		Message:        b.Message,
		CreatedAt:      b.CreatedAt,
		CompletedAt:    b.CompletedAt,
	}
}

func FromDataModel(u *uploadDatamodel.Upload, outcomes []*uploadDatamodel.RowOutcome) *Batch {
	b := &Batch{
		ID:             u.ID,
		ProjectID:      u.ProjectID,
		UploadedBy:     u.UploadedBy,
		Domain:         Domain(u.Domain),
		FileName:       u.FileName,
		FileSize:       u.FileSize,
		Status:         Status(u.Status),
		TotalRows:      u.TotalRows,
		SuccessfulRows: u.SuccessfulRows,
		FailedRows:     u.FailedRows,
		Message:        u.Message,
		CreatedAt:      u.CreatedAt,
		CompletedAt:    u.CompletedAt,
	}
	for _, o := range outcomes {
		b.Outcomes = append(b.Outcomes, RowOutcome{
			Index:     o.RowIndex,
			RowNumber: o.RowNumber,
			Status:    OutcomeStatus(o.Status),
			Reason:    o.Reason,
			Column:    o.ColumnName,
			RawValue:  o.RawValue,
		})
	}
	return b
}

func OutcomesToDataModel(batchID int64, outcomes []RowOutcome) []uploadDatamodel.RowOutcome {
	rows := make([]uploadDatamodel.RowOutcome, len(outcomes))
	for i, o := range outcomes {
		rows[i] = uploadDatamodel.RowOutcome{
			UploadID:   batchID,
			RowIndex:   o.Index,
			RowNumber:  o.RowNumber,
			Status:     string(o.Status),
			Reason:     o.Reason,
			ColumnName: o.Column,
			RawValue:   o.RawValue,
		}
	}
	return rows
}
