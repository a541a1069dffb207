package postgres

import (
	"context"
	"errors"
	"fmt"

	schoolDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/school"
	uploadDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/upload"
	"github.com/frahmantamala/school-core/internal/upload"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBatchNotPending = errors.New("upload batch is not pending")

const outcomeInsertBatch = 200

type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

var (
	_ upload.BatchStore    = (*UploadRepository)(nil)
	_ upload.CatalogReader = (*UploadRepository)(nil)
)

func (r *UploadRepository) CreatePending(ctx context.Context, b *upload.Batch) error {
	model := upload.ToDataModel(b)
	model.Status = string(upload.StatusPending)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	return nil
}

func (r *UploadRepository) ApplyRow(ctx context.Context, b *upload.Batch, d upload.Decision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertRecord(tx, b, d)
	})
}

func insertRecord(tx *gorm.DB, b *upload.Batch, d upload.Decision) error {
	switch {
	case d.Attendance != nil:
		rec := d.Attendance
		studentID := rec.StudentID
		if studentID == 0 {
			student := schoolDatamodel.Student{ProjectID: b.ProjectID, StudentCode: rec.StudentCode}
			if err := tx.Where(&student).
				Attrs(schoolDatamodel.Student{Name: rec.StudentName}).
				FirstOrCreate(&student).Error; err != nil {
				return fmt.Errorf("resolve student %s: %w", rec.StudentCode, err)
			}
			studentID = student.ID
		}
		return tx.Create(&schoolDatamodel.AttendanceRecord{
			ProjectID:      b.ProjectID,
			UploadID:       b.ID,
			StudentID:      studentID,
			AttendanceDate: rec.Date,
			Status:         rec.Status,
			Remarks:        rec.Remarks,
		}).Error
	case d.Exam != nil:
		rec := d.Exam
		return tx.Create(&schoolDatamodel.ExamRecord{
			ProjectID:     b.ProjectID,
			UploadID:      b.ID,
			StudentID:     rec.StudentID,
			ExamID:        rec.ExamID,
			SubjectID:     rec.SubjectID,
			MarksObtained: rec.MarksObtained,
			MaxMarks:      rec.MaxMarks,
			Grade:         rec.Grade,
			Remarks:       rec.Remarks,
		}).Error
	}
	return errors.New("decision carries no record")
}

// Finalize only moves batches that are still pending.
func (r *UploadRepository) Finalize(ctx context.Context, b *upload.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := finishPending(tx, b); err != nil {
			return err
		}
		return insertOutcomes(tx, b)
	})
}

func (r *UploadRepository) MarkFinished(ctx context.Context, b *upload.Batch) error {
	return finishPending(r.db.WithContext(ctx), b)
}

func finishPending(tx *gorm.DB, b *upload.Batch) error {
	res := tx.Model(&uploadDatamodel.Upload{}).
		Where("id = ? AND status = ?", b.ID, upload.StatusPending).
		Updates(map[string]any{
			"status":          string(b.Status),
			"total_rows":      b.TotalRows,
			"successful_rows": b.SuccessfulRows,
			"failed_rows":     b.FailedRows,
			"message":         b.Message,
			"completed_at":    b.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBatchNotPending
	}
	return nil
}

func (r *UploadRepository) CommitAll(ctx context.Context, b *upload.Batch, decisions []upload.Decision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := upload.ToDataModel(b)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		b.ID = model.ID
		b.CreatedAt = model.CreatedAt

		for _, d := range decisions {
			if err := insertRecord(tx, b, d); err != nil {
				return err
			}
		}
		return insertOutcomes(tx, b)
	})
}

func (r *UploadRepository) SaveRejected(ctx context.Context, b *upload.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := upload.ToDataModel(b)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		b.ID = model.ID
		b.CreatedAt = model.CreatedAt
		return insertOutcomes(tx, b)
	})
}

func insertOutcomes(tx *gorm.DB, b *upload.Batch) error {
	if len(b.Outcomes) == 0 {
		return nil
	}
	rows := upload.OutcomesToDataModel(b.ID, b.Outcomes)
	return tx.CreateInBatches(rows, outcomeInsertBatch).Error
}

func (r *UploadRepository) GetBatch(ctx context.Context, projectID, batchID int64) (*upload.Batch, error) {
	var model uploadDatamodel.Upload
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", batchID, projectID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var outcomes []*uploadDatamodel.RowOutcome
	if err := r.db.WithContext(ctx).
		Where("upload_id = ?", model.ID).
		Order("row_index ASC").
		Find(&outcomes).Error; err != nil {
		return nil, err
	}

	return upload.FromDataModel(&model, outcomes), nil
}

func (r *UploadRepository) ListBatches(ctx context.Context, projectID int64, domain upload.Domain) ([]*upload.Batch, error) {
	var models []*uploadDatamodel.Upload
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND domain = ?", projectID, string(domain)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]*upload.Batch, len(models))
	for i, m := range models {
		batches[i] = upload.FromDataModel(m, nil)
	}
	return batches, nil
}

func (r *UploadRepository) StudentDirectory(ctx context.Context, projectID int64) (upload.StudentDirectory, error) {
	var students []schoolDatamodel.Student
	if err := r.db.WithContext(ctx).
		Select("id", "student_code").
		Where("project_id = ?", projectID).
		Find(&students).Error; err != nil {
		return nil, err
	}

	dir := make(upload.StudentDirectory, len(students))
	for _, s := range students {
		dir[s.StudentCode] = s.ID
	}
	return dir, nil
}

func (r *UploadRepository) ExamCatalog(ctx context.Context, projectID int64) (upload.ExamCatalog, error) {
	students, err := r.StudentDirectory(ctx, projectID)
	if err != nil {
		return upload.ExamCatalog{}, err
	}

	var exams []schoolDatamodel.Exam
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&exams).Error; err != nil {
		return upload.ExamCatalog{}, err
	}
	var subjects []schoolDatamodel.Subject
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&subjects).Error; err != nil {
		return upload.ExamCatalog{}, err
	}

	catalog := upload.ExamCatalog{
		Students: students,
		Exams:    make(map[string]int64, len(exams)),
		Subjects: make(map[string]int64, len(subjects)),
	}
	for _, e := range exams {
		catalog.Exams[upload.CatalogKey(e.Name)] = e.ID
	}
	for _, s := range subjects {
		catalog.Subjects[upload.CatalogKey(s.Name)] = s.ID
	}
	return catalog, nil
}
