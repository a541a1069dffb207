package postgres

import (
	"context"

	"github.com/frahmantamala/school-core/internal/audit"
	auditDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, log *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *AuditRepository) ListByProject(ctx context.Context, projectID int64, filter audit.ListFilter) ([]*auditDatamodel.AuditLog, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if filter.Action != "" {
		query = query.Where("action = ?", string(filter.Action))
	}

	var logs []*auditDatamodel.AuditLog
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&logs).Error
	return logs, err
}
