package upload

import "time"

type Upload struct {
	ID             int64      `gorm:"primaryKey"`
	ProjectID      int64      `gorm:"column:project_id;not null;index"`
	UploadedBy     int64      `gorm:"column:uploaded_by;not null"`
	Domain         string     `gorm:"column:domain;not null"`
	FileName       string     `gorm:"column:file_name"`
	FileSize       int64      `gorm:"column:file_size"`
	Status         string     `gorm:"column:status;not null"`
	TotalRows      int        `gorm:"column:total_rows"`
	SuccessfulRows int        `gorm:"column:successful_rows"`
	FailedRows     int        `gorm:"column:failed_rows"`
	Message        string     `gorm:"column:message"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}

func (Upload) TableName() string {
	return "uploads"
}

type RowOutcome struct {
	ID         int64  `gorm:"primaryKey"`
	UploadID   int64  `gorm:"column:upload_id;not null;uniqueIndex:idx_upload_row_outcomes_row"`
	RowIndex   int    `gorm:"column:row_index;not null;uniqueIndex:idx_upload_row_outcomes_row"`
	RowNumber  int    `gorm:"column:row_number;not null"`
	Status     string `gorm:"column:status;not null"`
	Reason     string `gorm:"column:reason"`
	ColumnName string `gorm:"column:column_name"`
	RawValue   string `gorm:"column:raw_value"`
}

func (RowOutcome) TableName() string {
	return "upload_row_outcomes"
}
