package audit

import "time"

type AuditLog struct {
	ID           int64     `gorm:"primaryKey"`
	ProjectID    int64     `gorm:"column:project_id;not null;index:idx_audit_logs_project_created,priority:1"`
	UserID       *int64    `gorm:"column:user_id"`
	Action       string    `gorm:"column:action;not null"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceID   string    `gorm:"column:resource_id"`
	Description  string    `gorm:"column:description"`
	Outcome      string    `gorm:"column:outcome;not null"`
	Metadata     string    `gorm:"column:metadata"`
	TraceID      string    `gorm:"column:trace_id"`
	IPAddress    string    `gorm:"column:ip_address"`
	UserAgent    string    `gorm:"column:user_agent"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;index:idx_audit_logs_project_created,priority:2"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
