package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUploadCompleted      = "upload.completed"
	EventTypePermissionDenied     = "permission.denied"
	EventTypeProjectStatusChanged = "project.status_changed"
)

func newBaseEvent(eventType string, data map[string]any) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type UploadCompletedEvent struct {
	BaseEvent
	ProjectID int64  `json:"project_id"`
	BatchID   int64  `json:"batch_id"`
	Domain    string `json:"domain"`
	Status    string `json:"status"`
}

func NewUploadCompletedEvent(projectID, batchID int64, domain, status string, applied, total int) *UploadCompletedEvent {
	return &UploadCompletedEvent{
		BaseEvent: newBaseEvent(EventTypeUploadCompleted, map[string]any{
			"project_id": projectID,
			"batch_id":   batchID,
			"domain":     domain,
			"status":     status,
			"applied":    applied,
			"total":      total,
		}),
		ProjectID: projectID,
		BatchID:   batchID,
		Domain:    domain,
		Status:    status,
	}
}

type PermissionDeniedEvent struct {
	BaseEvent
	ProjectID          int64  `json:"project_id"`
	UserID             int64  `json:"user_id"`
	RequiredPermission string `json:"required_permission"`
}

func NewPermissionDeniedEvent(projectID, userID int64, required string) *PermissionDeniedEvent {
	return &PermissionDeniedEvent{
		BaseEvent: newBaseEvent(EventTypePermissionDenied, map[string]any{
			"project_id":          projectID,
			"user_id":             userID,
			"required_permission": required,
		}),
		ProjectID:          projectID,
		UserID:             userID,
		RequiredPermission: required,
	}
}

type ProjectStatusChangedEvent struct {
	BaseEvent
	ProjectID int64  `json:"project_id"`
	Status    string `json:"status"`
}

func NewProjectStatusChangedEvent(projectID, changedBy int64, status string) *ProjectStatusChangedEvent {
	return &ProjectStatusChangedEvent{
		BaseEvent: newBaseEvent(EventTypeProjectStatusChanged, map[string]any{
			"project_id": projectID,
			"changed_by": changedBy,
			"status":     status,
		}),
		ProjectID: projectID,
		Status:    status,
	}
}
