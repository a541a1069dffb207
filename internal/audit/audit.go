package audit

import (
	"encoding/json"
	"strconv"
	"time"

	auditDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/audit"
)

type Action string

const (
	ActionPermissionDenied Action = "PERMISSION_DENIED"
	ActionRoleCreated      Action = "ROLE_CREATED"
	ActionRoleDeleted      Action = "ROLE_DELETED"
	ActionRoleAssigned     Action = "ROLE_ASSIGNED"
	ActionRoleRevoked      Action = "ROLE_REVOKED"
	ActionProjectCreated   Action = "PROJECT_CREATED"
	ActionProjectSuspended Action = "PROJECT_SUSPENDED"
	ActionProjectActivated Action = "PROJECT_ACTIVATED"
	ActionUploadCompleted  Action = "UPLOAD_COMPLETED"
	ActionUploadFailed     Action = "UPLOAD_FAILED"
)

var knownActions = map[Action]struct{}{
	ActionPermissionDenied: {},
	ActionRoleCreated:      {},
	ActionRoleDeleted:      {},
	ActionRoleAssigned:     {},
	ActionRoleRevoked:      {},
	ActionProjectCreated:   {},
	ActionProjectSuspended: {},
	ActionProjectActivated: {},
	ActionUploadCompleted:  {},
	ActionUploadFailed:     {},
}

func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailure Outcome = "failure"
)

// Entry is one audit log line. ActorID 0 means the system acted.
type Entry struct {
	ID           int64          `json:"id"`
	ProjectID    int64          `json:"project_id"`
	ActorID      int64          `json:"actor_id,omitempty"`
	Action       Action         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Description  string         `json:"description,omitempty"`
	Outcome      Outcome        `json:"outcome"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func ToDataModel(e *Entry) (*auditDatamodel.AuditLog, error) {
	var metadata string
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(raw)
	}

	var actor *int64
	if e.ActorID != 0 {
		id := e.ActorID
		actor = &id
	}

	return &auditDatamodel.AuditLog{
		ID:           e.ID,
		ProjectID:    e.ProjectID,
		UserID:       actor,
		Action:       string(e.Action),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Description:  e.Description,
		Outcome:      string(e.Outcome),
		Metadata:     metadata,
		TraceID:      e.TraceID,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func FromDataModel(l *auditDatamodel.AuditLog) *Entry {
	e := &Entry{
		ID:           l.ID,
		ProjectID:    l.ProjectID,
		Action:       Action(l.Action),
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		Description:  l.Description,
		Outcome:      Outcome(l.Outcome),
		TraceID:      l.TraceID,
		IPAddress:    l.IPAddress,
		UserAgent:    l.UserAgent,
		CreatedAt:    l.CreatedAt,
	}
	if l.UserID != nil {
		e.ActorID = *l.UserID
	}
	if l.Metadata != "" {
		// metadata was written by ToDataModel; a decode failure leaves it empty
		_ = json.Unmarshal([]byte(l.Metadata), &e.Metadata)
	}
	return e
}
