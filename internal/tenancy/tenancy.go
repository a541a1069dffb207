package tenancy

import (
	"time"

	projectDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/project"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Project) IsActive() bool {
	return p.Status == StatusActive
}

// Context is the per-request view of a resolved project. It is passed by value
// and has no setters.
type Context struct {
	projectID  int64
	name       string
	status     Status
	resolvedAt time.Time
}

// NewContext snapshots p. Request paths get it from Resolver.Resolve.
func NewContext(p *Project, at time.Time) Context {
	return Context{projectID: p.ID, name: p.Name, status: p.Status, resolvedAt: at}
}

func (c Context) ProjectID() int64 {
	return c.projectID
}

func (c Context) ProjectName() string {
	return c.name
}

func (c Context) Status() Status {
	return c.status
}

func (c Context) ResolvedAt() time.Time {
	return c.resolvedAt
}

// Active is false for the zero Context.
func (c Context) Active() bool {
	return c.projectID != 0 && c.status == StatusActive
}

func ToDataModel(p *Project) *projectDatamodel.Project {
	return &projectDatamodel.Project{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModel(p *projectDatamodel.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		Status:    Status(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
