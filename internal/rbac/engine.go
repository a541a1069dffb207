package rbac

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/tenancy"
)

type Decision int

const (
	Denied Decision = iota
	Granted
)

func (d Decision) String() string {
	if d == Granted {
		return "granted"
	}
	return "denied"
}

// RoleGrant is one assigned role with the raw keys attached to it.
type RoleGrant struct {
	RoleID         int64
	RoleName       string
	IsProjectAdmin bool
	Keys           []string
}

type AssignmentReader interface {
	RoleGrants(ctx context.Context, userID, projectID int64) ([]RoleGrant, error)
}

// Engine evaluates grants from a fresh read of the assignments on every call.
type Engine struct {
	assignments AssignmentReader
	logger      *slog.Logger
}

func NewEngine(assignments AssignmentReader, logger *slog.Logger) *Engine {
	return &Engine{assignments: assignments, logger: logger}
}

func (e *Engine) Authorize(ctx context.Context, userID int64, tc tenancy.Context, required string) (Decision, error) {
	key, err := ParseKey(required)
	if err != nil || key.Wildcard {
		return Denied, internal.NewValidationError("required permission must be a concrete key",
			map[string]any{"permission": required})
	}
	if !tc.Active() {
		return Denied, nil
	}

	grants, err := e.assignments.RoleGrants(ctx, userID, tc.ProjectID())
	if err != nil {
		e.logger.Error("failed to load role assignments",
			"user_id", userID,
			"project_id", tc.ProjectID(),
			"error", err)
		return Denied, internal.NewInternalError("failed to load role assignments", err)
	}

	set := NewPermissionSet()
	for _, g := range grants {
		if g.IsProjectAdmin {
			return Granted, nil
		}
		e.collect(set, g)
	}

	if set.Allows(key) {
		return Granted, nil
	}
	return Denied, nil
}

// EffectivePermissions lists the keys the user holds in the project.
func (e *Engine) EffectivePermissions(ctx context.Context, userID int64, tc tenancy.Context) (EffectivePermissions, error) {
	grants, err := e.assignments.RoleGrants(ctx, userID, tc.ProjectID())
	if err != nil {
		return EffectivePermissions{}, internal.NewInternalError("failed to load role assignments", err)
	}

	set := NewPermissionSet()
	out := EffectivePermissions{ProjectID: tc.ProjectID(), Roles: make([]string, 0, len(grants))}
	for _, g := range grants {
		out.Roles = append(out.Roles, g.RoleName)
		out.ProjectAdmin = out.ProjectAdmin || g.IsProjectAdmin
		e.collect(set, g)
	}
	out.Permissions = set.Strings()
	return out, nil
}

func (e *Engine) collect(set PermissionSet, g RoleGrant) {
	for _, raw := range g.Keys {
		k, err := ParseKey(raw)
		if err != nil {
			e.logger.Warn("ignoring malformed permission key", "role_id", g.RoleID, "key", raw)
			continue
		}
		set.Add(k)
	}
}

type EffectivePermissions struct {
	ProjectID    int64    `json:"project_id"`
	Roles        []string `json:"roles"`
	ProjectAdmin bool     `json:"project_admin"`
	Permissions  []string `json:"permissions"`
}
