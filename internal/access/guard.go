package access

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/audit"
	"github.com/frahmantamala/school-core/internal/core/events"
	"github.com/frahmantamala/school-core/internal/rbac"
	"github.com/frahmantamala/school-core/internal/tenancy"
)

type ProjectResolver interface {
	Resolve(ctx context.Context, projectID int64) (tenancy.Context, error)
}

type PermissionEvaluator interface {
	Authorize(ctx context.Context, userID int64, tc tenancy.Context, required string) (rbac.Decision, error)
}

type AuditAppender interface {
	Append(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

// Guard is the single entry point for project-scoped calls. The tenancy gate
// runs before the permission engine is consulted.
type Guard struct {
	projects ProjectResolver
	engine   PermissionEvaluator
	audit    AuditAppender
	events   events.Publisher
	logger   *slog.Logger
}

func NewGuard(projects ProjectResolver, engine PermissionEvaluator, recorder AuditAppender, publisher events.Publisher, logger *slog.Logger) *Guard {
	return &Guard{
		projects: projects,
		engine:   engine,
		audit:    recorder,
		events:   publisher,
		logger:   logger,
	}
}

func (g *Guard) Resolve(ctx context.Context, projectID int64) (tenancy.Context, error) {
	return g.projects.Resolve(ctx, projectID)
}

func (g *Guard) Authorize(ctx context.Context, actor internal.Identity, projectID int64, key string) (tenancy.Context, error) {
	tc, err := g.projects.Resolve(ctx, projectID)
	if err != nil {
		return tenancy.Context{}, err
	}

	decision, err := g.engine.Authorize(ctx, actor.UserID, tc, key)
	if err != nil {
		return tenancy.Context{}, err
	}
	if decision == rbac.Granted {
		return tc, nil
	}

	g.logger.Warn("access denied: insufficient permissions",
		"user_id", actor.UserID,
		"project_id", projectID,
		"required_permission", key)

	if _, err := g.audit.Append(context.WithoutCancel(ctx), audit.Entry{
		ProjectID:    projectID,
		ActorID:      actor.UserID,
		Action:       audit.ActionPermissionDenied,
		ResourceType: "permission",
		ResourceID:   key,
		Description:  "Permission denied for " + key,
		Outcome:      audit.OutcomeDenied,
		Metadata:     map[string]any{"required_permission": key},
	}); err != nil {
		return tenancy.Context{}, err
	}

	if g.events != nil {
		_ = g.events.Publish(ctx, events.NewPermissionDeniedEvent(projectID, actor.UserID, key))
	}

	return tenancy.Context{}, internal.NewPermissionDeniedError(key)
}

// Check is Authorize for callers that only need the verdict.
func (g *Guard) Check(ctx context.Context, actor internal.Identity, projectID int64, key string) error {
	_, err := g.Authorize(ctx, actor, projectID, key)
	return err
}
