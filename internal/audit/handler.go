package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/transport"
)

// PermAuditView matches the catalog key in rbac.
const PermAuditView = "audit.view"

type AccessChecker interface {
	Check(ctx context.Context, actor internal.Identity, projectID int64, key string) error
}

type Lister interface {
	ListByProject(ctx context.Context, projectID int64, filter ListFilter) ([]Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Recorder Lister
	Access   AccessChecker
}

func NewHandler(baseHandler *transport.BaseHandler, recorder Lister, access AccessChecker) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Recorder:    recorder,
		Access:      access,
	}
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	if err := h.Access.Check(r.Context(), actor, projectID, PermAuditView); err != nil {
		h.WriteError(w, err)
		return
	}

	filter := ListFilter{
		Action: Action(r.URL.Query().Get("action")),
		Limit:  h.QueryInt(r, "limit", DefaultListLimit),
		Offset: h.QueryInt(r, "offset", 0),
	}.normalized()

	entries, err := h.Recorder.ListByProject(r.Context(), projectID, filter)
	if err != nil {
		h.Logger.Error("List: failed to list audit entries", "error", err, "project_id", projectID)
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Entries: entries, Limit: filter.Limit, Offset: filter.Offset})
}
