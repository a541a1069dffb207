package tenancy

import (
	"net/http"

	"github.com/frahmantamala/school-core/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

type ProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}

	projects, err := h.Service.List(r.Context(), actor)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}

	var dto CreateProjectDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	project, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("Create: project not created", "error", err, "user_id", actor.UserID)
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, project)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	project, err := h.Service.Get(r.Context(), actor, projectID)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	var dto UpdateStatusDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	project, err := h.Service.SetStatus(r.Context(), actor, projectID, dto.Status)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, project)
}
