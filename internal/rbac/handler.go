package rbac

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

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	roles, err := h.Service.ListRoles(r.Context(), actor, projectID)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RolesResponse{Roles: roles})
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	var dto CreateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	role, err := h.Service.CreateRole(r.Context(), actor, projectID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.Logger.Info("CreateRole: role created", "role_id", role.ID, "project_id", projectID, "user_id", actor.UserID)
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	roleID, appErr := h.PathID(r, "roleID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	if err := h.Service.DeleteRole(r.Context(), actor, projectID, roleID); err != nil {
		h.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	roleID, appErr := h.PathID(r, "roleID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	var dto AssignRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	assignment, err := h.Service.AssignRole(r.Context(), actor, projectID, roleID, dto.UserID)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	roleID, appErr := h.PathID(r, "roleID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	userID, appErr := h.PathID(r, "userID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	if err := h.Service.RevokeRole(r.Context(), actor, projectID, roleID, userID); err != nil {
		h.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	perms, err := h.Service.MyPermissions(r.Context(), actor, projectID)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perms)
}
