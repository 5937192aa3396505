package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/roadmaps"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/database"
)

type GroupHandler struct {
	auditLog *audit.Logger
}

func NewGroupHandler(auditLog *audit.Logger) *GroupHandler {
	return &GroupHandler{auditLog: auditLog}
}

func (h *GroupHandler) service(tenantCtx *database.TenantContext) *roadmaps.Service {
	return roadmaps.NewService(roadmaps.NewRepository(tenantCtx.DB))
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	roadmapID := apiContext.RouteParam(r.Context(), "roadmap_id")

	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	group, err := h.service(tenantCtx).CreateGroup(roadmapID, req.Name, req.Position)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if group == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	h.auditLog.Log(r.Context(), "group.created", "group", group.ID, map[string]interface{}{"roadmap_id": roadmapID})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(group)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	roadmapID := apiContext.RouteParam(r.Context(), "roadmap_id")

	groups, err := h.service(tenantCtx).ListGroups(roadmapID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groups)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "group_id")

	var req struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	group, err := h.service(tenantCtx).UpdateGroup(id, req.Name, req.Position)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if group == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Group not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "group_id")

	if err := h.service(tenantCtx).DeleteGroup(id); err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to delete group", nil)
		return
	}

	h.auditLog.Log(r.Context(), "group.deleted", "group", id, nil)

	w.WriteHeader(http.StatusNoContent)
}
