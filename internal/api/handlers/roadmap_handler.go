package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/permissions"
	"signpost/internal/engine/roadmaps"
	"signpost/internal/engine/webhooks"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
)

type RoadmapHandler struct {
	webhookCfg config.WebhooksConfig
	domains    config.DomainsConfig
	auditLog   *audit.Logger
}

func NewRoadmapHandler(webhookCfg config.WebhooksConfig, domains config.DomainsConfig, auditLog *audit.Logger) *RoadmapHandler {
	return &RoadmapHandler{webhookCfg: webhookCfg, domains: domains, auditLog: auditLog}
}

func (h *RoadmapHandler) service(tenantCtx *database.TenantContext) *roadmaps.Service {
	return roadmaps.NewService(roadmaps.NewRepository(tenantCtx.DB))
}

func (h *RoadmapHandler) webhookService(tenantCtx *database.TenantContext) *webhooks.Service {
	return webhooks.NewService(webhooks.NewStore(tenantCtx.DB), nil, h.webhookCfg)
}

func (h *RoadmapHandler) publicURL(tenantCtx *database.TenantContext, slug string) string {
	return fmt.Sprintf("%s/r/%s/%s", h.domains.PublicBaseURL, tenantCtx.WorkspaceSlug, slug)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var rverr *roadmaps.ValidationError
	if errors.As(err, &rverr) {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, rverr.Fields.First(), rverr.Fields)
		return
	}
	apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
}

func (h *RoadmapHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var input roadmaps.CreateRoadmapInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	rm, err := h.service(tenantCtx).CreateRoadmap(&input, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.webhookService(tenantCtx).TriggerRoadmapCreated(r.Context(), tenantCtx.WorkspaceID, rm)
	h.auditLog.Log(r.Context(), "roadmap.created", "roadmap", rm.ID, map[string]interface{}{"slug": rm.Slug})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rm)
}

func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)

	list, err := h.service(tenantCtx).ListRoadmaps()
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "roadmap_id")

	rm, err := h.service(tenantCtx).GetRoadmap(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if rm == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rm)
}

// checkOwnership applies the write-action ownership rule after the resource
// has been loaded.
func checkOwnership(w http.ResponseWriter, claims *auth.Claims, action permissions.Action, ownerID string) bool {
	result := permissions.Check(permissions.Role(claims.Role), action, &permissions.Resource{OwnerID: ownerID}, claims.UserID)
	if !result.Allowed {
		apierrors.WriteError(w, http.StatusForbidden, apierrors.ErrCodeForbidden, result.Reason, nil)
		return false
	}
	return true
}

func (h *RoadmapHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := apiContext.RouteParam(r.Context(), "roadmap_id")

	svc := h.service(tenantCtx)
	existing, err := svc.GetRoadmap(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}
	if !checkOwnership(w, claims, permissions.RoadmapUpdate, existing.CreatedBy) {
		return
	}

	var input roadmaps.UpdateRoadmapInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	rm, err := svc.UpdateRoadmap(id, &input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.webhookService(tenantCtx).TriggerRoadmapUpdated(r.Context(), tenantCtx.WorkspaceID, rm)
	h.auditLog.Log(r.Context(), "roadmap.updated", "roadmap", rm.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rm)
}

func (h *RoadmapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := apiContext.RouteParam(r.Context(), "roadmap_id")

	svc := h.service(tenantCtx)
	existing, err := svc.GetRoadmap(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}
	if !checkOwnership(w, claims, permissions.RoadmapDelete, existing.CreatedBy) {
		return
	}

	if err := svc.DeleteRoadmap(id); err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to delete roadmap", nil)
		return
	}

	h.webhookService(tenantCtx).TriggerRoadmapDeleted(r.Context(), tenantCtx.WorkspaceID, id)
	h.auditLog.Log(r.Context(), "roadmap.deleted", "roadmap", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

// GetQRCode renders the roadmap's public URL as a PNG for print material.
func (h *RoadmapHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "roadmap_id")

	rm, err := h.service(tenantCtx).GetRoadmap(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if rm == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := roadmaps.GenerateQRCode(h.publicURL(tenantCtx, rm.Slug), size)
	if err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
