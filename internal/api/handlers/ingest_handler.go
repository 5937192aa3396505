package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/ingest"
	"signpost/internal/engine/roadmaps"
	"signpost/internal/engine/webhooks"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
)

// IngestHandler receives FluxPoster publish calls. Posts are upserted by
// external ID so the pipeline can safely retry.
type IngestHandler struct {
	webhookCfg config.WebhooksConfig
	domains    config.DomainsConfig
	auditLog   *audit.Logger
}

func NewIngestHandler(webhookCfg config.WebhooksConfig, domains config.DomainsConfig, auditLog *audit.Logger) *IngestHandler {
	return &IngestHandler{webhookCfg: webhookCfg, domains: domains, auditLog: auditLog}
}

func (h *IngestHandler) service(tenantCtx *database.TenantContext) *ingest.Service {
	return ingest.NewService(roadmaps.NewRepository(tenantCtx.DB))
}

func (h *IngestHandler) webhookService(tenantCtx *database.TenantContext) *webhooks.Service {
	return webhooks.NewService(webhooks.NewStore(tenantCtx.DB), nil, h.webhookCfg)
}

func writeIngestError(w http.ResponseWriter, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, verr.Fields.First(), verr.Fields)
		return
	}
	apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
}

func (h *IngestHandler) Publish(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)

	var post ingest.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid JSON", nil)
		return
	}

	res, err := h.service(tenantCtx).Upsert(&post)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	if res == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "No roadmap configured", nil)
		return
	}

	whs := h.webhookService(tenantCtx)
	if res.Created {
		whs.TriggerItemCreated(r.Context(), tenantCtx.WorkspaceID, res.Item)
		h.auditLog.Log(r.Context(), "ingest.post_created", "item", res.Item.ID, map[string]interface{}{"external_id": post.ID})
	} else {
		whs.TriggerItemUpdated(r.Context(), tenantCtx.WorkspaceID, res.Item, nil)
		h.auditLog.Log(r.Context(), "ingest.post_updated", "item", res.Item.ID, map[string]interface{}{"external_id": post.ID})
	}

	rm, _ := roadmaps.NewRepository(tenantCtx.DB).GetRoadmap(res.Item.RoadmapID)
	publicURL := ""
	if rm != nil {
		publicURL = fmt.Sprintf("%s/r/%s/%s", h.domains.PublicBaseURL, tenantCtx.WorkspaceSlug, rm.Slug)
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"postId": res.Item.ID,
		"url":    publicURL,
	})
}

func (h *IngestHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	externalID := apiContext.RouteParam(r.Context(), "external_id")

	var post ingest.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid JSON", nil)
		return
	}

	item, err := h.service(tenantCtx).Update(externalID, &post)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Post not found", nil)
		return
	}

	h.webhookService(tenantCtx).TriggerItemUpdated(r.Context(), tenantCtx.WorkspaceID, item, nil)
	h.auditLog.Log(r.Context(), "ingest.post_updated", "item", item.ID, map[string]interface{}{"external_id": externalID})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"postId":  item.ID,
		"message": "Updated successfully",
	})
}

func (h *IngestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	externalID := apiContext.RouteParam(r.Context(), "external_id")

	item, err := h.service(tenantCtx).Delete(externalID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Post not found", nil)
		return
	}

	h.webhookService(tenantCtx).TriggerItemDeleted(r.Context(), tenantCtx.WorkspaceID, item.ID)
	h.auditLog.Log(r.Context(), "ingest.post_deleted", "item", item.ID, map[string]interface{}{"external_id": externalID})

	w.WriteHeader(http.StatusNoContent)
}
