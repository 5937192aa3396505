package handlers

import (
	"encoding/json"
	"net/http"

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

type ItemHandler struct {
	webhookCfg config.WebhooksConfig
	auditLog   *audit.Logger
}

func NewItemHandler(webhookCfg config.WebhooksConfig, auditLog *audit.Logger) *ItemHandler {
	return &ItemHandler{webhookCfg: webhookCfg, auditLog: auditLog}
}

func (h *ItemHandler) service(tenantCtx *database.TenantContext) *roadmaps.Service {
	return roadmaps.NewService(roadmaps.NewRepository(tenantCtx.DB))
}

func (h *ItemHandler) webhookService(tenantCtx *database.TenantContext) *webhooks.Service {
	return webhooks.NewService(webhooks.NewStore(tenantCtx.DB), nil, h.webhookCfg)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var input roadmaps.CreateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	input.RoadmapID = apiContext.RouteParam(r.Context(), "roadmap_id")

	item, err := h.service(tenantCtx).CreateItem(&input, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	h.webhookService(tenantCtx).TriggerItemCreated(r.Context(), tenantCtx.WorkspaceID, item)
	h.auditLog.Log(r.Context(), "item.created", "item", item.ID, map[string]interface{}{"roadmap_id": item.RoadmapID})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	roadmapID := apiContext.RouteParam(r.Context(), "roadmap_id")

	items, err := h.service(tenantCtx).ListItems(roadmapID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "item_id")

	item, err := h.service(tenantCtx).GetItem(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := apiContext.RouteParam(r.Context(), "item_id")

	svc := h.service(tenantCtx)
	existing, err := svc.GetItem(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}
	if !checkOwnership(w, claims, permissions.ItemUpdate, existing.CreatedBy) {
		return
	}

	var input roadmaps.UpdateItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	item, err := svc.UpdateItem(id, &input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.webhookService(tenantCtx).TriggerItemUpdated(r.Context(), tenantCtx.WorkspaceID, item, &input)
	h.auditLog.Log(r.Context(), "item.updated", "item", item.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// ChangeStatus moves an item through its lifecycle and notifies webhook
// subscribers with the previous and new status.
func (h *ItemHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := apiContext.RouteParam(r.Context(), "item_id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	svc := h.service(tenantCtx)
	existing, err := svc.GetItem(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}
	if !checkOwnership(w, claims, permissions.ItemUpdate, existing.CreatedBy) {
		return
	}

	item, previous, err := svc.ChangeItemStatus(id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if previous != item.Status {
		h.webhookService(tenantCtx).TriggerItemStatusChanged(r.Context(), tenantCtx.WorkspaceID, item, previous, item.Status)
		h.auditLog.Log(r.Context(), "item.status_changed", "item", item.ID, map[string]interface{}{
			"previous_status": previous,
			"new_status":      item.Status,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := apiContext.RouteParam(r.Context(), "item_id")

	svc := h.service(tenantCtx)
	existing, err := svc.GetItem(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}
	if !checkOwnership(w, claims, permissions.ItemDelete, existing.CreatedBy) {
		return
	}

	if _, err := svc.DeleteItem(id); err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to delete item", nil)
		return
	}

	h.webhookService(tenantCtx).TriggerItemDeleted(r.Context(), tenantCtx.WorkspaceID, id)
	h.auditLog.Log(r.Context(), "item.deleted", "item", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

// ListSubscribers exposes an item's notification list to workspace staff.
func (h *ItemHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "item_id")

	subs, err := h.service(tenantCtx).ListSubscribers(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}
