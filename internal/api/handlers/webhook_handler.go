package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/webhooks"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
)

type WebhookHandler struct {
	webhookCfg config.WebhooksConfig
	auditLog   *audit.Logger
}

func NewWebhookHandler(webhookCfg config.WebhooksConfig, auditLog *audit.Logger) *WebhookHandler {
	return &WebhookHandler{webhookCfg: webhookCfg, auditLog: auditLog}
}

func (h *WebhookHandler) service(tenantCtx *database.TenantContext) *webhooks.Service {
	return webhooks.NewService(webhooks.NewStore(tenantCtx.DB), nil, h.webhookCfg)
}

func writeWebhookError(w http.ResponseWriter, err error) {
	var verr *webhooks.ValidationError
	if errors.As(err, &verr) {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, verr.Fields.First(), verr.Fields)
		return
	}
	apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
}

// Create registers a webhook. The signing secret is included in this
// response only; all later reads redact it.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)

	var input webhooks.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	input.WorkspaceID = tenantCtx.WorkspaceID

	webhook, err := h.service(tenantCtx).Create(input)
	if err != nil {
		writeWebhookError(w, err)
		return
	}

	h.auditLog.Log(r.Context(), "webhook.created", "webhook", webhook.ID, map[string]interface{}{"url": webhook.URL})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)

	list, err := h.service(tenantCtx).FindByWorkspace(tenantCtx.WorkspaceID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	redacted := make([]*webhooks.Webhook, 0, len(list))
	for _, wh := range list {
		redacted = append(redacted, wh.Redacted())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(redacted)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "webhook_id")

	webhook, err := h.service(tenantCtx).FindByID(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if webhook == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook.Redacted())
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "webhook_id")

	var input webhooks.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	webhook, err := h.service(tenantCtx).Update(id, input)
	if err != nil {
		writeWebhookError(w, err)
		return
	}
	if webhook == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	h.auditLog.Log(r.Context(), "webhook.updated", "webhook", id, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook.Redacted())
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "webhook_id")

	if err := h.service(tenantCtx).Delete(id); err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to delete webhook", nil)
		return
	}

	h.auditLog.Log(r.Context(), "webhook.deleted", "webhook", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

// RegenerateSecret rotates the signing secret and returns the new value
// once.
func (h *WebhookHandler) RegenerateSecret(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "webhook_id")

	svc := h.service(tenantCtx)
	existing, err := svc.FindByID(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	secret, err := svc.RegenerateSecret(id)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to regenerate secret", nil)
		return
	}

	h.auditLog.Log(r.Context(), "webhook.secret_regenerated", "webhook", id, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"secret": secret})
}

func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	id := apiContext.RouteParam(r.Context(), "webhook_id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	deliveries, err := h.service(tenantCtx).DeliveryHistory(id, limit)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deliveries)
}
