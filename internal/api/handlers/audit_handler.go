package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "signpost/internal/api/context"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
)

type AuditHandler struct {
	auditLog *audit.Logger
}

func NewAuditHandler(auditLog *audit.Logger) *AuditHandler {
	return &AuditHandler{auditLog: auditLog}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.auditLog.List(claims.WorkspaceID, limit)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
