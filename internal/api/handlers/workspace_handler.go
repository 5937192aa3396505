package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "signpost/internal/api/context"
	"signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/repositories"
)

type WorkspaceHandler struct {
	workspaceRepo *repositories.WorkspaceRepository
	auditLog      *audit.Logger
}

func NewWorkspaceHandler(workspaceRepo *repositories.WorkspaceRepository, auditLog *audit.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceRepo: workspaceRepo, auditLog: auditLog}
}

func (h *WorkspaceHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	ws, err := h.workspaceRepo.GetByID(claims.WorkspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if ws == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Workspace not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws)
}

func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}

	ws, err := h.workspaceRepo.GetByID(claims.WorkspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if ws == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Workspace not found", nil)
		return
	}

	ws.Name = req.Name
	if err := h.workspaceRepo.Update(ws); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update workspace", nil)
		return
	}

	h.auditLog.Log(r.Context(), "workspace.updated", "workspace", ws.ID, map[string]interface{}{"name": ws.Name})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws)
}
