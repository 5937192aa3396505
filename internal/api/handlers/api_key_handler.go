package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	apiContext "signpost/internal/api/context"
	"signpost/internal/pkg/errors"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/models"
	"signpost/internal/platform/repositories"
)

// ScopeIngestWrite authorizes the FluxPoster publishing endpoints.
const ScopeIngestWrite = "ingest:write"

var validScopes = map[string]struct{}{
	ScopeIngestWrite: {},
}

type APIKeyHandler struct {
	keyRepo  *repositories.APIKeyRepository
	auditLog *audit.Logger
}

func NewAPIKeyHandler(keyRepo *repositories.APIKeyRepository, auditLog *audit.Logger) *APIKeyHandler {
	return &APIKeyHandler{keyRepo: keyRepo, auditLog: auditLog}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req struct {
		Name          string   `json:"name"`
		Scopes        []string `json:"scopes"`
		ExpiresInDays int      `json:"expires_in_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name is required", nil)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{ScopeIngestWrite}
	}
	for _, scope := range req.Scopes {
		if _, ok := validScopes[scope]; !ok {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, fmt.Sprintf("Unknown scope %q", scope), nil)
			return
		}
	}

	// Generate key; the raw value is returned once and only its hash stored.
	rawKey := fmt.Sprintf("sp_live_%s", uuid.NewString())
	hash := sha256.Sum256([]byte(rawKey))

	apiKey := &models.APIKey{
		WorkspaceID: claims.WorkspaceID,
		UserID:      claims.UserID,
		Name:        req.Name,
		KeyHash:     hex.EncodeToString(hash[:]),
		KeyPrefix:   rawKey[:11] + "...",
		Scopes:      req.Scopes,
	}
	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		apiKey.ExpiresAt = &exp
	}

	if err := h.keyRepo.Create(apiKey); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create API key", nil)
		return
	}

	h.auditLog.Log(r.Context(), "api_key.created", "api_key", apiKey.ID, map[string]interface{}{"name": apiKey.Name})

	response := struct {
		ID        string   `json:"id"`
		Key       string   `json:"key"`
		Name      string   `json:"name"`
		Scopes    []string `json:"scopes"`
		CreatedAt int64    `json:"created_at"`
	}{
		ID:        apiKey.ID,
		Key:       rawKey,
		Name:      apiKey.Name,
		Scopes:    apiKey.Scopes,
		CreatedAt: apiKey.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	keys, err := h.keyRepo.ListByWorkspace(claims.WorkspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	keyID := apiContext.RouteParam(r.Context(), "key_id")

	if err := h.keyRepo.Revoke(keyID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke API key", nil)
		return
	}

	h.auditLog.Log(r.Context(), "api_key.revoked", "api_key", keyID, nil)

	w.WriteHeader(http.StatusNoContent)
}
