package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	apiContext "signpost/internal/api/context"
	"signpost/internal/pkg/errors"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
)

// APIKeyMiddleware authenticates programmatic callers (the FluxPoster
// pipeline) via hashed bearer keys and attaches the key's workspace as the
// tenant context.
type APIKeyMiddleware struct {
	keyRepo       *repositories.APIKeyRepository
	workspaceRepo *repositories.WorkspaceRepository
	dbPool        *database.TenantDBPool
}

func NewAPIKeyMiddleware(keyRepo *repositories.APIKeyRepository, workspaceRepo *repositories.WorkspaceRepository, dbPool *database.TenantDBPool) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		keyRepo:       keyRepo,
		workspaceRepo: workspaceRepo,
		dbPool:        dbPool,
	}
}

// RequireScope validates the bearer key and checks it carries the given
// scope before letting the request through.
func (m *APIKeyMiddleware) RequireScope(scope string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" || token == authHeader {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing API key", nil)
				return
			}

			hash := sha256.Sum256([]byte(token))
			key, err := m.keyRepo.GetByHash(hex.EncodeToString(hash[:]))
			if err != nil {
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to validate API key", nil)
				return
			}
			if key == nil || key.RevokedAt != nil {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid API key", nil)
				return
			}
			if key.ExpiresAt != nil && *key.ExpiresAt < time.Now().Unix() {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "API key expired", nil)
				return
			}

			hasScope := false
			for _, s := range key.Scopes {
				if s == scope {
					hasScope = true
					break
				}
			}
			if !hasScope {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "API key lacks required scope", nil)
				return
			}

			ws, err := m.workspaceRepo.GetByID(key.WorkspaceID)
			if err != nil || ws == nil {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Workspace not found", nil)
				return
			}

			db, err := m.dbPool.Get(ws.ID, ws.DBFilePath)
			if err != nil {
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
				return
			}

			// Best-effort usage tracking.
			m.keyRepo.UpdateLastUsed(key.ID)

			ctx := context.WithValue(r.Context(), apiContext.APIKey, key)
			ctx = context.WithValue(ctx, apiContext.Tenant, &database.TenantContext{
				WorkspaceID:   ws.ID,
				WorkspaceSlug: ws.Slug,
				DB:            db,
			})
			next(w, r.WithContext(ctx))
		}
	}
}
