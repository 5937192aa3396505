package middleware

import (
	"context"
	"net/http"

	apiContext "signpost/internal/api/context"
	"signpost/internal/pkg/errors"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
)

type TenantMiddleware struct {
	workspaceRepo *repositories.WorkspaceRepository
	dbPool        *database.TenantDBPool
}

func NewTenantMiddleware(workspaceRepo *repositories.WorkspaceRepository, dbPool *database.TenantDBPool) *TenantMiddleware {
	return &TenantMiddleware{
		workspaceRepo: workspaceRepo,
		dbPool:        dbPool,
	}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		ws, err := m.workspaceRepo.GetByID(claims.WorkspaceID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load workspace", nil)
			return
		}
		if ws == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Workspace not found", nil)
			return
		}

		db, err := m.dbPool.Get(ws.ID, ws.DBFilePath)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &database.TenantContext{
			WorkspaceID:   ws.ID,
			WorkspaceSlug: ws.Slug,
			DB:            db,
		})

		next(w, r.WithContext(ctx))
	}
}

// ResolveBySlug attaches a tenant context for unauthenticated public routes
// using the :workspace path segment instead of token claims.
func (m *TenantMiddleware) ResolveBySlug(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := apiContext.RouteParam(r.Context(), "workspace")
		if slug == "" {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Workspace not found", nil)
			return
		}

		ws, err := m.workspaceRepo.GetBySlug(slug)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load workspace", nil)
			return
		}
		if ws == nil {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Workspace not found", nil)
			return
		}

		db, err := m.dbPool.Get(ws.ID, ws.DBFilePath)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &database.TenantContext{
			WorkspaceID:   ws.ID,
			WorkspaceSlug: ws.Slug,
			DB:            db,
		})

		next(w, r.WithContext(ctx))
	}
}
