package middleware

import (
	"net/http"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/permissions"
	"signpost/internal/pkg/errors"
	"signpost/internal/platform/auth"
)

// RequirePermission gates a route on the role permission table. Ownership
// checks on write actions happen in the handlers, where the resource has
// been loaded.
func RequirePermission(action permissions.Action) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
			if !ok {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
				return
			}

			result := permissions.Check(permissions.Role(claims.Role), action, nil, claims.UserID)
			if !result.Allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, result.Reason, nil)
				return
			}

			next(w, r)
		}
	}
}

// RequireAdmin gates workspace administration routes.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Not authenticated", nil)
			return
		}

		if !permissions.CanAccessAdmin(permissions.Role(claims.Role)) {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
			return
		}

		next(w, r)
	}
}
