package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/permissions"
	"signpost/internal/platform/auth"
)

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest("POST", "/", nil)
	claims := &auth.Claims{UserID: "usr_1", WorkspaceID: "ws_1", Role: role}
	return req.WithContext(context.WithValue(req.Context(), apiContext.Claims, claims))
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		action   permissions.Action
		wantCode int
	}{
		{"Admin Creates Item", "admin", permissions.ItemCreate, http.StatusOK},
		{"Editor Creates Item", "editor", permissions.ItemCreate, http.StatusOK},
		{"Viewer Creates Item", "viewer", permissions.ItemCreate, http.StatusForbidden},
		{"Viewer Reads Roadmap", "viewer", permissions.RoadmapRead, http.StatusOK},
		{"Editor Changes Settings", "editor", permissions.AdminSettings, http.StatusForbidden},
		{"Admin Changes Settings", "admin", permissions.AdminSettings, http.StatusOK},
		{"Unknown Role", "superuser", permissions.RoadmapRead, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequirePermission(tt.action)(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, requestWithRole(tt.role))

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestRequirePermission_NoClaims(t *testing.T) {
	handler := RequirePermission(permissions.ItemCreate)(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	for role, want := range map[string]int{
		"admin":  http.StatusOK,
		"editor": http.StatusForbidden,
		"viewer": http.StatusForbidden,
	} {
		handler := RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestWithRole(role))

		if rr.Code != want {
			t.Errorf("role %s: status = %d, want %d", role, rr.Code, want)
		}
	}
}
