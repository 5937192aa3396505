package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "signpost/internal/api/context"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
)

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	workspaceRepo := repositories.NewWorkspaceRepository(db)

	cfg := config.TenantDBConfig{BasePath: "/tmp", MaxConnectionsPerWorkspace: 1}
	pool := database.NewTenantDBPool(cfg)

	mw := NewTenantMiddleware(workspaceRepo, pool)

	t.Run("Valid Tenant", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		claims := &auth.Claims{
			WorkspaceID: "ws_123",
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		rows := sqlmock.NewRows([]string{"id", "slug", "name", "db_file_path", "plan_tier", "created_at", "updated_at"}).
			AddRow("ws_123", "acme", "Acme", ":memory:", "pro", 1234567890, 1234567890)

		mock.ExpectQuery("SELECT (.+) FROM workspaces WHERE id = ?").
			WithArgs("ws_123").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
			if tenant.WorkspaceID != "ws_123" {
				t.Errorf("Expected WorkspaceID ws_123, got %s", tenant.WorkspaceID)
			}
			if tenant.DB == nil {
				t.Error("Expected DB connection, got nil")
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Unknown Workspace", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		claims := &auth.Claims{
			WorkspaceID: "ws_999",
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM workspaces WHERE id = ?").
			WithArgs("ws_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Missing Claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		rr := httptest.NewRecorder()
		handler := mw.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
