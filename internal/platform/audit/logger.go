package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	apiContext "signpost/internal/api/context"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/database"
)

type Entry struct {
	ID           string                 `json:"id"`
	WorkspaceID  string                 `json:"workspace_id"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    int64                  `json:"created_at"`
}

type Logger struct {
	globalDB *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{globalDB: db}
}

// Log records an audit entry asynchronously. Audit writes are best effort
// and never surface errors to the calling operation.
func (l *Logger) Log(ctx context.Context, action, resourceType, resourceID string, metadata map[string]interface{}) {
	var workspaceID, userID string

	if claims, ok := ctx.Value(apiContext.Claims).(*auth.Claims); ok {
		workspaceID = claims.WorkspaceID
		userID = claims.UserID
	}
	if tenant, ok := ctx.Value(apiContext.Tenant).(*database.TenantContext); ok && workspaceID == "" {
		workspaceID = tenant.WorkspaceID
	}

	entry := &Entry{
		ID:           "audit_" + uuid.New().String(),
		WorkspaceID:  workspaceID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().Unix(),
	}

	metaJSON, _ := json.Marshal(metadata)

	go func() {
		query := `
			INSERT INTO audit_logs (id, workspace_id, user_id, action, resource_type, resource_id, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := l.globalDB.Exec(query, entry.ID, entry.WorkspaceID, entry.UserID, entry.Action,
			entry.ResourceType, entry.ResourceID, string(metaJSON), entry.CreatedAt); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit write failed")
		}
	}()
}

// List returns recent entries for a workspace, newest first.
func (l *Logger) List(workspaceID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := l.globalDB.Query(`
		SELECT id, workspace_id, user_id, action, resource_type, resource_id, metadata, created_at
		FROM audit_logs WHERE workspace_id = ? ORDER BY created_at DESC LIMIT ?
	`, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var metaStr string
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &metaStr, &e.CreatedAt); err != nil {
			return nil, err
		}
		if metaStr != "" {
			json.Unmarshal([]byte(metaStr), &e.Metadata)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
