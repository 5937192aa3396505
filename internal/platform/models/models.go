package models

type Workspace struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	DBFilePath string `json:"db_file_path"`
	PlanTier   string `json:"plan_tier"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	DeletedAt  *int64 `json:"deleted_at,omitempty"`
}

type User struct {
	ID            string `json:"id"`
	WorkspaceID   string `json:"workspace_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	PasswordHash  string `json:"-"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"` // admin, editor, viewer
	AvatarURL     string `json:"avatar_url,omitempty"`
	LastLoginAt   *int64 `json:"last_login_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`

	Workspace *Workspace `json:"workspace,omitempty"`
}
