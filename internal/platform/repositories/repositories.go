package repositories

import (
	"database/sql"
	"time"

	"signpost/internal/platform/models"
)

type WorkspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *WorkspaceRepository) CreateTx(tx *sql.Tx, ws *models.Workspace) error {
	_, err := tx.Exec(`
		INSERT INTO workspaces (id, slug, name, db_file_path, plan_tier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ws.ID, ws.Slug, ws.Name, ws.DBFilePath, ws.PlanTier, ws.CreatedAt, ws.UpdatedAt)
	return err
}

func (r *WorkspaceRepository) Create(ws *models.Workspace) error {
	_, err := r.db.Exec(`
		INSERT INTO workspaces (id, slug, name, db_file_path, plan_tier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ws.ID, ws.Slug, ws.Name, ws.DBFilePath, ws.PlanTier, ws.CreatedAt, ws.UpdatedAt)
	return err
}

func (r *WorkspaceRepository) GetByID(id string) (*models.Workspace, error) {
	row := r.db.QueryRow(`
		SELECT id, slug, name, db_file_path, plan_tier, created_at, updated_at
		FROM workspaces WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanWorkspace(row)
}

func (r *WorkspaceRepository) GetBySlug(slug string) (*models.Workspace, error) {
	row := r.db.QueryRow(`
		SELECT id, slug, name, db_file_path, plan_tier, created_at, updated_at
		FROM workspaces WHERE slug = ? AND deleted_at IS NULL
	`, slug)
	return scanWorkspace(row)
}

func (r *WorkspaceRepository) Update(ws *models.Workspace) error {
	ws.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE workspaces SET name = ?, plan_tier = ?, updated_at = ? WHERE id = ?
	`, ws.Name, ws.PlanTier, ws.UpdatedAt, ws.ID)
	return err
}

func (r *WorkspaceRepository) List() ([]*models.Workspace, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, name, db_file_path, plan_tier, created_at, updated_at
		FROM workspaces WHERE deleted_at IS NULL ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func scanWorkspace(s interface {
	Scan(dest ...interface{}) error
}) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.DBFilePath, &ws.PlanTier, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateTx(tx *sql.Tx, user *models.User) error {
	_, err := tx.Exec(`
		INSERT INTO users (id, workspace_id, email, email_verified, password_hash, full_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.WorkspaceID, user.Email, user.EmailVerified, user.PasswordHash, user.FullName, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, workspace_id, email, email_verified, password_hash, full_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.WorkspaceID, user.Email, user.EmailVerified, user.PasswordHash, user.FullName, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	row := r.db.QueryRow(`
		SELECT id, workspace_id, email, email_verified, password_hash, full_name, role, last_login_at, created_at, updated_at
		FROM users WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	row := r.db.QueryRow(`
		SELECT id, workspace_id, email, email_verified, password_hash, full_name, role, last_login_at, created_at, updated_at
		FROM users WHERE email = ? AND deleted_at IS NULL
	`, email)
	return scanUser(row)
}

func (r *UserRepository) ListByWorkspace(workspaceID string) ([]*models.User, error) {
	rows, err := r.db.Query(`
		SELECT id, workspace_id, email, email_verified, password_hash, full_name, role, last_login_at, created_at, updated_at
		FROM users WHERE workspace_id = ? AND deleted_at IS NULL ORDER BY created_at
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateRole(id, role string) error {
	_, err := r.db.Exec(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().Unix(), id)
	return err
}

func (r *UserRepository) UpdateLastLogin(id string) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func (r *UserRepository) SoftDelete(id string) error {
	_, err := r.db.Exec(`UPDATE users SET deleted_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func scanUser(s interface {
	Scan(dest ...interface{}) error
}) (*models.User, error) {
	var user models.User
	var lastLoginAt sql.NullInt64

	err := s.Scan(&user.ID, &user.WorkspaceID, &user.Email, &user.EmailVerified, &user.PasswordHash,
		&user.FullName, &user.Role, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Int64
	}
	return &user, nil
}
