package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"signpost/internal/pkg/errors"
	"signpost/internal/pkg/validator"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
	"signpost/internal/platform/models"
	"signpost/internal/platform/repositories"
)

type AuthHandler struct {
	userRepo      *repositories.UserRepository
	workspaceRepo *repositories.WorkspaceRepository
	dbPool        *database.TenantDBPool
	tenantCfg     config.TenantDBConfig
	tokenSvc      *auth.TokenService
}

func NewAuthHandler(userRepo *repositories.UserRepository, workspaceRepo *repositories.WorkspaceRepository, dbPool *database.TenantDBPool, tenantCfg config.TenantDBConfig, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
		dbPool:        dbPool,
		tenantCfg:     tenantCfg,
		tokenSvc:      tokenSvc,
	}
}

type SignupRequest struct {
	WorkspaceName string `json:"workspace_name"`
	WorkspaceSlug string `json:"workspace_slug"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
}

type SignupResponse struct {
	User         *models.User      `json:"user"`
	Workspace    *models.Workspace `json:"workspace"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

// Signup provisions a new workspace with its tenant database and registers
// the caller as the workspace admin.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	var errs validator.Errors
	if req.WorkspaceName == "" {
		errs.Add("workspace_name", "Workspace name is required")
	}
	if !validator.IsValidSlug(req.WorkspaceSlug) {
		errs.Add("workspace_slug", "Slug must be 3-50 lowercase alphanumeric characters with hyphens")
	}
	if !validator.IsValidEmail(req.Email) {
		errs.Add("email", "A valid email address is required")
	}
	if len(req.Password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if !errs.Empty() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, errs.First(), errs)
		return
	}

	existingUser, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existingUser != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	existingWs, err := h.workspaceRepo.GetBySlug(req.WorkspaceSlug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existingWs != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Workspace slug is already in use", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	wsID := "ws_" + uuid.NewString()
	workspace := &models.Workspace{
		ID:         wsID,
		Slug:       req.WorkspaceSlug,
		Name:       req.WorkspaceName,
		DBFilePath: filepath.Join(h.tenantCfg.BasePath, fmt.Sprintf("%s.db", wsID)),
		PlanTier:   "free",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	user := &models.User{
		ID:            "usr_" + uuid.NewString(),
		WorkspaceID:   workspace.ID,
		Email:         req.Email,
		EmailVerified: false,
		PasswordHash:  string(hashedPassword),
		FullName:      req.FullName,
		Role:          "admin",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := h.workspaceRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if err := h.workspaceRepo.CreateTx(tx, workspace); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create workspace", nil)
		return
	}
	if err := h.userRepo.CreateTx(tx, user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}
	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	// Provision the tenant database.
	tenantDB, err := h.dbPool.Get(workspace.ID, workspace.DBFilePath)
	if err == nil {
		err = database.InitTenantSchema(tenantDB)
	}
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to provision workspace database", nil)
		return
	}

	user.Workspace = workspace

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, workspace.ID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SignupResponse{
		User:         user,
		Workspace:    workspace,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.DeletedAt != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.WorkspaceID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	h.userRepo.UpdateLastLogin(user.ID)

	if ws, err := h.workspaceRepo.GetByID(user.WorkspaceID); err == nil {
		user.Workspace = ws
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID, err := h.tokenSvc.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}

	// Re-read the user so role or workspace changes take effect on refresh.
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.DeletedAt != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User not found", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.WorkspaceID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RefreshResponse{AccessToken: accessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; clients discard them. Kept as an endpoint so a
	// future denylist has somewhere to live.
	w.WriteHeader(http.StatusNoContent)
}
