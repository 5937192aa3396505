package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apiContext "signpost/internal/api/context"
	"signpost/internal/pkg/errors"
	"signpost/internal/pkg/validator"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/models"
	"signpost/internal/platform/repositories"
)

var validRoles = map[string]struct{}{
	"admin":  {},
	"editor": {},
	"viewer": {},
}

// UserHandler covers workspace member management. Admins add members
// directly with a role and an initial password.
type UserHandler struct {
	userRepo *repositories.UserRepository
	auditLog *audit.Logger
}

func NewUserHandler(userRepo *repositories.UserRepository, auditLog *audit.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, auditLog: auditLog}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	users, err := h.userRepo.ListByWorkspace(claims.WorkspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	userID := apiContext.RouteParam(r.Context(), "user_id")

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.WorkspaceID != claims.WorkspaceID {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type AddMemberRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *UserHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	var errs validator.Errors
	if !validator.IsValidEmail(req.Email) {
		errs.Add("email", "A valid email address is required")
	}
	if len(req.Password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if _, ok := validRoles[req.Role]; !ok {
		errs.Add("role", "Role must be admin, editor or viewer")
	}
	if !errs.Empty() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, errs.First(), errs)
		return
	}

	existing, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:           "usr_" + uuid.NewString(),
		WorkspaceID:  claims.WorkspaceID,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userRepo.Create(user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}

	h.auditLog.Log(r.Context(), "user.added", "user", user.ID, map[string]interface{}{"role": user.Role})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	userID := apiContext.RouteParam(r.Context(), "user_id")

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if _, ok := validRoles[req.Role]; !ok {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Role must be admin, editor or viewer", nil)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.WorkspaceID != claims.WorkspaceID {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}
	if user.ID == claims.UserID {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Cannot change your own role", nil)
		return
	}

	if err := h.userRepo.UpdateRole(userID, req.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update role", nil)
		return
	}
	user.Role = req.Role

	h.auditLog.Log(r.Context(), "user.role_changed", "user", userID, map[string]interface{}{"role": req.Role})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	userID := apiContext.RouteParam(r.Context(), "user_id")

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.WorkspaceID != claims.WorkspaceID {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}
	if user.ID == claims.UserID {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Cannot remove yourself", nil)
		return
	}

	if err := h.userRepo.SoftDelete(userID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove user", nil)
		return
	}

	h.auditLog.Log(r.Context(), "user.removed", "user", userID, nil)

	w.WriteHeader(http.StatusNoContent)
}
