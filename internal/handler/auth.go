package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

type userDirectory interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error)
	UpdatePassword(ctx context.Context, username, newPassword string) error
}

type loginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type AuthHandler struct {
	users         userDirectory
	limiter       loginLimiter
	jwtSecret     string
	jwtExpiry     time.Duration
	adminUsername string
}

func NewAuthHandler(users userDirectory, limiter loginLimiter, jwtSecret string, jwtExpiry time.Duration, adminUsername string) *AuthHandler {
	return &AuthHandler{
		users:         users,
		limiter:       limiter,
		jwtSecret:     jwtSecret,
		jwtExpiry:     jwtExpiry,
		adminUsername: adminUsername,
	}
}

type registerRequest struct {
	Username   string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FullName   string `json:"full_name" validate:"required,max=100"`
	IDDocument string `json:"id_document" validate:"omitempty,max=64"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
	User  userDTO     `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if h.adminUsername != "" && strings.EqualFold(req.Username, h.adminUsername) {
		RespondAppError(w, ErrUsernameTaken, nil)
		return
	}

	user, err := h.users.CreateUser(r.Context(), domain.UserProfile{
		Username:   req.Username,
		Password:   req.Password,
		FullName:   req.FullName,
		IDDocument: req.IDDocument,
		Phone:      req.Phone,
		Email:      req.Email,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info("user registered", "user_id", user.ID)
	RespondSuccess(w, http.StatusCreated, toUserDTO(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	logger := logging.FromContext(r.Context())

	allowed, err := h.limiter.Allow(r.Context(), strings.ToLower(req.Username))
	if err != nil {
		logger.Warn("login throttle unavailable, allowing attempt", "error", err)
		allowed = true
	}
	if !allowed {
		RespondAppError(w, ErrTooManyAttempts, nil)
		return
	}

	ok, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if !ok {
		logger.Info("login rejected", "username", req.Username)
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		logger.Error("failed to sign token", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token: token,
		Role:  auth.RoleFor(user.Username, h.adminUsername),
		User:  toUserDTO(user),
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req changePasswordRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	valid, err := h.users.Authenticate(r.Context(), identity.Username, req.CurrentPassword)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if !valid {
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), identity.Username, req.NewPassword); err != nil {
		RespondDomainError(w, err)
		return
	}

	logging.FromContext(r.Context()).Info("password changed")
	w.WriteHeader(http.StatusNoContent)
}
