package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	RegNumber string `json:"reg_number" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Surname   string `json:"surname" binding:"required"`
	Role      string `json:"role"` // ORGANIZER or STUDENT, defaults to STUDENT
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	RegNumber string `json:"reg_number" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

// Directory receives every registered user so broadcasts reach them.
type Directory interface {
	AddUser(ctx context.Context, u models.User) error
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	accounts  Accounts
	directory Directory
	jwt       *JWTService
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(accounts Accounts, directory Directory, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accounts: accounts, directory: directory, jwt: jwt, logger: logger}
}

func parseRole(s string) (models.Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(models.RoleStudent):
		return models.RoleStudent, true
	case string(models.RoleOrganizer):
		return models.RoleOrganizer, true
	default:
		return "", false
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		response.BadRequest(c, "invalid role")
		return
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	account := &models.Account{
		ID:           strings.TrimSpace(req.RegNumber),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Role:         role,
	}
	ctx := c.Request.Context()
	if err := h.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAccountExists) {
			response.Conflict(c, "registration number already registered")
			return
		}
		h.logger.Error("create account failed", zap.Error(err), zap.String("user_id", account.ID))
		response.Internal(c, "failed to create user")
		return
	}
	if err := h.directory.AddUser(ctx, account.Directory()); err != nil && !errors.Is(err, scheduling.ErrUserExists) {
		h.logger.Error("add user to directory failed", zap.Error(err), zap.String("user_id", account.ID))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(account.ID, string(account.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: *account})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), strings.TrimSpace(req.RegNumber))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			h.logger.Error("load account failed", zap.Error(err))
		}
		response.Unauthorized(c, "invalid registration number or password")
		return
	}
	if !utils.CheckPassword(req.Password, account.PasswordHash) {
		response.Unauthorized(c, "invalid registration number or password")
		return
	}

	token, err := h.jwt.Generate(account.ID, string(account.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: *account})
}
