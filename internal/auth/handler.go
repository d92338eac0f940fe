package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/pkg/response"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Provider   string `json:"provider" binding:"required,oneof=google facebook guest"`
	Credential string `json:"credential"`
	Role       string `json:"role" binding:"omitempty,oneof=admin user ADMIN USER"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// Authenticator resolves a provider credential into a profile.
type Authenticator interface {
	Login(ctx context.Context, provider models.Provider, credential string, role models.Role) (models.UserProfile, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	identity Authenticator
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(identity Authenticator, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{identity: identity, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	provider, _ := models.ParseProvider(req.Provider)
	role := models.ParseRole(req.Role)
	if provider == models.ProviderGuest && role == models.RoleAdmin {
		response.BadRequest(c, "admins must sign in with google or facebook")
		return
	}

	profile, err := h.identity.Login(c.Request.Context(), provider, req.Credential, role)
	if err != nil {
		h.logger.Warn("login failed", zap.String("provider", req.Provider), zap.Error(err))
		response.Unauthorized(c, "login failed")
		return
	}
	token, err := h.jwt.Generate(profile)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: profile})
}
