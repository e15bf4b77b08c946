package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/franciscosanchezn/foodgram-api/internal/metrics"
	"github.com/franciscosanchezn/foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TokenIssuer issues and revokes access tokens
type TokenIssuer interface {
	IssueToken(ctx context.Context, userID uint) (string, error)
	RevokeToken(ctx context.Context, access string) error
	RevokeUserTokens(ctx context.Context, userID uint) error
}

// LoginRequest is the body of the token login endpoint
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries a freshly issued token
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// AuthController handles token login and logout
type AuthController interface {
	// Login exchanges email and password for a token
	Login(c *gin.Context)
	// Logout revokes the token of the request
	Logout(c *gin.Context)
}

type authController struct {
	userService services.UserService
	tokens      TokenIssuer
}

// NewAuthController creates a new instance of AuthController
func NewAuthController(userService services.UserService, tokens TokenIssuer) *authController {
	return &authController{
		userService: userService,
		tokens:      tokens,
	}
}

// Login godoc
// @Summary Obtain an auth token
// @Description Exchange email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Router /api/auth/token/login [post]
func (ac *authController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	user, err := ac.userService.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			log.WithFields(logrus.Fields{
				"email":     req.Email,
				"client_ip": ctx.ClientIP(),
			}).Warn("Login failed")
		}
		respondError(ctx, err)
		return
	}

	token, err := ac.tokens.IssueToken(ctx.Request.Context(), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.WithField("user_id", user.ID).Info("User logged in")
	ctx.JSON(http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout godoc
// @Summary Revoke the current token
// @Description Log out by revoking the token used for this request
// @Tags auth
// @Produce json
// @Success 204
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/auth/token/logout [post]
func (ac *authController) Logout(ctx *gin.Context) {
	if err := ac.tokens.RevokeToken(ctx.Request.Context(), middleware.AccessToken(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
