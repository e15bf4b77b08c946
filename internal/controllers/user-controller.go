package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RegisterRequest is the body of user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// SetPasswordRequest is the body of the password change endpoint
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// UserController handles accounts and subscriptions
type UserController interface {
	// Register creates an account
	Register(c *gin.Context)
	// ListUsers returns a page of users
	ListUsers(c *gin.Context)
	// Me returns the authenticated user
	Me(c *gin.Context)
	// GetUser returns a user by id
	GetUser(c *gin.Context)
	// SetPassword changes the password of the authenticated user
	SetPassword(c *gin.Context)
	// Subscribe follows an author
	Subscribe(c *gin.Context)
	// Unsubscribe stops following an author
	Unsubscribe(c *gin.Context)
	// Subscriptions lists the followed authors
	Subscriptions(c *gin.Context)
}

type userController struct {
	users         services.UserService
	subscriptions services.SubscriptionService
	tokens        TokenIssuer
	presenter     *Presenter
	paginator     *Paginator
}

// NewUserController creates a new instance of UserController
func NewUserController(users services.UserService, subscriptions services.SubscriptionService, tokens TokenIssuer,
	presenter *Presenter, paginator *Paginator) *userController {
	return &userController{
		users:         users,
		subscriptions: subscriptions,
		tokens:        tokens,
		presenter:     presenter,
		paginator:     paginator,
	}
}

// Register godoc
// @Summary Register a user
// @Description Create an account; the email is the login
// @Tags users
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Account"
// @Success 201 {object} UserCreatedResponse
// @Failure 400 {object} models.APIError
// @Router /api/users [post]
func (uc *userController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	user, err := uc.users.CreateUser(ctx.Request.Context(), services.RegisterUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, UserCreatedResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// ListUsers godoc
// @Summary List users
// @Description Get a page of users ordered by username
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Page[UserResponse]
// @Failure 404 {object} models.APIError
// @Router /api/users [get]
func (uc *userController) ListUsers(ctx *gin.Context) {
	req, ok := uc.paginator.Request(ctx)
	if !ok {
		return
	}

	users, total, err := uc.users.ListUsers(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !uc.paginator.InRange(ctx, req, total) {
		return
	}

	results, err := uc.presenter.Users(ctx.Request.Context(), viewerID(ctx), users)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, NewPage(uc.paginator, ctx, req, total, results))
}

// Me godoc
// @Summary Current user
// @Description Get the profile of the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/me [get]
func (uc *userController) Me(ctx *gin.Context) {
	user, err := uc.users.GetUserByID(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	// nobody follows themselves
	ctx.JSON(http.StatusOK, userResponse(*user, false))
}

// GetUser godoc
// @Summary Get user by ID
// @Description Get a user profile with the subscription flag of the requester
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} models.APIError
// @Router /api/users/{id} [get]
func (uc *userController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	user, err := uc.users.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	response, err := uc.presenter.User(ctx.Request.Context(), viewerID(ctx), *user)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// SetPassword godoc
// @Summary Change password
// @Description Replace the password after checking the current one; every token of the user is revoked
// @Tags users
// @Accept json
// @Param passwords body SetPasswordRequest true "Passwords"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/set_password [post]
func (uc *userController) SetPassword(ctx *gin.Context) {
	var req SetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	userID := viewerID(ctx)
	if err := uc.users.ChangePassword(ctx.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(ctx, err)
		return
	}
	if err := uc.tokens.RevokeUserTokens(ctx.Request.Context(), userID); err != nil {
		respondError(ctx, err)
		return
	}

	log.WithField("user_id", userID).Info("Password changed")
	ctx.Status(http.StatusNoContent)
}

// Subscribe godoc
// @Summary Subscribe to an author
// @Description Follow an author and get their profile with recipes
// @Tags users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Maximum number of recipes in the response"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [post]
func (uc *userController) Subscribe(ctx *gin.Context) {
	authorID, ok := pathID(ctx)
	if !ok {
		return
	}

	userID := viewerID(ctx)
	author, err := uc.subscriptions.Subscribe(ctx.Request.Context(), userID, authorID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	responses, err := uc.presenter.Subscriptions(ctx.Request.Context(), userID, []models.User{*author}, recipesLimit(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, responses[0])
}

// Unsubscribe godoc
// @Summary Unsubscribe from an author
// @Tags users
// @Param id path int true "Author ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [delete]
func (uc *userController) Unsubscribe(ctx *gin.Context) {
	authorID, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := uc.subscriptions.Unsubscribe(ctx.Request.Context(), viewerID(ctx), authorID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary List subscriptions
// @Description Get a page of followed authors with their latest recipes
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Maximum number of recipes per author"
// @Success 200 {object} Page[SubscriptionResponse]
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/subscriptions [get]
func (uc *userController) Subscriptions(ctx *gin.Context) {
	req, ok := uc.paginator.Request(ctx)
	if !ok {
		return
	}

	userID := viewerID(ctx)
	authors, total, err := uc.subscriptions.ListSubscriptions(ctx.Request.Context(), userID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !uc.paginator.InRange(ctx, req, total) {
		return
	}

	results, err := uc.presenter.Subscriptions(ctx.Request.Context(), userID, authors, recipesLimit(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	log.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(results),
	}).Debug("Subscriptions listed")
	ctx.JSON(http.StatusOK, NewPage(uc.paginator, ctx, req, total, results))
}

// recipesLimit reads recipes_limit; anything but a positive integer means no limit
func recipesLimit(ctx *gin.Context) int {
	limit, err := strconv.Atoi(ctx.Query("recipes_limit"))
	if err != nil || limit < 1 {
		return 0
	}
	return limit
}
