package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/franciscosanchezn/foodgram-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// errorMapping ties a service error to its HTTP status and API error code
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrRecipeNotFound, http.StatusNotFound, models.ErrRecipeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, models.ErrUserNotFound},
	{services.ErrTagNotFound, http.StatusNotFound, models.ErrTagNotFound},
	{services.ErrIngredientNotFound, http.StatusNotFound, models.ErrIngredientNotFound},
	{services.ErrForbidden, http.StatusForbidden, models.ErrRecipeForbidden},
	{services.ErrAlreadyInFavorites, http.StatusBadRequest, models.ErrAlreadyInFavorites},
	{services.ErrNotInFavorites, http.StatusBadRequest, models.ErrNotInFavorites},
	{services.ErrAlreadyInShoppingCart, http.StatusBadRequest, models.ErrAlreadyInShoppingCart},
	{services.ErrNotInShoppingCart, http.StatusBadRequest, models.ErrNotInShoppingCart},
	{services.ErrShoppingCartEmpty, http.StatusBadRequest, models.ErrShoppingCartEmpty},
	{services.ErrSelfSubscription, http.StatusBadRequest, models.ErrSelfSubscription},
	{services.ErrAlreadySubscribed, http.StatusBadRequest, models.ErrAlreadySubscribed},
	{services.ErrNotSubscribed, http.StatusBadRequest, models.ErrNotSubscribed},
	{services.ErrInvalidCredentials, http.StatusBadRequest, models.ErrInvalidCredentials},
}

// respondError writes the API error matching err. Unknown errors are logged and
// reported as 500 without their message.
func respondError(ctx *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]interface{}, len(verr.Fields))
		for field, message := range verr.Fields {
			details[field] = message
		}
		ctx.AbortWithStatusJSON(http.StatusBadRequest,
			models.NewAPIError(models.ErrValidationFailed, "Validation failed", details))
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			ctx.AbortWithStatusJSON(m.status, models.NewAPIError(m.code, m.err.Error()))
			return
		}
	}

	log.WithError(err).WithFields(logrus.Fields{
		"method": ctx.Request.Method,
		"path":   ctx.FullPath(),
	}).Error("Unhandled error")
	_ = ctx.Error(err)
	ctx.AbortWithStatusJSON(http.StatusInternalServerError,
		models.NewAPIError(models.ErrInternalServer, "Internal server error"))
}

// respondBindingError reports a malformed or invalid request body
func respondBindingError(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest,
		models.NewAPIError(models.ErrValidationFailed, "Validation failed", validation.FieldErrors(err)))
}

func respondNotFound(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, message))
}

// pathID parses the :id path parameter; a malformed id is reported as 404
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respondNotFound(ctx, "Not found")
		return 0, false
	}
	return uint(id), true
}

// viewerID is the authenticated user id, or 0 for anonymous requests
func viewerID(ctx *gin.Context) uint {
	id, _ := middleware.UserID(ctx)
	return id
}
