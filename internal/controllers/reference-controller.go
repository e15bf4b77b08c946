package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TagRequest is the body of tag creation
type TagRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Color string `json:"color" binding:"required,hexcolor,len=7"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

// IngredientRequest is the body of ingredient creation
type IngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

// ReferenceController serves tags and ingredients
type ReferenceController interface {
	// ListTags returns every tag
	ListTags(c *gin.Context)
	// GetTag returns a tag by id
	GetTag(c *gin.Context)
	// CreateTag adds a tag
	CreateTag(c *gin.Context)
	// ListIngredients returns ingredients, optionally by name prefix
	ListIngredients(c *gin.Context)
	// GetIngredient returns an ingredient by id
	GetIngredient(c *gin.Context)
	// CreateIngredient adds an ingredient
	CreateIngredient(c *gin.Context)
}

type referenceController struct {
	service services.ReferenceService
}

// NewReferenceController creates a new instance of ReferenceController
func NewReferenceController(service services.ReferenceService) *referenceController {
	return &referenceController{service: service}
}

// ListTags godoc
// @Summary List tags
// @Description Get every tag ordered by name
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /api/tags [get]
func (rc *referenceController) ListTags(ctx *gin.Context) {
	tags, err := rc.service.ListTags(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	ctx.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get tag by ID
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Tag
// @Failure 404 {object} models.APIError
// @Router /api/tags/{id} [get]
func (rc *referenceController) GetTag(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	tag, err := rc.service.GetTag(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tag)
}

// CreateTag godoc
// @Summary Create a tag
// @Description Add a tag; name, color and slug must be unused. Admin only.
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body TagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/tags [post]
func (rc *referenceController) CreateTag(ctx *gin.Context) {
	var req TagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	tag, err := rc.service.CreateTag(ctx.Request.Context(), models.Tag{
		Name:  req.Name,
		Color: req.Color,
		Slug:  req.Slug,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, tag)
}

// ListIngredients godoc
// @Summary List ingredients
// @Description Get ingredients ordered by name; name filters by case-insensitive prefix
// @Tags ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} models.Ingredient
// @Router /api/ingredients [get]
func (rc *referenceController) ListIngredients(ctx *gin.Context) {
	ingredients, err := rc.service.SearchIngredients(ctx.Request.Context(), ctx.Query("name"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	ctx.JSON(http.StatusOK, ingredients)
}

// GetIngredient godoc
// @Summary Get ingredient by ID
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} models.Ingredient
// @Failure 404 {object} models.APIError
// @Router /api/ingredients/{id} [get]
func (rc *referenceController) GetIngredient(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	ingredient, err := rc.service.GetIngredient(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ingredient)
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Description Add an ingredient unique by name and unit. Admin only.
// @Tags ingredients
// @Accept json
// @Produce json
// @Param ingredient body IngredientRequest true "Ingredient"
// @Success 201 {object} models.Ingredient
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /api/ingredients [post]
func (rc *referenceController) CreateIngredient(ctx *gin.Context) {
	var req IngredientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	ingredient, err := rc.service.CreateIngredient(ctx.Request.Context(), models.Ingredient{
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, ingredient)
}
