package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
)

// IngredientAmountRequest references an ingredient and its amount in a recipe
type IngredientAmountRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the body of recipe create. Field rules are enforced by the
// recipe service so that every problem is reported at once.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Tags        []uint                    `json:"tags"`
	Image       string                    `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

// RecipePatchRequest is the body of recipe update; omitted scalar fields keep
// their stored value, omitted image keeps the stored image
type RecipePatchRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Tags        []uint                    `json:"tags"`
	Image       *string                   `json:"image"`
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
}

// RecipeController handles recipes and the per-user recipe lists
type RecipeController interface {
	// ListRecipes returns a filtered page of recipes
	ListRecipes(c *gin.Context)
	// GetRecipe returns a recipe by id
	GetRecipe(c *gin.Context)
	// CreateRecipe publishes a recipe
	CreateRecipe(c *gin.Context)
	// UpdateRecipe changes a recipe of the requester
	UpdateRecipe(c *gin.Context)
	// DeleteRecipe removes a recipe of the requester
	DeleteRecipe(c *gin.Context)
	// AddFavorite bookmarks a recipe
	AddFavorite(c *gin.Context)
	// RemoveFavorite removes a bookmark
	RemoveFavorite(c *gin.Context)
	// AddToShoppingCart puts a recipe in the cart
	AddToShoppingCart(c *gin.Context)
	// RemoveFromShoppingCart takes a recipe out of the cart
	RemoveFromShoppingCart(c *gin.Context)
	// DownloadShoppingCart returns the aggregated shopping list
	DownloadShoppingCart(c *gin.Context)
}

type recipeController struct {
	recipes      services.RecipeService
	lists        services.RecipeListService
	shoppingList services.ShoppingListService
	presenter    *Presenter
	paginator    *Paginator
}

// NewRecipeController creates a new instance of RecipeController
func NewRecipeController(recipes services.RecipeService, lists services.RecipeListService,
	shoppingList services.ShoppingListService, presenter *Presenter, paginator *Paginator) *recipeController {
	return &recipeController{
		recipes:      recipes,
		lists:        lists,
		shoppingList: shoppingList,
		presenter:    presenter,
		paginator:    paginator,
	}
}

func ingredientAmounts(items []IngredientAmountRequest) []services.IngredientAmount {
	amounts := make([]services.IngredientAmount, len(items))
	for i, item := range items {
		amounts[i] = services.IngredientAmount{ID: item.ID, Amount: item.Amount}
	}
	return amounts
}

// truthy matches the "1"/"true" values the list filters accept
func truthy(value string) bool {
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}

// ListRecipes godoc
// @Summary List recipes
// @Description Get a page of recipes, newest first, with optional filters
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs, any of them matches" collectionFormat(multi)
// @Param is_favorited query int false "Only recipes favorited by the requester (1)"
// @Param is_in_shopping_cart query int false "Only recipes in the requester's cart (1)"
// @Success 200 {object} Page[RecipeResponse]
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /api/recipes [get]
func (rc *recipeController) ListRecipes(ctx *gin.Context) {
	req, ok := rc.paginator.Request(ctx)
	if !ok {
		return
	}

	viewer := viewerID(ctx)
	filter := services.RecipeFilter{TagSlugs: ctx.QueryArray("tags")}
	if raw := ctx.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			respondError(ctx, services.NewValidationError("author", "Select a valid author."))
			return
		}
		filter.AuthorID = uint(authorID)
	}
	// list filters only apply to signed-in users
	if viewer != 0 {
		if truthy(ctx.Query("is_favorited")) {
			filter.FavoritedBy = viewer
		}
		if truthy(ctx.Query("is_in_shopping_cart")) {
			filter.InCartOf = viewer
		}
	}

	recipes, total, err := rc.recipes.ListRecipes(ctx.Request.Context(), filter, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !rc.paginator.InRange(ctx, req, total) {
		return
	}

	results, err := rc.presenter.Recipes(ctx.Request.Context(), viewer, recipes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, NewPage(rc.paginator, ctx, req, total, results))
}

// GetRecipe godoc
// @Summary Get recipe by ID
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id} [get]
func (rc *recipeController) GetRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	recipe, err := rc.recipes.GetRecipe(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	rc.respondRecipe(ctx, http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description Publish a recipe; the image is a base64 data URI
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body RecipeRequest true "Recipe"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes [post]
func (rc *recipeController) CreateRecipe(ctx *gin.Context) {
	var req RecipeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	recipe, err := rc.recipes.CreateRecipe(ctx.Request.Context(), viewerID(ctx), services.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		Tags:        req.Tags,
		Ingredients: ingredientAmounts(req.Ingredients),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	rc.respondRecipe(ctx, http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Change a recipe of the requester; tags and ingredients are replaced
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body RecipePatchRequest true "Recipe fields"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [patch]
func (rc *recipeController) UpdateRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req RecipePatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindingError(ctx, err)
		return
	}

	existing, err := rc.recipes.GetRecipe(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	input := services.RecipeInput{
		Name:        existing.Name,
		Text:        existing.Text,
		CookingTime: existing.CookingTime,
		Tags:        req.Tags,
		Ingredients: ingredientAmounts(req.Ingredients),
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Text != nil {
		input.Text = *req.Text
	}
	if req.CookingTime != nil {
		input.CookingTime = *req.CookingTime
	}
	if req.Image != nil {
		input.Image = *req.Image
	}

	recipe, err := rc.recipes.UpdateRecipe(ctx.Request.Context(), viewerID(ctx), id, input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	rc.respondRecipe(ctx, http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [delete]
func (rc *recipeController) DeleteRecipe(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := rc.recipes.DeleteRecipe(ctx.Request.Context(), viewerID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add a recipe to favorites
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [post]
func (rc *recipeController) AddFavorite(ctx *gin.Context) {
	rc.addToList(ctx, services.Favorites)
}

// RemoveFavorite godoc
// @Summary Remove a recipe from favorites
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [delete]
func (rc *recipeController) RemoveFavorite(ctx *gin.Context) {
	rc.removeFromList(ctx, services.Favorites)
}

// AddToShoppingCart godoc
// @Summary Add a recipe to the shopping cart
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [post]
func (rc *recipeController) AddToShoppingCart(ctx *gin.Context) {
	rc.addToList(ctx, services.ShoppingCart)
}

// RemoveFromShoppingCart godoc
// @Summary Remove a recipe from the shopping cart
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [delete]
func (rc *recipeController) RemoveFromShoppingCart(ctx *gin.Context) {
	rc.removeFromList(ctx, services.ShoppingCart)
}

// DownloadShoppingCart godoc
// @Summary Download the shopping list
// @Description Ingredients of every recipe in the cart, summed per name and unit
// @Tags recipes
// @Produce plain
// @Success 200 {string} string "shopping_list.txt"
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart [get]
func (rc *recipeController) DownloadShoppingCart(ctx *gin.Context) {
	items, err := rc.shoppingList.Items(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(services.RenderShoppingList(items)))
}

func (rc *recipeController) addToList(ctx *gin.Context, list services.RecipeList) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	recipe, err := rc.lists.Add(ctx.Request.Context(), list, viewerID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, rc.presenter.ShortRecipe(*recipe))
}

func (rc *recipeController) removeFromList(ctx *gin.Context, list services.RecipeList) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	if err := rc.lists.Remove(ctx.Request.Context(), list, viewerID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (rc *recipeController) respondRecipe(ctx *gin.Context, status int, recipe *models.Recipe) {
	response, err := rc.presenter.Recipe(ctx.Request.Context(), viewerID(ctx), *recipe)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(status, response)
}
