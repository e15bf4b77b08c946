package controllers

import (
	"context"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/franciscosanchezn/foodgram-api/internal/storage"
)

// UserResponse is the public profile of a user as seen by the requester
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// UserCreatedResponse is returned by registration
type UserCreatedResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RecipeShortResponse is the recipe summary used by lists and subscriptions
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// RecipeIngredientResponse is one ingredient line of a recipe
type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with their latest recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// Presenter turns models into responses, resolving image URLs and the
// requester-specific flags in one query per flag and list
type Presenter struct {
	storage       storage.Storage
	recipes       services.RecipeService
	lists         services.RecipeListService
	subscriptions services.SubscriptionService
}

func NewPresenter(store storage.Storage, recipes services.RecipeService, lists services.RecipeListService,
	subscriptions services.SubscriptionService) *Presenter {
	return &Presenter{
		storage:       store,
		recipes:       recipes,
		lists:         lists,
		subscriptions: subscriptions,
	}
}

func userResponse(user models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

// Users renders profiles, flagging the authors viewer follows
func (p *Presenter) Users(ctx context.Context, viewer uint, users []models.User) ([]UserResponse, error) {
	ids := make([]uint, len(users))
	for i, user := range users {
		ids[i] = user.ID
	}
	subscribed, err := p.subscriptions.SubscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = userResponse(user, subscribed[user.ID])
	}
	return responses, nil
}

func (p *Presenter) User(ctx context.Context, viewer uint, user models.User) (UserResponse, error) {
	responses, err := p.Users(ctx, viewer, []models.User{user})
	if err != nil {
		return UserResponse{}, err
	}
	return responses[0], nil
}

func (p *Presenter) ShortRecipe(recipe models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       p.storage.URL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

// Recipes renders full recipes with the viewer's favorite, cart and subscription flags
func (p *Presenter) Recipes(ctx context.Context, viewer uint, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, recipe := range recipes {
		recipeIDs[i] = recipe.ID
		authorIDs[i] = recipe.AuthorID
	}

	favorited, err := p.lists.Contains(ctx, services.Favorites, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.lists.Contains(ctx, services.ShoppingCart, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.subscriptions.SubscribedTo(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		ingredients := make([]RecipeIngredientResponse, len(recipe.Ingredients))
		for j, item := range recipe.Ingredients {
			ingredients[j] = RecipeIngredientResponse{
				ID:              item.IngredientID,
				Name:            item.Ingredient.Name,
				MeasurementUnit: item.Ingredient.MeasurementUnit,
				Amount:          item.Amount,
			}
		}
		tags := recipe.Tags
		if tags == nil {
			tags = []models.Tag{}
		}

		responses[i] = RecipeResponse{
			ID:               recipe.ID,
			Tags:             tags,
			Author:           userResponse(recipe.Author, subscribed[recipe.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[recipe.ID],
			IsInShoppingCart: inCart[recipe.ID],
			Name:             recipe.Name,
			Image:            p.storage.URL(recipe.Image),
			Text:             recipe.Text,
			CookingTime:      recipe.CookingTime,
		}
	}
	return responses, nil
}

func (p *Presenter) Recipe(ctx context.Context, viewer uint, recipe models.Recipe) (RecipeResponse, error) {
	responses, err := p.Recipes(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return RecipeResponse{}, err
	}
	return responses[0], nil
}

// Subscriptions renders followed authors with up to recipesLimit recipes each
// (all of them when recipesLimit is 0)
func (p *Presenter) Subscriptions(ctx context.Context, viewer uint, authors []models.User, recipesLimit int) ([]SubscriptionResponse, error) {
	profiles, err := p.Users(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}

	responses := make([]SubscriptionResponse, len(authors))
	for i, author := range authors {
		recipes, total, err := p.recipes.RecipesByAuthor(ctx, author.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		short := make([]RecipeShortResponse, len(recipes))
		for j, recipe := range recipes {
			short[j] = p.ShortRecipe(recipe)
		}
		responses[i] = SubscriptionResponse{
			UserResponse: profiles[i],
			Recipes:      short,
			RecipesCount: total,
		}
	}
	return responses, nil
}
