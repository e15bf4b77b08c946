package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/franciscosanchezn/foodgram-api/internal/metrics"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/franciscosanchezn/foodgram-api/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recipeImagePrefix = "recipes/images"

// IngredientAmount references an ingredient with the quantity a recipe needs
type IngredientAmount struct {
	ID     uint
	Amount int
}

// RecipeInput is the writable part of a recipe. Image is a base64 data URI;
// an empty Image on update keeps the stored one.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	Tags        []uint
	Ingredients []IngredientAmount
}

// RecipeFilter narrows the recipe list. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID    uint
	TagSlugs    []string
	FavoritedBy uint
	InCartOf    uint
}

// RecipeService manages recipes together with their tags, ingredients and image
type RecipeService interface {
	// ListRecipes returns one page of recipes, newest first
	ListRecipes(ctx context.Context, filter RecipeFilter, page PageRequest) ([]models.Recipe, int64, error)
	// GetRecipe loads a recipe with author, tags and ingredients
	GetRecipe(ctx context.Context, id uint) (*models.Recipe, error)
	// CreateRecipe validates input and stores a new recipe for authorID
	CreateRecipe(ctx context.Context, authorID uint, input RecipeInput) (*models.Recipe, error)
	// UpdateRecipe replaces the recipe fields and associations; only the author may do it
	UpdateRecipe(ctx context.Context, authorID, recipeID uint, input RecipeInput) (*models.Recipe, error)
	// DeleteRecipe removes a recipe owned by authorID
	DeleteRecipe(ctx context.Context, authorID, recipeID uint) error
	// RecipesByAuthor returns up to limit newest recipes of an author (all when limit <= 0) and their total
	RecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, int64, error)
}

type recipeService struct {
	db      *gorm.DB
	storage storage.Storage
}

// NewRecipeService creates a new instance of RecipeService
func NewRecipeService(db *gorm.DB, store storage.Storage) RecipeService {
	return &recipeService{db: db, storage: store}
}

func (s *recipeService) filterScope(filter RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			tagged := s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs)
			db = db.Where("recipes.id IN (?)", tagged)
		}
		if filter.FavoritedBy != 0 {
			favorited := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", filter.FavoritedBy)
			db = db.Where("recipes.id IN (?)", favorited)
		}
		if filter.InCartOf != 0 {
			inCart := s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", filter.InCartOf)
			db = db.Where("recipes.id IN (?)", inCart)
		}
		return db
	}
}

// withDetails preloads everything a full recipe representation shows
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags").Preload("Ingredients.Ingredient")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("recipes.created_at DESC").Order("recipes.id DESC")
}

func (s *recipeService) ListRecipes(ctx context.Context, filter RecipeFilter, page PageRequest) ([]models.Recipe, int64, error) {
	scope := s.filterScope(filter)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Scopes(scope, withDetails, newestFirst).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	for i := range recipes {
		sortRelations(&recipes[i])
	}
	return recipes, total, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Scopes(withDetails).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	sortRelations(&recipe)
	return &recipe, nil
}

func (s *recipeService) RecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Where("recipes.author_id = ?", authorID).Scopes(newestFirst)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uint, input RecipeInput) (*models.Recipe, error) {
	input = normalizeRecipeInput(input)
	image, tags, err := s.validate(ctx, authorID, 0, input, true)
	if err != nil {
		return nil, err
	}

	key := storage.NewImageKey(recipeImagePrefix, image.Extension)
	if err := s.storage.Save(ctx, key, image.Data, image.ContentType); err != nil {
		return nil, fmt.Errorf("saving recipe image: %w", err)
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Image:       key,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return writeAssociations(tx, recipe, tags, input.Ingredients)
	})
	if err != nil {
		s.removeImage(ctx, key)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("name", "You already have a recipe with this name.")
		}
		return nil, err
	}

	metrics.RecipesWritten.WithLabelValues("create").Inc()
	log.WithFields(logrus.Fields{
		"recipe_id": recipe.ID,
		"author_id": authorID,
	}).Info("Recipe created")
	return s.GetRecipe(ctx, recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, authorID, recipeID uint, input RecipeInput) (*models.Recipe, error) {
	existing, err := s.ownedRecipe(ctx, authorID, recipeID)
	if err != nil {
		return nil, err
	}

	oldKey := existing.Image

	input = normalizeRecipeInput(input)
	image, tags, err := s.validate(ctx, authorID, recipeID, input, false)
	if err != nil {
		return nil, err
	}

	newKey := ""
	if image != nil {
		newKey = storage.NewImageKey(recipeImagePrefix, image.Extension)
		if err := s.storage.Save(ctx, newKey, image.Data, image.ContentType); err != nil {
			return nil, fmt.Errorf("saving recipe image: %w", err)
		}
	}

	updates := map[string]interface{}{
		"name":         input.Name,
		"text":         input.Text,
		"cooking_time": input.CookingTime,
	}
	if newKey != "" {
		updates["image"] = newKey
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(existing).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return err
		}
		return writeAssociations(tx, existing, tags, input.Ingredients)
	})
	if err != nil {
		if newKey != "" {
			s.removeImage(ctx, newKey)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("name", "You already have a recipe with this name.")
		}
		return nil, err
	}

	if newKey != "" {
		s.removeImage(ctx, oldKey)
	}

	metrics.RecipesWritten.WithLabelValues("update").Inc()
	log.WithField("recipe_id", recipeID).Info("Recipe updated")
	return s.GetRecipe(ctx, recipeID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, authorID, recipeID uint) error {
	existing, err := s.ownedRecipe(ctx, authorID, recipeID)
	if err != nil {
		return err
	}

	// tags, ingredients, favorites and cart rows go with the recipe through ON DELETE CASCADE
	if err := s.db.WithContext(ctx).Delete(&models.Recipe{}, recipeID).Error; err != nil {
		return err
	}
	s.removeImage(ctx, existing.Image)

	metrics.RecipesWritten.WithLabelValues("delete").Inc()
	log.WithField("recipe_id", recipeID).Info("Recipe deleted")
	return nil
}

func (s *recipeService) ownedRecipe(ctx context.Context, authorID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != authorID {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

func (s *recipeService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to remove recipe image")
	}
}

// writeAssociations replaces the tag links and ingredient rows of recipe
func writeAssociations(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag, ingredients []IngredientAmount) error {
	if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
		return err
	}

	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientInRecipe{}).Error; err != nil {
		return err
	}
	rows := make([]models.IngredientInRecipe, 0, len(ingredients))
	for _, item := range ingredients {
		rows = append(rows, models.IngredientInRecipe{
			RecipeID:     recipe.ID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

func normalizeRecipeInput(input RecipeInput) RecipeInput {
	input.Name = stripMarkup(input.Name)
	input.Text = stripMarkup(input.Text)
	input.Image = strings.TrimSpace(input.Image)
	return input
}

// validate checks a recipe payload and returns the decoded image (nil when none
// was sent) and the referenced tags
func (s *recipeService) validate(ctx context.Context, authorID, recipeID uint, input RecipeInput, requireImage bool) (*storage.Image, []models.Tag, error) {
	db := s.db.WithContext(ctx)
	verr := &ValidationError{}

	switch {
	case input.Name == "":
		verr.Add("name", "This field may not be blank.")
	case utf8.RuneCountInString(input.Name) > models.MaxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxNameLength))
	default:
		var count int64
		query := db.Model(&models.Recipe{}).Where("author_id = ? AND name = ?", authorID, input.Name)
		if recipeID != 0 {
			query = query.Where("id <> ?", recipeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return nil, nil, err
		}
		if count > 0 {
			verr.Add("name", "You already have a recipe with this name.")
		}
	}

	if input.Text == "" {
		verr.Add("text", "This field may not be blank.")
	}

	if input.CookingTime < models.MinCookingTime || input.CookingTime > models.MaxCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("Cooking time must be between %d and %d minutes.",
			models.MinCookingTime, models.MaxCookingTime))
	}

	tags, err := s.validateTags(ctx, input.Tags, verr)
	if err != nil {
		return nil, nil, err
	}
	if err := s.validateIngredients(ctx, input.Ingredients, verr); err != nil {
		return nil, nil, err
	}

	var image *storage.Image
	switch {
	case input.Image == "" && requireImage:
		verr.Add("image", "This field is required.")
	case input.Image != "":
		decoded, err := storage.DecodeDataURI(input.Image)
		if err != nil {
			verr.Add("image", err.Error())
		}
		image = decoded
	}

	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}
	return image, tags, nil
}

func (s *recipeService) validateTags(ctx context.Context, ids []uint, verr *ValidationError) ([]models.Tag, error) {
	if len(ids) == 0 {
		verr.Add("tags", "At least one tag is required.")
		return nil, nil
	}
	if hasDuplicates(ids) {
		verr.Add("tags", "Tags must not repeat.")
		return nil, nil
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, tags, func(t models.Tag) uint { return t.ID }); len(missing) > 0 {
		verr.Add("tags", "Unknown tag id(s): "+joinIDs(missing)+".")
		return nil, nil
	}
	return tags, nil
}

func (s *recipeService) validateIngredients(ctx context.Context, items []IngredientAmount, verr *ValidationError) error {
	if len(items) == 0 {
		verr.Add("ingredients", "At least one ingredient is required.")
		return nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
			verr.Add("ingredients", fmt.Sprintf("Ingredient amount must be between %d and %d.",
				models.MinAmount, models.MaxAmount))
			return nil
		}
		ids = append(ids, item.ID)
	}
	if hasDuplicates(ids) {
		verr.Add("ingredients", "Ingredients must not repeat.")
		return nil
	}

	var found []models.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return err
	}
	if missing := missingIDs(ids, found, func(i models.Ingredient) uint { return i.ID }); len(missing) > 0 {
		verr.Add("ingredients", "Unknown ingredient id(s): "+joinIDs(missing)+".")
	}
	return nil
}

func hasDuplicates(ids []uint) bool {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func missingIDs[T any](ids []uint, found []T, idOf func(T) uint) []uint {
	present := make(map[uint]struct{}, len(found))
	for _, item := range found {
		present[idOf(item)] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}

// sortRelations orders tags and ingredients by name for stable output
func sortRelations(recipe *models.Recipe) {
	sort.Slice(recipe.Tags, func(i, j int) bool {
		return recipe.Tags[i].Name < recipe.Tags[j].Name
	})
	sort.Slice(recipe.Ingredients, func(i, j int) bool {
		return recipe.Ingredients[i].Ingredient.Name < recipe.Ingredients[j].Ingredient.Name
	})
}
