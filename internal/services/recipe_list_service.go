package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/foodgram-api/internal/metrics"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecipeList names a per-user set of recipes
type RecipeList string

const (
	Favorites    RecipeList = "favorites"
	ShoppingCart RecipeList = "shopping_cart"
)

// listBinding maps a RecipeList to its table and error values
type listBinding struct {
	newRow     func(userID, recipeID uint) interface{}
	errExists  error
	errMissing error
}

var listBindings = map[RecipeList]listBinding{
	Favorites: {
		newRow: func(userID, recipeID uint) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		errExists:  ErrAlreadyInFavorites,
		errMissing: ErrNotInFavorites,
	},
	ShoppingCart: {
		newRow: func(userID, recipeID uint) interface{} {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
		errExists:  ErrAlreadyInShoppingCart,
		errMissing: ErrNotInShoppingCart,
	},
}

// RecipeListService toggles recipes in a user's favorites and shopping cart
type RecipeListService interface {
	// Add puts the recipe in the list and returns it
	Add(ctx context.Context, list RecipeList, userID, recipeID uint) (*models.Recipe, error)
	// Remove takes the recipe out of the list
	Remove(ctx context.Context, list RecipeList, userID, recipeID uint) error
	// Contains reports which of recipeIDs are in the user's list
	Contains(ctx context.Context, list RecipeList, userID uint, recipeIDs []uint) (map[uint]bool, error)
}

type recipeListService struct {
	db *gorm.DB
}

// NewRecipeListService creates a new instance of RecipeListService
func NewRecipeListService(db *gorm.DB) RecipeListService {
	return &recipeListService{db: db}
}

func (s *recipeListService) binding(list RecipeList) listBinding {
	b, ok := listBindings[list]
	if !ok {
		panic("unknown recipe list " + string(list))
	}
	return b
}

func (s *recipeListService) recipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *recipeListService) Add(ctx context.Context, list RecipeList, userID, recipeID uint) (*models.Recipe, error) {
	b := s.binding(list)
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	row := b.newRow(userID, recipeID)
	var count int64
	err = s.db.WithContext(ctx).Model(row).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, b.errExists
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		// a concurrent request inserted the same pair
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, b.errExists
		}
		return nil, err
	}

	metrics.RecipeListChanges.WithLabelValues(string(list), "add").Inc()
	log.WithFields(logrus.Fields{
		"list":      list,
		"user_id":   userID,
		"recipe_id": recipeID,
	}).Debug("Recipe added to list")
	return recipe, nil
}

func (s *recipeListService) Remove(ctx context.Context, list RecipeList, userID, recipeID uint) error {
	b := s.binding(list)
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(b.newRow(0, 0))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return b.errMissing
	}

	metrics.RecipeListChanges.WithLabelValues(string(list), "remove").Inc()
	log.WithFields(logrus.Fields{
		"list":      list,
		"user_id":   userID,
		"recipe_id": recipeID,
	}).Debug("Recipe removed from list")
	return nil
}

func (s *recipeListService) Contains(ctx context.Context, list RecipeList, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Model(s.binding(list).newRow(0, 0)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
