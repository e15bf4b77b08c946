package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/foodgram-api/internal/metrics"
	"gorm.io/gorm"
)

// ShoppingListItem is the total amount of one ingredient across the cart
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingListService aggregates the ingredients of a user's shopping cart
type ShoppingListService interface {
	// Items sums ingredient amounts over the cart, ordered by name and unit
	Items(ctx context.Context, userID uint) ([]ShoppingListItem, error)
}

type shoppingListService struct {
	db *gorm.DB
}

// NewShoppingListService creates a new instance of ShoppingListService
func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

func (s *shoppingListService) Items(ctx context.Context, userID uint) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrShoppingCartEmpty
	}

	metrics.ShoppingListDownloads.Inc()
	return items, nil
}

// RenderShoppingList formats items as "- {name} - {amount} {unit}" lines
func RenderShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s - %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return b.String()
}
