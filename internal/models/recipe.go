package models

import (
	"time"
)

// Recipe bounds
const (
	MinCookingTime = 1
	MaxCookingTime = 9000
	MinAmount      = 1
	MaxAmount      = 32767
	MaxNameLength  = 200
)

// Recipe is a dish published by its author
type Recipe struct {
	ID          uint                 `gorm:"primaryKey"`
	AuthorID    uint                 `gorm:"not null;index;uniqueIndex:idx_recipe_author_name"`
	Author      User                 `gorm:"constraint:OnDelete:CASCADE"`
	Name        string               `gorm:"size:200;not null;uniqueIndex:idx_recipe_author_name"`
	Image       string               `gorm:"size:255;not null"`
	Text        string               `gorm:"type:text;not null"`
	CookingTime int                  `gorm:"not null"`
	Tags        []Tag                `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []IngredientInRecipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"index"`
	UpdatedAt   time.Time
}

func (Recipe) TableName() string {
	return "recipes"
}

// IngredientInRecipe holds the amount of one ingredient used by a recipe
type IngredientInRecipe struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;index;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null"`
}

func (IngredientInRecipe) TableName() string {
	return "recipe_ingredients"
}
