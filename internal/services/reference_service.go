package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReferenceService serves tags and ingredients, which are read-mostly reference data
type ReferenceService interface {
	// ListTags returns every tag ordered by name
	ListTags(ctx context.Context) ([]models.Tag, error)
	// GetTag retrieves a tag by its ID
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	// CreateTag adds a tag; name, color and slug must all be unused
	CreateTag(ctx context.Context, tag models.Tag) (*models.Tag, error)
	// SearchIngredients returns ingredients whose name starts with prefix, ignoring case
	SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	// GetIngredient retrieves an ingredient by its ID
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
	// CreateIngredient adds an ingredient unique by name and unit
	CreateIngredient(ctx context.Context, ingredient models.Ingredient) (*models.Ingredient, error)
	// ImportTags creates the tags that do not exist yet and reports how many were created
	ImportTags(ctx context.Context, tags []models.Tag) (int, error)
	// ImportIngredients creates the ingredients that do not exist yet and reports how many were created
	ImportIngredients(ctx context.Context, ingredients []models.Ingredient) (int, error)
}

type referenceService struct {
	db *gorm.DB
}

// NewReferenceService creates a new instance of ReferenceService
func NewReferenceService(db *gorm.DB) ReferenceService {
	return &referenceService{db: db}
}

func (s *referenceService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *referenceService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (s *referenceService) CreateTag(ctx context.Context, tag models.Tag) (*models.Tag, error) {
	db := s.db.WithContext(ctx)
	tag.ID = 0
	tag.Name = stripMarkup(tag.Name)
	tag.Color = strings.ToUpper(tag.Color)

	verr := &ValidationError{}
	for field, value := range map[string]string{"name": tag.Name, "color": tag.Color, "slug": tag.Slug} {
		var count int64
		if err := db.Model(&models.Tag{}).Where(field+" = ?", value).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			verr.Add(field, "A tag with this "+field+" already exists.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("slug", "A tag with these values already exists.")
		}
		return nil, err
	}
	log.WithFields(logrus.Fields{"tag_id": tag.ID, "slug": tag.Slug}).Info("Tag created")
	return &tag, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *referenceService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, strings.ToLower(escapeLike(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *referenceService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

func (s *referenceService) CreateIngredient(ctx context.Context, ingredient models.Ingredient) (*models.Ingredient, error) {
	ingredient.ID = 0
	ingredient.Name = stripMarkup(ingredient.Name)
	ingredient.MeasurementUnit = stripMarkup(ingredient.MeasurementUnit)

	err := s.db.WithContext(ctx).Create(&ingredient).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, NewValidationError("name", "This ingredient already exists with the same measurement unit.")
	}
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (s *referenceService) ImportTags(ctx context.Context, tags []models.Tag) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tag := range tags {
			var count int64
			if err := tx.Model(&models.Tag{}).Where("slug = ?", tag.Slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			row := models.Tag{Name: stripMarkup(tag.Name), Color: strings.ToUpper(tag.Color), Slug: tag.Slug}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("tag %q: %w", tag.Slug, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.WithFields(logrus.Fields{"rows": len(tags), "created": created}).Info("Tags imported")
	return created, nil
}

func (s *referenceService) ImportIngredients(ctx context.Context, ingredients []models.Ingredient) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ingredient := range ingredients {
			row := models.Ingredient{
				Name:            stripMarkup(ingredient.Name),
				MeasurementUnit: stripMarkup(ingredient.MeasurementUnit),
			}
			var count int64
			err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", row.Name, row.MeasurementUnit).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("ingredient %q: %w", row.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.WithFields(logrus.Fields{"rows": len(ingredients), "created": created}).Info("Ingredients imported")
	return created, nil
}
