package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/franciscosanchezn/foodgram-api/internal/models"
)

// ParseIngredientsCSV reads "name,measurement_unit" rows. A leading header row
// starting with "name" is skipped.
func ParseIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := readCSV(r, 2, func(record []string) {
		ingredients = append(ingredients, models.Ingredient{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		})
	})
	return ingredients, err
}

// ParseTagsCSV reads "name,color,slug" rows. A leading header row starting
// with "name" is skipped.
func ParseTagsCSV(r io.Reader) ([]models.Tag, error) {
	var tags []models.Tag
	err := readCSV(r, 3, func(record []string) {
		tags = append(tags, models.Tag{
			Name:  strings.TrimSpace(record[0]),
			Color: strings.ToUpper(strings.TrimSpace(record[1])),
			Slug:  strings.TrimSpace(record[2]),
		})
	})
	return tags, err
}

func readCSV(r io.Reader, fields int, row func([]string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fields
	reader.TrimLeadingSpace = true

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		for i, value := range record {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("line %d: column %d is empty", line, i+1)
			}
		}
		row(record)
	}
}
