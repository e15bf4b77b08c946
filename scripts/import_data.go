package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/franciscosanchezn/foodgram-api/internal/config"
	"github.com/franciscosanchezn/foodgram-api/internal/database"
	"github.com/franciscosanchezn/foodgram-api/internal/services"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Loads reference data into the database, skipping rows that already exist:
//
//	go run ./scripts -ingredients data/ingredients.csv -tags data/tags.csv
func main() {
	// Parse command line flags
	ingredientsPath := flag.String("ingredients", "", "CSV file with name,measurement_unit rows")
	tagsPath := flag.String("tags", "", "CSV file with name,color,slug rows")
	flag.Parse()

	if *ingredientsPath == "" && *tagsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
	log.SetFormatter(&log.JSONFormatter{})

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	ctx := context.Background()
	reference := services.NewReferenceService(db)

	if *tagsPath != "" {
		created, err := importFile(*tagsPath, func(f *os.File) (int, error) {
			tags, err := services.ParseTagsCSV(f)
			if err != nil {
				return 0, err
			}
			return reference.ImportTags(ctx, tags)
		})
		if err != nil {
			log.Fatal("Failed to import tags: ", err)
		}
		fmt.Printf("✓ Tags imported from %s: %d created\n", *tagsPath, created)
	}

	if *ingredientsPath != "" {
		created, err := importFile(*ingredientsPath, func(f *os.File) (int, error) {
			ingredients, err := services.ParseIngredientsCSV(f)
			if err != nil {
				return 0, err
			}
			return reference.ImportIngredients(ctx, ingredients)
		})
		if err != nil {
			log.Fatal("Failed to import ingredients: ", err)
		}
		fmt.Printf("✓ Ingredients imported from %s: %d created\n", *ingredientsPath, created)
	}
}

func importFile(path string, load func(*os.File) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return load(f)
}
