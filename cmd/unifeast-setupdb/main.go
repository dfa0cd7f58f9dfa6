package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/unifeast/unifeast-agent/pkg/config"
	"github.com/unifeast/unifeast-agent/pkg/foodstore"
	"github.com/unifeast/unifeast-agent/pkg/logging"
)

func main() {
	seedPath := flag.String("seed", "", "optional JSON file of food items to load into the catalog")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Get()
	logger := logging.New()

	if cfg.Database.PostgresURL == "" {
		logger.Error(ctx, "DATABASE_URL is not set", nil)
		os.Exit(1)
	}

	store, err := foodstore.Open(cfg.Database.PostgresURL)
	if err != nil {
		logger.Error(ctx, "Failed to open database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		logger.Error(ctx, "Database is unreachable", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error(ctx, "Failed to create schema", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info(ctx, "Database schema is ready", nil)

	if *seedPath == "" {
		return
	}

	count, err := seedCatalog(ctx, store, *seedPath)
	if err != nil {
		logger.Error(ctx, "Failed to seed catalog", map[string]interface{}{
			"error": err.Error(),
			"seed":  *seedPath,
		})
		os.Exit(1)
	}
	logger.Info(ctx, "Seeded food catalog", map[string]interface{}{"items": count})
}

// catalogWriter is the slice of the food store the seeder needs
type catalogWriter interface {
	Upsert(ctx context.Context, item *foodstore.FoodItem) error
}

// seedCatalog loads the JSON food item list at path into the catalog,
// inserting or replacing by ID
func seedCatalog(ctx context.Context, store catalogWriter, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var items []foodstore.FoodItem
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, item := range items {
		if item.ID == "" || item.Name == "" {
			return 0, fmt.Errorf("seed item %d is missing id or name", i)
		}
		if err := store.Upsert(ctx, &item); err != nil {
			return 0, err
		}
	}

	return len(items), nil
}
