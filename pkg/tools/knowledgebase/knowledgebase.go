package knowledgebase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/unifeast/unifeast-agent/pkg/foodstore"
	"github.com/unifeast/unifeast-agent/pkg/interfaces"
)

// Catalog is the slice of the relational food catalog these tools read
type Catalog interface {
	ListCuisines(ctx context.Context) ([]string, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListRestaurants(ctx context.Context) ([]string, error)
	SearchByName(ctx context.Context, name string, limit int) ([]foodstore.FoodItem, error)
	GetByID(ctx context.Context, id string) (*foodstore.FoodItem, error)
}

// Tools returns the knowledge base tools backed by the given catalog
func Tools(catalog Catalog) []interfaces.Tool {
	return []interfaces.Tool{
		&listTool{
			name:        "list_cuisines",
			description: "List the cuisines available in the food catalog.",
			field:       "cuisines",
			list:        catalog.ListCuisines,
		},
		&listTool{
			name:        "list_food_categories",
			description: "List the food categories available in the food catalog.",
			field:       "categories",
			list:        catalog.ListCategories,
		},
		&listTool{
			name:        "list_restaurants",
			description: "List the restaurants available in the food catalog.",
			field:       "restaurants",
			list:        catalog.ListRestaurants,
		},
		&lookupTool{catalog: catalog},
	}
}

// listTool wraps one of the catalog's distinct-value listings
type listTool struct {
	name        string
	description string
	field       string
	list        func(ctx context.Context) ([]string, error)
}

func (t *listTool) Name() string {
	return t.name
}

func (t *listTool) Description() string {
	return t.description
}

func (t *listTool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{}
}

func (t *listTool) Execute(ctx context.Context, args string) (string, error) {
	values, err := t.list(ctx)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", t.name, err)
	}
	if values == nil {
		values = []string{}
	}

	data, err := json.Marshal(map[string]interface{}{t.field: values})
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", t.field, err)
	}
	return string(data), nil
}

// lookupTool finds catalog entries by name
type lookupTool struct {
	catalog Catalog
}

func (t *lookupTool) Name() string {
	return "lookup_food_item"
}

func (t *lookupTool) Description() string {
	return "Look up food items in the catalog by name or by exact ID. Returns full details including price, allergens and dietary tags."
}

func (t *lookupTool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{
		"name": {
			Type:        "string",
			Description: "Full or partial name of the food item",
			Required:    false,
		},
		"id": {
			Type:        "string",
			Description: "Exact catalog ID of the food item",
			Required:    false,
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum number of items to return",
			Required:    false,
			Default:     5,
		},
	}
}

func (t *lookupTool) Execute(ctx context.Context, args string) (string, error) {
	var params struct {
		Name  string `json:"name"`
		ID    string `json:"id"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return "", fmt.Errorf("invalid input format: %w", err)
	}
	if params.Name == "" && params.ID == "" {
		return "", fmt.Errorf("either name or id is required")
	}
	if params.Limit <= 0 {
		params.Limit = 5
	}

	var items []foodstore.FoodItem
	var err error
	if params.ID != "" {
		var item *foodstore.FoodItem
		item, err = t.catalog.GetByID(ctx, params.ID)
		if item != nil {
			items = []foodstore.FoodItem{*item}
		}
	} else {
		items, err = t.catalog.SearchByName(ctx, params.Name, params.Limit)
	}
	if err != nil {
		return "", fmt.Errorf("lookup_food_item failed: %w", err)
	}
	if items == nil {
		items = []foodstore.FoodItem{}
	}

	data, err := json.Marshal(map[string]interface{}{
		"total_results": len(items),
		"food_items":    items,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal food items: %w", err)
	}
	return string(data), nil
}
