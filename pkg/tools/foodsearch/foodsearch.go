package foodsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/logging"
)

// Tool performs semantic search over the food item vector index
type Tool struct {
	store       interfaces.VectorStore
	logger      logging.Logger
	defaultTopK int
}

// Option represents an option for configuring the tool
type Option func(*Tool)

// WithLogger sets the logger for the tool
func WithLogger(logger logging.Logger) Option {
	return func(t *Tool) {
		t.logger = logger
	}
}

// WithDefaultTopK sets the result count used when the model omits top_k
func WithDefaultTopK(topK int) Option {
	return func(t *Tool) {
		t.defaultTopK = topK
	}
}

// New creates a new food search tool over the given vector store
func New(store interfaces.VectorStore, options ...Option) *Tool {
	tool := &Tool{
		store:       store,
		logger:      logging.New(),
		defaultTopK: 10,
	}

	for _, option := range options {
		option(tool)
	}

	return tool
}

// Name returns the name of the tool
func (t *Tool) Name() string {
	return "search_food_items"
}

// Description returns a description of what the tool does
func (t *Tool) Description() string {
	return "Search for food items by semantic similarity. Supports optional filters for cuisine, dietary tags, allergen exclusions and a maximum price."
}

// Parameters returns the parameters that the tool accepts
func (t *Tool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{
		"query_text": {
			Type:        "string",
			Description: "Free-text description of the food the user wants",
			Required:    true,
		},
		"top_k": {
			Type:        "integer",
			Description: "Maximum number of results to return",
			Required:    false,
			Default:     t.defaultTopK,
		},
		"cuisine": {
			Type:        "string",
			Description: "Restrict results to a cuisine, e.g. 'italian' or 'thai'",
			Required:    false,
		},
		"dietary_tags": {
			Type:        "array",
			Description: "Dietary tags every result must carry, e.g. ['vegetarian']",
			Required:    false,
			Items:       &interfaces.ParameterSpec{Type: "string"},
		},
		"exclude_allergens": {
			Type:        "array",
			Description: "Allergens that must not appear in any result",
			Required:    false,
			Items:       &interfaces.ParameterSpec{Type: "string"},
		},
		"max_price": {
			Type:        "number",
			Description: "Maximum price in dollars",
			Required:    false,
		},
	}
}

type searchArgs struct {
	QueryText        string   `json:"query_text"`
	TopK             int      `json:"top_k"`
	Cuisine          string   `json:"cuisine"`
	DietaryTags      []string `json:"dietary_tags"`
	ExcludeAllergens []string `json:"exclude_allergens"`
	MaxPrice         float64  `json:"max_price"`
}

// result mirrors the response shape: one match with its similarity score
// and the stored metadata
type result struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

type response struct {
	Query        string   `json:"query"`
	TotalResults int      `json:"total_results"`
	FoodItems    []result `json:"food_items"`
}

// Execute runs the search and returns the matches as JSON
func (t *Tool) Execute(ctx context.Context, args string) (string, error) {
	var params searchArgs
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return "", fmt.Errorf("invalid input format: %w", err)
	}
	if params.QueryText == "" {
		return "", fmt.Errorf("query_text parameter is required")
	}

	topK := params.TopK
	if topK <= 0 {
		topK = t.defaultTopK
	}

	var fs []interfaces.Filter
	if params.Cuisine != "" {
		fs = append(fs, interfaces.Filter{
			Field:    "cuisine",
			Operator: interfaces.FilterEqual,
			Value:    strings.ToLower(params.Cuisine),
		})
	}
	if len(params.DietaryTags) > 0 {
		fs = append(fs, interfaces.Filter{
			Field:    "dietary_tags",
			Operator: interfaces.FilterContainsAny,
			Value:    lower(params.DietaryTags),
		})
	}
	if params.MaxPrice > 0 {
		fs = append(fs, interfaces.Filter{
			Field:    "price",
			Operator: interfaces.FilterLessThanEqual,
			Value:    params.MaxPrice,
		})
	}

	// Allergen exclusion is applied after the search: over-fetch so the
	// post-filter still has topK candidates to choose from
	limit := topK
	if len(params.ExcludeAllergens) > 0 {
		limit = topK * 3
	}

	t.logger.Debug(ctx, "Searching food items", map[string]interface{}{
		"query":   params.QueryText,
		"topK":    topK,
		"filters": len(fs),
	})

	matches, err := t.store.Search(ctx, params.QueryText, limit, interfaces.WithFilters(fs...))
	if err != nil {
		return "", fmt.Errorf("food search failed: %w", err)
	}

	if len(params.ExcludeAllergens) > 0 {
		matches = excludeAllergens(matches, params.ExcludeAllergens)
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}

	results := make([]result, 0, len(matches))
	for _, match := range matches {
		metadata := match.Document.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		results = append(results, result{
			ID:       match.Document.ID,
			Score:    match.Score,
			Metadata: metadata,
		})
	}

	data, err := json.Marshal(response{
		Query:        params.QueryText,
		TotalResults: len(results),
		FoodItems:    results,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	return string(data), nil
}

// excludeAllergens drops matches whose allergens metadata contains any of
// the excluded values
func excludeAllergens(matches []interfaces.SearchResult, excluded []string) []interfaces.SearchResult {
	excludedSet := make(map[string]bool, len(excluded))
	for _, allergen := range excluded {
		excludedSet[strings.ToLower(allergen)] = true
	}

	filtered := make([]interfaces.SearchResult, 0, len(matches))
	for _, match := range matches {
		if containsExcluded(match.Document.Metadata["allergens"], excludedSet) {
			continue
		}
		filtered = append(filtered, match)
	}
	return filtered
}

func containsExcluded(allergens interface{}, excluded map[string]bool) bool {
	switch a := allergens.(type) {
	case []string:
		for _, allergen := range a {
			if excluded[strings.ToLower(allergen)] {
				return true
			}
		}
	case []interface{}:
		for _, allergen := range a {
			if s, ok := allergen.(string); ok && excluded[strings.ToLower(s)] {
				return true
			}
		}
	}
	return false
}

func lower(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return lowered
}
