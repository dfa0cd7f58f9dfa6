package foodsearch_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/tools/foodsearch"
)

// fakeVectorStore records the search it receives and returns canned matches
type fakeVectorStore struct {
	lastQuery   string
	lastLimit   int
	lastFilters []interfaces.Filter
	results     []interfaces.SearchResult
	err         error
}

func (f *fakeVectorStore) Store(ctx context.Context, documents []interfaces.Document) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, query string, limit int, options ...interfaces.SearchOption) ([]interfaces.SearchResult, error) {
	opts := &interfaces.SearchOptions{}
	for _, option := range options {
		option(opts)
	}
	f.lastQuery = query
	f.lastLimit = limit
	f.lastFilters = opts.Filters
	return f.results, f.err
}

func (f *fakeVectorStore) Get(ctx context.Context, ids []string) ([]interfaces.Document, error) {
	return nil, nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, ids []string) error {
	return nil
}

func match(id string, score float64, metadata map[string]interface{}) interfaces.SearchResult {
	return interfaces.SearchResult{
		Document: interfaces.Document{ID: id, Metadata: metadata},
		Score:    score,
	}
}

type searchResponse struct {
	Query        string `json:"query"`
	TotalResults int    `json:"total_results"`
	FoodItems    []struct {
		ID       string                 `json:"id"`
		Score    float64                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"food_items"`
}

func TestExecute(t *testing.T) {
	store := &fakeVectorStore{
		results: []interfaces.SearchResult{
			match("item1", 0.95, map[string]interface{}{"name": "Margherita Pizza"}),
			match("item2", 0.90, map[string]interface{}{"name": "Pad Thai"}),
		},
	}
	tool := foodsearch.New(store)

	raw, err := tool.Execute(context.Background(), `{"query_text":"something cheesy"}`)
	require.NoError(t, err)

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.Equal(t, "something cheesy", resp.Query)
	assert.Equal(t, 2, resp.TotalResults)
	require.Len(t, resp.FoodItems, 2)
	assert.Equal(t, "item1", resp.FoodItems[0].ID)
	assert.Equal(t, 0.95, resp.FoodItems[0].Score)
	assert.Equal(t, "Margherita Pizza", resp.FoodItems[0].Metadata["name"])

	assert.Equal(t, "something cheesy", store.lastQuery)
	assert.Equal(t, 10, store.lastLimit)
}

func TestExecuteFilters(t *testing.T) {
	store := &fakeVectorStore{}
	tool := foodsearch.New(store)

	_, err := tool.Execute(context.Background(),
		`{"query_text":"lunch","cuisine":"Italian","dietary_tags":["Vegetarian"],"max_price":12.5,"top_k":3}`)
	require.NoError(t, err)

	assert.Equal(t, 3, store.lastLimit)
	require.Len(t, store.lastFilters, 3)

	byField := map[string]interfaces.Filter{}
	for _, f := range store.lastFilters {
		byField[f.Field] = f
	}

	assert.Equal(t, interfaces.FilterEqual, byField["cuisine"].Operator)
	assert.Equal(t, "italian", byField["cuisine"].Value)
	assert.Equal(t, interfaces.FilterContainsAny, byField["dietary_tags"].Operator)
	assert.Equal(t, []string{"vegetarian"}, byField["dietary_tags"].Value)
	assert.Equal(t, interfaces.FilterLessThanEqual, byField["price"].Operator)
	assert.Equal(t, 12.5, byField["price"].Value)
}

func TestExecuteAllergenExclusion(t *testing.T) {
	store := &fakeVectorStore{
		results: []interfaces.SearchResult{
			match("safe", 0.9, map[string]interface{}{
				"name":      "Veggie Bowl",
				"allergens": []interface{}{"soy"},
			}),
			match("unsafe", 0.8, map[string]interface{}{
				"name":      "Peanut Noodles",
				"allergens": []interface{}{"Peanuts", "soy"},
			}),
		},
	}
	tool := foodsearch.New(store)

	raw, err := tool.Execute(context.Background(),
		`{"query_text":"noodles","top_k":5,"exclude_allergens":["peanuts"]}`)
	require.NoError(t, err)

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	require.Len(t, resp.FoodItems, 1)
	assert.Equal(t, "safe", resp.FoodItems[0].ID)

	// The store is over-fetched so the post-filter can still fill top_k
	assert.Equal(t, 15, store.lastLimit)
}

func TestExecuteMissingQuery(t *testing.T) {
	tool := foodsearch.New(&fakeVectorStore{})

	_, err := tool.Execute(context.Background(), `{"top_k":5}`)
	assert.Error(t, err)
}

func TestExecuteInvalidJSON(t *testing.T) {
	tool := foodsearch.New(&fakeVectorStore{})

	_, err := tool.Execute(context.Background(), "not json")
	assert.Error(t, err)
}

func TestParameters(t *testing.T) {
	tool := foodsearch.New(&fakeVectorStore{}, foodsearch.WithDefaultTopK(7))
	params := tool.Parameters()

	require.Contains(t, params, "query_text")
	assert.True(t, params["query_text"].Required)
	assert.Equal(t, 7, params["top_k"].Default)
	assert.Equal(t, "array", params["exclude_allergens"].Type)
}
