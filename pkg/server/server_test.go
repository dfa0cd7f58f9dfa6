package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/memory"
	"github.com/unifeast/unifeast-agent/pkg/server"
)

// fakeRunner echoes the input and records the conversation ID it ran under
type fakeRunner struct {
	lastInput          string
	lastConversationID string
	err                error
}

func (f *fakeRunner) Run(ctx context.Context, input string) (string, error) {
	f.lastInput = input
	f.lastConversationID, _ = memory.ConversationIDFromContext(ctx)
	if f.err != nil {
		return "", f.err
	}
	return "you said: " + input, nil
}

type fakeSearcher struct {
	lastQuery string
	lastLimit int
	results   []interfaces.SearchResult
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int, options ...interfaces.SearchOption) ([]interfaces.SearchResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	return f.results, f.err
}

func TestRoot(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["service"] != "unifeast-agent" {
		t.Errorf("Unexpected service name: %v", body["service"])
	}
}

func TestHealthAllHealthy(t *testing.T) {
	srv := server.New(
		server.WithHealthCheck("redis", func(ctx context.Context) error { return nil }),
		server.WithHealthCheck("postgres", func(ctx context.Context) error { return nil }),
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", body.Status)
	}
	if body.Services["redis"] != "healthy" || body.Services["postgres"] != "healthy" {
		t.Errorf("Unexpected services: %v", body.Services)
	}
}

func TestHealthUnhealthyDependency(t *testing.T) {
	srv := server.New(
		server.WithHealthCheck("redis", func(ctx context.Context) error { return nil }),
		server.WithHealthCheck("weaviate", func(ctx context.Context) error {
			return fmt.Errorf("connection refused")
		}),
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("Expected unhealthy, got %s", body.Status)
	}
	if !strings.Contains(body.Services["weaviate"], "unhealthy") {
		t.Errorf("Expected weaviate to be unhealthy, got %q", body.Services["weaviate"])
	}
}

func TestChat(t *testing.T) {
	runner := &fakeRunner{}
	srv := server.New(server.WithAgent(runner), server.WithDefaultUserID("test_user_123"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/chat", "application/json",
		strings.NewReader(`{"message":"I want pizza","user_id":"alice","session_id":"s1"}`))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body server.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Response != "you said: I want pizza" {
		t.Errorf("Unexpected response: %q", body.Response)
	}
	if body.UserID != "alice" || body.SessionID != "s1" {
		t.Errorf("Unexpected identity: %s/%s", body.UserID, body.SessionID)
	}
	if runner.lastConversationID != "alice:s1" {
		t.Errorf("Expected conversation alice:s1, got %q", runner.lastConversationID)
	}
}

func TestChatDefaultsIdentity(t *testing.T) {
	runner := &fakeRunner{}
	srv := server.New(server.WithAgent(runner), server.WithDefaultUserID("test_user_123"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/chat", "application/json",
		strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	var body server.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.UserID != "test_user_123" {
		t.Errorf("Expected default user ID, got %q", body.UserID)
	}
	if body.SessionID == "" {
		t.Error("Expected a generated session ID")
	}
	if !strings.HasPrefix(runner.lastConversationID, "test_user_123:") {
		t.Errorf("Unexpected conversation ID: %q", runner.lastConversationID)
	}
}

func TestChatMissingMessage(t *testing.T) {
	srv := server.New(server.WithAgent(&fakeRunner{}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestChatFallbackWithoutAgent(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/chat", "application/json",
		strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body server.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if !strings.Contains(body.Response, "unavailable") {
		t.Errorf("Expected a fallback reply, got %q", body.Response)
	}
}

func TestChatAgentError(t *testing.T) {
	srv := server.New(server.WithAgent(&fakeRunner{err: fmt.Errorf("llm exploded")}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/chat", "application/json",
		strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("POST /chat failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestFoodSearch(t *testing.T) {
	searcher := &fakeSearcher{
		results: []interfaces.SearchResult{
			{
				Document: interfaces.Document{
					ID:       "item1",
					Metadata: map[string]interface{}{"name": "Margherita Pizza"},
				},
				Score: 0.93,
			},
		},
	}
	srv := server.New(server.WithSearcher(searcher), server.WithDefaultTopK(10))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/search/food?query=pizza&top_k=3", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /search/food failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if searcher.lastQuery != "pizza" || searcher.lastLimit != 3 {
		t.Errorf("Unexpected search: query=%q limit=%d", searcher.lastQuery, searcher.lastLimit)
	}

	var body struct {
		Query        string `json:"query"`
		TotalResults int    `json:"total_results"`
		FoodItems    []struct {
			ID       string                 `json:"id"`
			Score    float64                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"food_items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Query != "pizza" || body.TotalResults != 1 {
		t.Errorf("Unexpected body: %+v", body)
	}
	if body.FoodItems[0].ID != "item1" || body.FoodItems[0].Score != 0.93 {
		t.Errorf("Unexpected item: %+v", body.FoodItems[0])
	}
}

func TestFoodSearchDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	srv := server.New(server.WithSearcher(searcher), server.WithDefaultTopK(7))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/search/food?query=noodles", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /search/food failed: %v", err)
	}
	resp.Body.Close()

	if searcher.lastLimit != 7 {
		t.Errorf("Expected default top_k 7, got %d", searcher.lastLimit)
	}
}

func TestFoodSearchValidation(t *testing.T) {
	srv := server.New(server.WithSearcher(&fakeSearcher{}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Missing query
	resp, err := http.Post(ts.URL+"/search/food", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /search/food failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", resp.StatusCode)
	}

	// Bad top_k
	resp, err = http.Post(ts.URL+"/search/food?query=x&top_k=zero", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /search/food failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad top_k, got %d", resp.StatusCode)
	}

	// Wrong method
	resp, err = http.Get(ts.URL + "/search/food?query=x")
	if err != nil {
		t.Fatalf("GET /search/food failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", resp.StatusCode)
	}
}

func TestUnknownPath(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
