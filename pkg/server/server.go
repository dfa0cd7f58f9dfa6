package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/logging"
	"github.com/unifeast/unifeast-agent/pkg/memory"
)

// Runner is the conversational entry point the chat endpoint drives
type Runner interface {
	Run(ctx context.Context, input string) (string, error)
}

// Searcher is the vector search surface behind the food search endpoint
type Searcher interface {
	Search(ctx context.Context, query string, limit int, options ...interfaces.SearchOption) ([]interfaces.SearchResult, error)
}

// HealthCheck reports whether one backing service is reachable
type HealthCheck func(ctx context.Context) error

// Server exposes the chatbot over HTTP
type Server struct {
	router        *http.ServeMux
	agent         Runner
	searcher      Searcher
	checks        map[string]HealthCheck
	logger        logging.Logger
	defaultUserID string
	defaultTopK   int
	httpServer    *http.Server
}

// Option represents an option for configuring the server
type Option func(*Server)

// WithAgent sets the agent behind the chat endpoint. A nil agent keeps
// the endpoint up with a fallback reply.
func WithAgent(agent Runner) Option {
	return func(s *Server) {
		s.agent = agent
	}
}

// WithSearcher sets the vector search behind the food search endpoint
func WithSearcher(searcher Searcher) Option {
	return func(s *Server) {
		s.searcher = searcher
	}
}

// WithHealthCheck registers a named dependency health check
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// WithLogger sets the logger for the server
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDefaultUserID sets the user ID assigned to anonymous chats
func WithDefaultUserID(userID string) Option {
	return func(s *Server) {
		s.defaultUserID = userID
	}
}

// WithDefaultTopK sets the result count used when top_k is omitted
func WithDefaultTopK(topK int) Option {
	return func(s *Server) {
		s.defaultTopK = topK
	}
}

// New creates a new HTTP server
func New(options ...Option) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		checks:        make(map[string]HealthCheck),
		logger:        logging.New(),
		defaultUserID: "test_user_123",
		defaultTopK:   10,
	}

	for _, option := range options {
		option(s)
	}

	s.router.HandleFunc("/", s.handleRoot)
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/chat", s.handleChat)
	s.router.HandleFunc("/search/food", s.handleFoodSearch)

	return s
}

// Handler returns the server's HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// ChatRequest is the body of the chat endpoint
type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the reply of the chat endpoint
type ChatResponse struct {
	Response  string `json:"response"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "unifeast-agent",
		"status":  "running",
		"endpoints": map[string]string{
			"chat":        "POST /chat",
			"food_search": "POST /search/food",
			"health":      "GET /health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			services[name] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
			continue
		}
		services[name] = "healthy"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":          status,
		"agent_available": s.agent != nil,
		"services":        services,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = s.defaultUserID
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	resp := ChatResponse{
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if s.agent == nil {
		resp.Response = "The recommendation agent is currently unavailable. Please try again later."
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// Conversations are keyed per user and session so transcripts never
	// leak across users
	ctx := memory.WithConversationID(r.Context(), userID+":"+sessionID)

	answer, err := s.agent.Run(ctx, req.Message)
	if err != nil {
		s.logger.Error(ctx, "Chat turn failed", map[string]interface{}{
			"error":  err.Error(),
			"userId": userID,
		})
		http.Error(w, fmt.Sprintf("chat failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp.Response = answer
	writeJSON(w, http.StatusOK, resp)
}

// foodSearchResult is one vector search match in the endpoint's response
type foodSearchResult struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.searcher == nil {
		http.Error(w, "food search is unavailable", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	topK := s.defaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "top_k must be a positive integer", http.StatusBadRequest)
			return
		}
		topK = parsed
	}

	matches, err := s.searcher.Search(r.Context(), query, topK)
	if err != nil {
		s.logger.Error(r.Context(), "Food search failed", map[string]interface{}{
			"error": err.Error(),
			"query": query,
		})
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}

	results := make([]foodSearchResult, 0, len(matches))
	for _, match := range matches {
		metadata := match.Document.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		results = append(results, foodSearchResult{
			ID:       match.Document.ID,
			Score:    match.Score,
			Metadata: metadata,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":         query,
		"total_results": len(results),
		"food_items":    results,
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
