package interfaces

import "context"

// Document represents a document stored in a vector store
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]interface{}
}

// SearchResult represents a single vector search match
type SearchResult struct {
	Document Document
	Score    float64
}

// VectorStore represents a vector search provider
type VectorStore interface {
	// Store stores documents with their embeddings
	Store(ctx context.Context, documents []Document) error

	// Search performs a semantic search and returns the top matches
	Search(ctx context.Context, query string, limit int, options ...SearchOption) ([]SearchResult, error)

	// Get retrieves documents by ID
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by ID
	Delete(ctx context.Context, ids []string) error
}

// VectorStoreConfig holds connection configuration for a vector store
type VectorStoreConfig struct {
	Host   string
	Scheme string
	APIKey string
}

// FilterOperator identifies a metadata filter comparison
type FilterOperator string

const (
	FilterEqual         FilterOperator = "Equal"
	FilterLessThanEqual FilterOperator = "LessThanEqual"
	FilterContainsAny   FilterOperator = "ContainsAny"
)

// Filter restricts a search to documents whose metadata matches
type Filter struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

// SearchOption represents an option for a vector search
type SearchOption func(options *SearchOptions)

// SearchOptions contains configuration for a vector search
type SearchOptions struct {
	Filters []Filter
}

// WithFilters creates a SearchOption to apply metadata filters
func WithFilters(filters ...Filter) SearchOption {
	return func(options *SearchOptions) {
		options.Filters = append(options.Filters, filters...)
	}
}

// Embedder converts text into an embedding vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
