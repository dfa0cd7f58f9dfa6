package weaviate

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/logging"
)

// Store implements interfaces.VectorStore backed by a Weaviate class.
// Queries embed the query text with the configured embedder and run a
// nearVector search, so the class does not need a server-side vectorizer.
type Store struct {
	client     *weaviate.Client
	class      string
	embedder   interfaces.Embedder
	logger     logging.Logger
	properties []string
}

// Option represents an option for configuring the store
type Option func(*Store)

// WithClass sets the Weaviate class queried by the store
func WithClass(class string) Option {
	return func(s *Store) {
		s.class = class
	}
}

// WithEmbedder sets the embedder used to vectorize content and queries
func WithEmbedder(embedder interfaces.Embedder) Option {
	return func(s *Store) {
		s.embedder = embedder
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithProperties sets the metadata properties returned by searches
func WithProperties(properties ...string) Option {
	return func(s *Store) {
		s.properties = properties
	}
}

// New creates a new Weaviate-backed vector store
func New(config *interfaces.VectorStoreConfig, options ...Option) (*Store, error) {
	cfg := weaviate.Config{
		Host:   config.Host,
		Scheme: config.Scheme,
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: config.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	store := &Store{
		client: client,
		class:  "Document",
		logger: logging.New(),
	}

	for _, option := range options {
		option(store)
	}

	return store, nil
}

// Ready reports whether the Weaviate instance accepts requests
func (s *Store) Ready(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate readiness check failed: %w", err)
	}
	if !ready {
		return fmt.Errorf("weaviate is not ready")
	}
	return nil
}

// Store stores documents with their embeddings. Documents without a
// vector are embedded from their content first.
func (s *Store) Store(ctx context.Context, documents []interfaces.Document) error {
	if len(documents) == 0 {
		return nil
	}

	batcher := s.client.Batch().ObjectsBatcher()
	for _, doc := range documents {
		vector := doc.Vector
		if vector == nil {
			if s.embedder == nil {
				return fmt.Errorf("document %s has no vector and no embedder is configured", doc.ID)
			}
			var err error
			vector, err = s.embedder.Embed(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
			}
		}

		properties := map[string]interface{}{
			"content": doc.Content,
		}
		for k, v := range doc.Metadata {
			properties[k] = v
		}

		batcher = batcher.WithObjects(&models.Object{
			Class:      s.class,
			ID:         strfmt.UUID(doc.ID),
			Properties: properties,
			Vector:     models.C11yVector(vector),
		})
	}

	resp, err := batcher.Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("failed to store object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}

	s.logger.Debug(ctx, "Stored documents in weaviate", map[string]interface{}{
		"class": s.class,
		"count": len(documents),
	})

	return nil
}

// Search embeds the query and returns the closest documents
func (s *Store) Search(ctx context.Context, query string, limit int, options ...interfaces.SearchOption) ([]interfaces.SearchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	opts := &interfaces.SearchOptions{}
	for _, option := range options {
		option(opts)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	builder := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(s.fields()...).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)).
		WithLimit(limit)

	if where := buildWhere(opts.Filters); where != nil {
		builder = builder.WithWhere(where)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("search returned errors: %s", resp.Errors[0].Message)
	}

	return parseResults(resp.Data, s.class)
}

// Get retrieves documents by ID
func (s *Store) Get(ctx context.Context, ids []string) ([]interfaces.Document, error) {
	documents := make([]interfaces.Document, 0, len(ids))
	for _, id := range ids {
		objects, err := s.client.Data().ObjectsGetter().
			WithClassName(s.class).
			WithID(id).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get document %s: %w", id, err)
		}
		for _, obj := range objects {
			documents = append(documents, objectToDocument(obj))
		}
	}
	return documents, nil
}

// Delete removes documents by ID
func (s *Store) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		err := s.client.Data().Deleter().
			WithClassName(s.class).
			WithID(id).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete document %s: %w", id, err)
		}
	}
	return nil
}

func (s *Store) fields() []graphql.Field {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "certainty"},
		}},
	}
	for _, prop := range s.properties {
		fields = append(fields, graphql.Field{Name: prop})
	}
	return fields
}

// buildWhere converts metadata filters into a Weaviate where clause,
// combining multiple filters with And. Returns nil when there is nothing
// to filter on.
func buildWhere(fs []interfaces.Filter) *filters.WhereBuilder {
	if len(fs) == 0 {
		return nil
	}

	operands := make([]*filters.WhereBuilder, 0, len(fs))
	for _, f := range fs {
		clause := filters.Where().WithPath([]string{f.Field})
		switch f.Operator {
		case interfaces.FilterLessThanEqual:
			clause = clause.WithOperator(filters.LessThanEqual)
		case interfaces.FilterContainsAny:
			clause = clause.WithOperator(filters.ContainsAny)
		default:
			clause = clause.WithOperator(filters.Equal)
		}

		switch v := f.Value.(type) {
		case string:
			clause = clause.WithValueText(v)
		case []string:
			clause = clause.WithValueText(v...)
		case bool:
			clause = clause.WithValueBoolean(v)
		case int:
			clause = clause.WithValueInt(int64(v))
		case int64:
			clause = clause.WithValueInt(v)
		case float64:
			clause = clause.WithValueNumber(v)
		case float32:
			clause = clause.WithValueNumber(float64(v))
		default:
			clause = clause.WithValueText(fmt.Sprintf("%v", v))
		}

		operands = append(operands, clause)
	}

	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

// parseResults walks the GraphQL response shape Get -> class -> objects
func parseResults(data map[string]models.JSONObject, class string) ([]interfaces.SearchResult, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected response format: missing Get")
	}

	objects, ok := get[class].([]interface{})
	if !ok {
		return []interfaces.SearchResult{}, nil
	}

	results := make([]interfaces.SearchResult, 0, len(objects))
	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		doc := interfaces.Document{
			Metadata: make(map[string]interface{}),
		}
		var score float64

		for key, value := range objMap {
			switch key {
			case "content":
				if s, ok := value.(string); ok {
					doc.Content = s
				}
			case "_additional":
				additional, ok := value.(map[string]interface{})
				if !ok {
					continue
				}
				if id, ok := additional["id"].(string); ok {
					doc.ID = id
				}
				if certainty, ok := additional["certainty"].(float64); ok {
					score = certainty
				}
			default:
				doc.Metadata[key] = value
			}
		}

		results = append(results, interfaces.SearchResult{
			Document: doc,
			Score:    score,
		})
	}

	return results, nil
}

func objectToDocument(obj *models.Object) interfaces.Document {
	doc := interfaces.Document{
		ID:       string(obj.ID),
		Metadata: make(map[string]interface{}),
	}
	if properties, ok := obj.Properties.(map[string]interface{}); ok {
		for key, value := range properties {
			if key == "content" {
				if s, ok := value.(string); ok {
					doc.Content = s
				}
				continue
			}
			doc.Metadata[key] = value
		}
	}
	return doc
}
