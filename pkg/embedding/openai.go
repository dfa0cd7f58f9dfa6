package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIEmbedder converts text into embedding vectors using the OpenAI
// embeddings API
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// EmbedderOption represents an option for configuring the embedder
type EmbedderOption func(*OpenAIEmbedder)

// WithBaseURL sets the base URL for the embeddings API
func WithBaseURL(baseURL string, apiKey string) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.client = openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL))
	}
}

// NewOpenAIEmbedder creates a new embedder for the given model
func NewOpenAIEmbedder(apiKey, model string, options ...EmbedderOption) *OpenAIEmbedder {
	embedder := &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

// Embed returns the embedding vector for the given text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	return vector, nil
}
