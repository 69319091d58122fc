package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns free text into fixed-length vectors via an
// OpenAI-compatible embeddings endpoint.
type Embedder struct {
	embedder *embeddings.EmbedderImpl
}

// NewEmbedder builds an embedding client. The endpoint may differ from the
// completion endpoint; embedding and completion models usually do.
func NewEmbedder(baseURL, token, model string) (*Embedder, error) {
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return &Embedder{embedder: embedder}, nil
}

// EmbedQuery returns the embedding vector for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, nil
}

// EmbedDocuments embeds a batch of document texts, used when loading the
// knowledge base.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	return vecs, nil
}
