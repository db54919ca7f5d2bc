// Package embedding provides text embedding clients for the supported
// model providers behind a single interface.
package embedding

import (
	"context"
	"fmt"

	"github.com/mars-analytics/rag-platform/internal/config"
)

// Embedder turns text into dense vectors. Implementations must return one
// vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the Embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiEmbedder(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "openai":
		return NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
