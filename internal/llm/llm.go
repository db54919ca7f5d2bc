// Package llm provides text generation clients for the supported model
// providers behind a single interface, including the artifact tool call
// surface used by the answer orchestrator.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/models"
)

// Request carries everything a single generation call needs. History holds
// prior conversation turns oldest first; Message is the current user turn.
type Request struct {
	SystemPrompt string
	History      []models.HistoryEntry
	Message      string
	// AllowArtifact offers the artifact generation tool to the model.
	AllowArtifact bool
}

// Generator produces model responses. A response carries either text or an
// artifact tool call, never both.
type Generator interface {
	Generate(ctx context.Context, req Request) (*models.GenerateResult, error)
	ClassifyIntent(ctx context.Context, message string) (*models.Intent, error)
}

// New builds the Generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "openai":
		return NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// artifactToolName is the function name the model calls to request a
// generated document instead of answering in text.
const artifactToolName = "generate_artifact"

const intentPrompt = `Classify the user's message for a document assistant.
Respond with a JSON object of the form
{"primary_intent": "<question|artifact_request|chitchat>", "requires_artifact": <true|false>}
and nothing else.

Message: %s`

// parseArtifactArgs converts a tool call's argument map into an
// ArtifactCall, rejecting calls that omit the artifact type.
func parseArtifactArgs(args map[string]any) (*models.ArtifactCall, error) {
	call := &models.ArtifactCall{}
	if v, ok := args["artifact_type"].(string); ok {
		call.ArtifactType = strings.TrimSpace(v)
	}
	if v, ok := args["project_name"].(string); ok {
		call.ProjectName = v
	}
	if v, ok := args["summary_content"].(string); ok {
		call.Summary = v
	}
	if call.ArtifactType == "" {
		return nil, fmt.Errorf("artifact call missing artifact_type")
	}
	return call, nil
}
