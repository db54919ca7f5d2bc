package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// OpenAIGenerator produces responses through the OpenAI chat API or any
// compatible endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generation client. baseURL overrides the
// default API endpoint when non-empty.
func NewOpenAIGenerator(apiKey, model, baseURL string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Generate sends one conversation turn to the model. When req.AllowArtifact
// is set the model may answer with an artifact tool call instead of text.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*models.GenerateResult, error) {
	messages := toOpenAIMessages(req)

	chatReq := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	}
	if req.AllowArtifact {
		chatReq.Tools = []openai.Tool{openAIArtifactTool()}
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name != artifactToolName {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to parse artifact arguments: %w", err)
		}
		parsed, err := parseArtifactArgs(args)
		if err != nil {
			return nil, err
		}
		return &models.GenerateResult{Artifact: parsed}, nil
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return nil, fmt.Errorf("model returned an empty response")
	}
	return &models.GenerateResult{Text: text}, nil
}

// ClassifyIntent asks the model to label the message, constraining the
// response to a JSON object.
func (g *OpenAIGenerator) ClassifyIntent(ctx context.Context, message string) (*models.Intent, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(intentPrompt, message),
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify intent: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("intent classification returned no choices")
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse intent: %w", err)
	}
	return &intent, nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, h := range req.History {
		role := openai.ChatMessageRoleUser
		if h.Role != models.SpeakerUser {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: h.Content,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})
}

func openAIArtifactTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        artifactToolName,
			Description: "Generate a downloadable project document from the conversation context.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"artifact_type": {
						"type": "string",
						"enum": ["excel_risk_register", "word_status_report", "pptx_executive_pitch"],
						"description": "Kind of document to produce."
					},
					"project_name": {
						"type": "string",
						"description": "Human-readable project the document is about."
					},
					"summary_content": {
						"type": "string",
						"description": "Content summary the document should be built from."
					}
				},
				"required": ["artifact_type", "summary_content"]
			}`),
		},
	}
}
