package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// GeminiGenerator produces responses through the Google GenAI API.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generation client for the given model name.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

// Generate sends one conversation turn to the model. When req.AllowArtifact
// is set the model may answer with an artifact tool call instead of text.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*models.GenerateResult, error) {
	model := g.client.GenerativeModel(g.modelName)
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.AllowArtifact {
		model.Tools = []*genai.Tool{artifactTool()}
	}

	session := model.StartChat()
	session.History = toGenaiHistory(req.History)

	resp, err := session.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return decodeGenaiResponse(resp)
}

// ClassifyIntent asks the model to label the message, constraining the
// response to JSON so the label is machine-readable.
func (g *GeminiGenerator) ClassifyIntent(ctx context.Context, message string) (*models.Intent, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.GenerationConfig.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(intentPrompt, message)))
	if err != nil {
		return nil, fmt.Errorf("failed to classify intent: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("intent classification returned no text")
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(text), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse intent %q: %w", text, err)
	}
	return &intent, nil
}

func artifactTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        artifactToolName,
			Description: "Generate a downloadable project document from the conversation context.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"artifact_type": {
						Type:        genai.TypeString,
						Description: "Kind of document to produce.",
						Enum:        []string{"excel_risk_register", "word_status_report", "pptx_executive_pitch"},
					},
					"project_name": {
						Type:        genai.TypeString,
						Description: "Human-readable project the document is about.",
					},
					"summary_content": {
						Type:        genai.TypeString,
						Description: "Content summary the document should be built from.",
					},
				},
				Required: []string{"artifact_type", "summary_content"},
			},
		}},
	}
}

func toGenaiHistory(history []models.HistoryEntry) []*genai.Content {
	var contents []*genai.Content
	for _, h := range history {
		role := "user"
		if h.Role != models.SpeakerUser {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(h.Content)},
		})
	}
	return contents
}

// decodeGenaiResponse extracts either the text answer or the artifact tool
// call from the first candidate.
func decodeGenaiResponse(resp *genai.GenerateContentResponse) (*models.GenerateResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.FunctionCall:
			if v.Name == artifactToolName {
				call, err := parseArtifactArgs(v.Args)
				if err != nil {
					return nil, err
				}
				return &models.GenerateResult{Artifact: call}, nil
			}
		case genai.Text:
			sb.WriteString(string(v))
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("model returned an empty response")
	}
	return &models.GenerateResult{Text: text}, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}
