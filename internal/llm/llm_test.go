package llm

import (
	"testing"

	"github.com/mars-analytics/rag-platform/internal/models"
)

func TestParseArtifactArgs(t *testing.T) {
	call, err := parseArtifactArgs(map[string]any{
		"artifact_type":   "excel_risk_register",
		"project_name":    "North Field",
		"summary_content": "Top risks this quarter.",
	})
	if err != nil {
		t.Fatalf("parseArtifactArgs: %v", err)
	}
	if call.ArtifactType != "excel_risk_register" {
		t.Errorf("ArtifactType = %q", call.ArtifactType)
	}
	if call.ProjectName != "North Field" || call.Summary != "Top risks this quarter." {
		t.Errorf("unexpected call: %+v", call)
	}
}

func TestParseArtifactArgsMissingType(t *testing.T) {
	if _, err := parseArtifactArgs(map[string]any{"summary_content": "x"}); err == nil {
		t.Fatal("expected error when artifact_type is missing")
	}
}

func TestParseArtifactArgsIgnoresNonStringFields(t *testing.T) {
	call, err := parseArtifactArgs(map[string]any{
		"artifact_type": "word_status_report",
		"project_name":  42,
	})
	if err != nil {
		t.Fatalf("parseArtifactArgs: %v", err)
	}
	if call.ProjectName != "" {
		t.Errorf("non-string project_name should be dropped, got %q", call.ProjectName)
	}
}

func TestToOpenAIMessagesOrderAndRoles(t *testing.T) {
	req := Request{
		SystemPrompt: "be helpful",
		History: []models.HistoryEntry{
			{Role: models.SpeakerUser, Content: "hi"},
			{Role: models.SpeakerAssistant, Content: "hello"},
		},
		Message: "what changed?",
	}
	messages := toOpenAIMessages(req)
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	if messages[0].Role != "system" || messages[1].Role != "user" ||
		messages[2].Role != "assistant" || messages[3].Role != "user" {
		t.Errorf("unexpected role order: %v", []string{
			messages[0].Role, messages[1].Role, messages[2].Role, messages[3].Role,
		})
	}
	if messages[3].Content != "what changed?" {
		t.Errorf("last message = %q", messages[3].Content)
	}
}

func TestToGenaiHistoryMapsAssistantToModel(t *testing.T) {
	contents := toGenaiHistory([]models.HistoryEntry{
		{Role: models.SpeakerUser, Content: "q"},
		{Role: models.SpeakerAssistant, Content: "a"},
	})
	if len(contents) != 2 {
		t.Fatalf("got %d contents, want 2", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("first role = %q, want user", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Errorf("second role = %q, want model", contents[1].Role)
	}
}
