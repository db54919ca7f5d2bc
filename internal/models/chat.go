package models

// SpeakerRole identifies who produced a history entry. The stored
// representation is generator-agnostic; translation to a specific
// generation API's vocabulary happens at read time.
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"
	SpeakerAssistant SpeakerRole = "assistant"
	// SpeakerModel is the external generator's name for the assistant role.
	SpeakerModel SpeakerRole = "model"
)

// HistoryEntry is one message in a session's conversation log.
type HistoryEntry struct {
	Role    SpeakerRole `json:"role"`
	Content string      `json:"content"`
}

// Intent is the classified purpose of a user query.
type Intent struct {
	PrimaryIntent    string `json:"primary_intent"`
	RequiresArtifact bool   `json:"requires_artifact"`
}

// Source is one deduplicated provenance entry attached to a reply.
type Source struct {
	File    string  `json:"file"`
	Project string  `json:"project"`
	Score   float32 `json:"score"`
}

// ArtifactCall is a structured side-effect request emitted by the generator
// instead of (or alongside) a text reply.
type ArtifactCall struct {
	ArtifactType string `json:"artifact_type"`
	ProjectName  string `json:"project_name"`
	Summary      string `json:"summary_content"`
}

// GenerateResult is the generator collaborator's reply. Text is empty
// exactly when Artifact is set.
type GenerateResult struct {
	Text     string
	Artifact *ArtifactCall
}
