// Package orchestrator runs the per-message answer flow: history, context
// retrieval, generation, artifact side-effects and the structured reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/history"
	"github.com/mars-analytics/rag-platform/internal/llm"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// Request is one incoming chat message.
type Request struct {
	SessionID  string
	TenantID   string
	ProjectIDs []string
	Message    string
}

// Response is the orchestrator's structured reply. It is always populated;
// failures inside the flow surface as an apologetic Reply, never as an
// error to the caller.
type Response struct {
	Reply          string          `json:"reply"`
	Sources        []models.Source `json:"sources"`
	RetrievedCount int             `json:"retrieved_count"`
	Intent         models.Intent   `json:"intent"`
}

// ContextRetriever supplies ranked context for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query, tenantID string, projectIDs []string, limit int) ([]models.ContextItem, error)
}

// ArtifactGenerator renders and stores a requested artifact, returning its
// content id.
type ArtifactGenerator interface {
	Generate(ctx context.Context, artifactType, projectName, sessionID, summary string) (string, error)
}

// Orchestrator composes the collaborators into the answer flow.
type Orchestrator struct {
	history   history.Store
	retriever ContextRetriever
	generator llm.Generator
	artifacts ArtifactGenerator
	cfg       config.ChatConfig
	log       *logger.Logger
}

// New wires an Orchestrator from its collaborators.
func New(
	hist history.Store,
	retriever ContextRetriever,
	generator llm.Generator,
	artifacts ArtifactGenerator,
	cfg config.ChatConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		history:   hist,
		retriever: retriever,
		generator: generator,
		artifacts: artifacts,
		cfg:       cfg,
		log:       log,
	}
}

// stageError ties a failure to the flow stage it happened in, so the
// recovery reply can name where things went wrong.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

// ProcessMessage runs the full flow for one message. It never returns an
// error and never panics outward: any failure past the initial history
// append becomes an apologetic reply that is itself recorded in history.
func (o *Orchestrator) ProcessMessage(ctx context.Context, req Request) *Response {
	// Step 1. The user message enters history before anything can fail.
	if err := o.history.Append(ctx, req.SessionID, models.HistoryEntry{
		Role:    models.SpeakerUser,
		Content: req.Message,
	}); err != nil {
		o.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to append user message")
	}

	resp, err := o.answer(ctx, req)
	if err == nil {
		return resp
	}

	stage := "answer"
	cause := err
	var staged *stageError
	if errors.As(err, &staged) {
		stage = staged.stage
		cause = staged.err
	}
	o.log.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
		"session_id": req.SessionID,
		"stage":      stage,
	}).Error("message processing failed")

	reply := fmt.Sprintf("I'm sorry, something went wrong while answering (%s: %v). Please try again.", stage, cause)
	if err := o.history.Append(ctx, req.SessionID, models.HistoryEntry{
		Role:    models.SpeakerAssistant,
		Content: reply,
	}); err != nil {
		o.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to append recovery reply")
	}
	return &Response{Reply: reply}
}

// answer is steps 2 through 8. Panics are converted to stage errors so the
// top-level recovery path handles them like any other failure.
func (o *Orchestrator) answer(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &stageError{stage: "generation", err: fmt.Errorf("panic: %v", r)}
		}
	}()

	// Step 2. Formatted history for the generator.
	entries, err := o.history.Read(ctx, req.SessionID)
	if err != nil {
		return nil, &stageError{stage: "history", err: err}
	}
	formatted := history.FormatForGenerator(entries)
	// The current message is sent as the live turn, not replayed from the log.
	if n := len(formatted); n > 0 && formatted[n-1].Role == models.SpeakerUser && formatted[n-1].Content == req.Message {
		formatted = formatted[:n-1]
	}

	// Step 3. Project name for prompts and artifacts.
	projectName := o.resolveProjectName(req.ProjectIDs)

	// Step 4. Context retrieval.
	items, err := o.retriever.Retrieve(ctx, req.Message, req.TenantID, req.ProjectIDs, o.cfg.RetrieveLimit)
	if err != nil {
		return nil, &stageError{stage: "retrieval", err: err}
	}

	intent := o.classifyIntent(ctx, req.Message)

	// Step 5. Generation.
	result, err := o.generator.Generate(ctx, llm.Request{
		SystemPrompt:  buildSystemPrompt(projectName, items),
		History:       formatted,
		Message:       req.Message,
		AllowArtifact: intent.RequiresArtifact,
	})
	if err != nil {
		return nil, &stageError{stage: "generation", err: err}
	}

	// Step 6. Artifact side-effect, out-of-band from the reply.
	reply := result.Text
	if result.Artifact != nil {
		reply = o.dispatchArtifact(ctx, req.SessionID, projectName, result.Artifact)
	}

	// Step 7. The reply enters history.
	if err := o.history.Append(ctx, req.SessionID, models.HistoryEntry{
		Role:    models.SpeakerAssistant,
		Content: reply,
	}); err != nil {
		return nil, &stageError{stage: "history", err: err}
	}

	// Step 8. Structured response.
	return &Response{
		Reply:          reply,
		Sources:        dedupSources(items),
		RetrievedCount: len(items),
		Intent:         intent,
	}, nil
}

// classifyIntent labels the message, falling back to a plain question on
// any classification failure.
func (o *Orchestrator) classifyIntent(ctx context.Context, message string) models.Intent {
	intent, err := o.generator.ClassifyIntent(ctx, message)
	if err != nil || intent == nil {
		if err != nil {
			o.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("intent classification failed, using default")
		}
		return models.Intent{PrimaryIntent: "question", RequiresArtifact: false}
	}
	return *intent
}

// dispatchArtifact runs the artifact side-effect and produces the user
// facing reply text for it. Generation failure yields an apology naming
// the artifact type; it does not fail the message.
func (o *Orchestrator) dispatchArtifact(ctx context.Context, sessionID, projectName string, call *models.ArtifactCall) string {
	name := call.ProjectName
	if name == "" {
		name = projectName
	}

	contentID, err := o.artifacts.Generate(ctx, call.ArtifactType, name, sessionID, call.Summary)
	if err != nil {
		o.log.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
			"artifact_type": call.ArtifactType,
			"session_id":    sessionID,
		}).Error("artifact generation failed")
		return fmt.Sprintf("I'm sorry, I couldn't generate the requested %s. Please try again later.", call.ArtifactType)
	}

	o.log.WithPayload(map[string]interface{}{
		"artifact_type": call.ArtifactType,
		"content_id":    contentID,
		"session_id":    sessionID,
	}).Info("artifact generated")
	return fmt.Sprintf("I've generated the requested %s for %s. It is ready for download.", call.ArtifactType, name)
}

// resolveProjectName maps the first selected project id to its display
// name, falling back to the configured default label.
func (o *Orchestrator) resolveProjectName(projectIDs []string) string {
	for _, id := range projectIDs {
		if name, ok := o.cfg.ProjectNames[id]; ok {
			return name
		}
	}
	return o.cfg.DefaultProjectName
}

// dedupSources keeps the first hit per (source_file, project_id), in
// retrieval order.
func dedupSources(items []models.ContextItem) []models.Source {
	seen := make(map[string]bool, len(items))
	var sources []models.Source
	for _, item := range items {
		key := item.SourceFile + "\x00" + item.ProjectID
		if seen[key] {
			continue
		}
		seen[key] = true
		sources = append(sources, models.Source{
			File:    item.SourceFile,
			Project: item.ProjectID,
			Score:   item.Score,
		})
	}
	return sources
}

// buildSystemPrompt frames the retrieved context for the generator.
func buildSystemPrompt(projectName string, items []models.ContextItem) string {
	var sb strings.Builder
	sb.WriteString("You are an analyst assistant for the project ")
	sb.WriteString(projectName)
	sb.WriteString(". Answer using the provided document context; say so when the context does not cover the question.\n")

	if len(items) == 0 {
		sb.WriteString("\nNo document context was retrieved for this question.\n")
		return sb.String()
	}

	sb.WriteString("\nContext:\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "[%d] (%s)\n%s\n\n", i+1, item.SourceFile, item.Content)
	}
	return sb.String()
}
