// Package artifact renders downloadable project documents requested
// through generator tool calls and stores them by content id.
package artifact

import (
	"context"
	"fmt"
	"time"
)

// Type identifies a renderable document kind.
type Type string

const (
	TypeExcelRiskRegister  Type = "excel_risk_register"
	TypeWordStatusReport   Type = "word_status_report"
	TypePptxExecutivePitch Type = "pptx_executive_pitch"
)

// ErrUnknownType reports a tag outside the Type enum.
type ErrUnknownType struct {
	Tag string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown artifact type %q", e.Tag)
}

// RenderInput is everything a renderer needs to produce a document.
type RenderInput struct {
	ProjectName string
	SessionID   string
	Summary     string
	GeneratedAt time.Time
}

type renderFunc func(RenderInput) ([]byte, error)

// renderers is the complete dispatch table. Routing goes through ParseType
// and this map only; call sites never compare type strings.
var renderers = map[Type]renderFunc{
	TypeExcelRiskRegister:  renderRiskRegister,
	TypeWordStatusReport:   renderStatusReport,
	TypePptxExecutivePitch: renderExecutivePitch,
}

// ParseType validates a raw tag against the enum.
func ParseType(tag string) (Type, error) {
	t := Type(tag)
	if _, ok := renderers[t]; !ok {
		return "", &ErrUnknownType{Tag: tag}
	}
	return t, nil
}

// Service renders artifacts and persists them in the content store.
type Service struct {
	store ContentStore
	now   func() time.Time
}

// NewService returns a Service writing to store.
func NewService(store ContentStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Generate renders the requested artifact and returns the content id under
// which its bytes were stored.
func (s *Service) Generate(ctx context.Context, rawType, projectName, sessionID, summary string) (string, error) {
	t, err := ParseType(rawType)
	if err != nil {
		return "", err
	}

	data, err := renderers[t](RenderInput{
		ProjectName: projectName,
		SessionID:   sessionID,
		Summary:     summary,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t, err)
	}

	id, err := s.store.Put(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", t, err)
	}
	return id, nil
}
