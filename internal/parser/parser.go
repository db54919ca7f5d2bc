// Package parser extracts text from source documents and splits it into
// retrieval chunks. Section structure is derived from document titles so
// chunks keep their surrounding context.
package parser

import (
	"fmt"
	"runtime/debug"

	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// Parser converts raw file bytes into text chunks ready for embedding.
type Parser struct {
	log *logger.Logger
}

// New returns a Parser that reports extraction failures through log.
func New(log *logger.Logger) *Parser {
	return &Parser{log: log}
}

// ParseAndChunk extracts the document's text and returns its chunks in
// reading order. A file that cannot be parsed yields an empty slice, never
// an error: unparseable files are skipped upstream, not retried.
func (p *Parser) ParseAndChunk(content []byte, filename, mimeType string) (chunks []string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithError(models.ErrorInfo{
				Message: fmt.Sprintf("panic while parsing %q: %v", filename, r),
				Stack:   string(debug.Stack()),
			}).Error("document parsing panicked")
			chunks = nil
		}
	}()

	elements, err := partition(content, filename, mimeType)
	if err != nil {
		p.log.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
			"filename":  filename,
			"mime_type": mimeType,
		}).Warn("failed to partition document, skipping")
		return nil
	}

	return chunk(elements)
}
