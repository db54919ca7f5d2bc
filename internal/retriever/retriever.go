// Package retriever turns a user query into ranked context for the answer
// generator.
package retriever

import (
	"context"
	"fmt"

	"github.com/mars-analytics/rag-platform/internal/embedding"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/internal/tenant"
	"github.com/mars-analytics/rag-platform/internal/vectorstore"
)

// unknownField stands in for payload fields the index did not return, so
// downstream formatting never renders empty provenance.
const unknownField = "unknown"

// Retriever embeds queries and searches the vector index within one
// tenant's slice of the data.
type Retriever struct {
	embedder   embedding.Embedder
	index      vectorstore.Index
	normalizer *tenant.Normalizer
}

// New returns a Retriever over the given collaborators.
func New(embedder embedding.Embedder, index vectorstore.Index, normalizer *tenant.Normalizer) *Retriever {
	return &Retriever{embedder: embedder, index: index, normalizer: normalizer}
}

// Retrieve embeds the query once and returns the closest chunks for the
// tenant, restricted to projectIDs when non-empty. An empty result is not
// an error; the caller decides how to answer without context.
func (r *Retriever) Retrieve(ctx context.Context, query, tenantID string, projectIDs []string, limit int) ([]models.ContextItem, error) {
	canonical := r.normalizer.Normalize(tenantID)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, canonical, projectIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	items := make([]models.ContextItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, models.ContextItem{
			Content:    hit.Payload.Content,
			Score:      hit.Score,
			SourceFile: orUnknown(hit.Payload.SourceFile),
			ProjectID:  orUnknown(hit.Payload.ProjectID),
			DocumentID: orUnknown(hit.Payload.DocumentID),
		})
	}
	return items, nil
}

func orUnknown(value string) string {
	if value == "" {
		return unknownField
	}
	return value
}
