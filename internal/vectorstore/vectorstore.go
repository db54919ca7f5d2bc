// Package vectorstore persists embedded chunks and serves filtered
// similarity search over them.
package vectorstore

import (
	"context"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// Index is the vector index the pipeline writes to and the retriever reads
// from. Upsert is keyed by the point id, so re-indexing an unchanged chunk
// overwrites its previous version instead of duplicating it.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []models.IndexedPoint) error
	// Search returns the closest chunks restricted to one tenant and, when
	// projectIDs is non-empty, to the given projects.
	Search(ctx context.Context, vector []float32, tenantID string, projectIDs []string, limit int) ([]models.ScoredChunk, error)
}
