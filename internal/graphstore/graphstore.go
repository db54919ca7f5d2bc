// Package graphstore records document provenance as a
// Tenant -> Project -> Document graph.
package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	neo4jdb "github.com/mars-analytics/rag-platform/internal/database/neo4j"
	"github.com/mars-analytics/rag-platform/internal/models"
)

// Store writes and reads the provenance graph.
type Store interface {
	MergeDocument(ctx context.Context, node models.DocumentNode) error
	CountDocuments(ctx context.Context, projectID string) (int64, error)
}

// Neo4jStore is the production Store backed by Neo4j.
type Neo4jStore struct {
	client *neo4jdb.Client
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore wraps an established Neo4j connection.
func NewNeo4jStore(client *neo4jdb.Client) *Neo4jStore {
	return &Neo4jStore{client: client}
}

// MergeDocument upserts the tenant, project and document nodes and their
// edges in one transaction. MERGE keys on the ids, so reprocessing the same
// document updates nothing on match and the operation stays idempotent.
func (s *Neo4jStore) MergeDocument(ctx context.Context, node models.DocumentNode) error {
	const query = `
		MERGE (t:Tenant {tenant_id: $tenant_id})
		MERGE (p:Project {project_id: $project_id})
		MERGE (t)-[:HAS_PROJECT]->(p)
		MERGE (d:Document {document_id: $document_id})
		ON CREATE SET
			d.filename = $filename,
			d.mime_type = $mime_type,
			d.size_bytes = $size_bytes,
			d.chunk_count = $chunk_count
		MERGE (p)-[:HAS_DOCUMENT]->(d)`

	params := map[string]any{
		"tenant_id":   node.TenantID,
		"project_id":  node.ProjectID,
		"document_id": node.DocumentID,
		"filename":    node.Filename,
		"mime_type":   node.MimeType,
		"size_bytes":  node.SizeBytes,
		"chunk_count": node.ChunkCount,
	}

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to merge document %s: %w", node.DocumentID, err)
	}
	return nil
}

// CountDocuments returns the number of documents attached to a project.
func (s *Neo4jStore) CountDocuments(ctx context.Context, projectID string) (int64, error) {
	const query = `
		MATCH (:Project {project_id: $project_id})-[:HAS_DOCUMENT]->(d:Document)
		RETURN count(d) AS total`

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, map[string]any{"project_id": projectID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _ := record.Get("total")
		return total, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents for project %s: %w", projectID, err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", result)
	}
	return count, nil
}
