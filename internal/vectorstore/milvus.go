package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/models"
)

// Schema fields of the chunk collection.
const (
	FieldID         = "id"
	FieldEmbedding  = "embedding"
	FieldContent    = "content"
	FieldDocumentID = "document_id"
	FieldProjectID  = "project_id"
	FieldTenantID   = "tenant_id"
	FieldSourceFile = "source_file"
	FieldChunkID    = "chunk_id"
)

const (
	contentMaxLength = 4096
	metaMaxLength    = 512
)

// scalarIndexFields are the payload fields every search filters on; they get
// scalar indexes at collection creation so filtered search does not scan.
var scalarIndexFields = []string{FieldTenantID, FieldProjectID}

// MilvusIndex is the production Index backed by a Milvus collection.
type MilvusIndex struct {
	client     client.Client
	collection string
	dim        int
}

var _ Index = (*MilvusIndex)(nil)

// NewMilvusIndex wraps an established Milvus connection.
func NewMilvusIndex(c client.Client, cfg config.MilvusConfig) *MilvusIndex {
	return &MilvusIndex{
		client:     c,
		collection: cfg.Collection,
		dim:        cfg.Dim,
	}
}

// EnsureCollection creates the chunk collection, its index and loads it, all
// idempotently. The primary key is supplied by the caller, not auto
// generated, which is what makes upserts idempotent across runs.
func (m *MilvusIndex) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", m.collection, err)
	}

	if !has {
		schema := entity.NewSchema().WithName(m.collection).
			WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dim))).
			WithField(entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(contentMaxLength)).
			WithField(entity.NewField().WithName(FieldDocumentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldProjectID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldTenantID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldSourceFile).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength)).
			WithField(entity.NewField().WithName(FieldChunkID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(metaMaxLength))

		if err := m.client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", m.collection, err)
		}

		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := m.client.CreateIndex(ctx, m.collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", m.collection, err)
		}

		for _, field := range scalarIndexFields {
			if err := m.client.CreateIndex(ctx, m.collection, field, entity.NewScalarIndex(), false); err != nil {
				return fmt.Errorf("failed to create scalar index on %s.%s: %w", m.collection, field, err)
			}
		}
	}

	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", m.collection, err)
	}
	return nil
}

// Upsert writes the points as one batch of columns.
func (m *MilvusIndex) Upsert(ctx context.Context, points []models.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}

	ids := make([]int64, len(points))
	vectors := make([][]float32, len(points))
	contents := make([]string, len(points))
	documentIDs := make([]string, len(points))
	projectIDs := make([]string, len(points))
	tenantIDs := make([]string, len(points))
	sourceFiles := make([]string, len(points))
	chunkIDs := make([]string, len(points))

	for i, p := range points {
		ids[i] = p.ID
		vectors[i] = p.Vector
		contents[i] = p.Payload.Content
		documentIDs[i] = p.Payload.DocumentID
		projectIDs[i] = p.Payload.ProjectID
		tenantIDs[i] = p.Payload.TenantID
		sourceFiles[i] = p.Payload.SourceFile
		chunkIDs[i] = p.Payload.ChunkID
	}

	_, err := m.client.Upsert(ctx, m.collection, "",
		entity.NewColumnInt64(FieldID, ids),
		entity.NewColumnFloatVector(FieldEmbedding, m.dim, vectors),
		entity.NewColumnVarChar(FieldContent, contents),
		entity.NewColumnVarChar(FieldDocumentID, documentIDs),
		entity.NewColumnVarChar(FieldProjectID, projectIDs),
		entity.NewColumnVarChar(FieldTenantID, tenantIDs),
		entity.NewColumnVarChar(FieldSourceFile, sourceFiles),
		entity.NewColumnVarChar(FieldChunkID, chunkIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search runs a filtered similarity search and maps the hits back to chunks.
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, tenantID string, projectIDs []string, limit int) ([]models.ScoredChunk, error) {
	expr := buildFilterExpr(tenantID, projectIDs)

	searchParams, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	outputFields := []string{FieldContent, FieldDocumentID, FieldProjectID, FieldTenantID, FieldSourceFile, FieldChunkID}
	results, err := m.client.Search(
		ctx, m.collection, nil, expr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.COSINE, limit, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", m.collection, err)
	}

	var hits []models.ScoredChunk
	for _, res := range results {
		columns := map[string][]string{}
		for _, field := range res.Fields {
			if col, ok := field.(*entity.ColumnVarChar); ok {
				columns[col.Name()] = col.Data()
			}
		}
		at := func(name string, i int) string {
			if data := columns[name]; i < len(data) {
				return data[i]
			}
			return ""
		}

		for i := 0; i < res.ResultCount; i++ {
			hits = append(hits, models.ScoredChunk{
				Score: res.Scores[i],
				Payload: models.Chunk{
					Content:    at(FieldContent, i),
					DocumentID: at(FieldDocumentID, i),
					ProjectID:  at(FieldProjectID, i),
					TenantID:   at(FieldTenantID, i),
					SourceFile: at(FieldSourceFile, i),
					ChunkID:    at(FieldChunkID, i),
				},
			})
		}
	}
	return hits, nil
}

// buildFilterExpr renders the mandatory tenant condition plus the optional
// project membership condition as a Milvus boolean expression.
func buildFilterExpr(tenantID string, projectIDs []string) string {
	expr := fmt.Sprintf("%s == %s", FieldTenantID, strconv.Quote(tenantID))
	if len(projectIDs) == 0 {
		return expr
	}

	quoted := make([]string, len(projectIDs))
	for i, id := range projectIDs {
		quoted[i] = strconv.Quote(id)
	}
	return fmt.Sprintf("%s and %s in [%s]", expr, FieldProjectID, strings.Join(quoted, ", "))
}
