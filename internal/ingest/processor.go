package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/embedding"
	"github.com/mars-analytics/rag-platform/internal/graphstore"
	"github.com/mars-analytics/rag-platform/internal/ident"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/internal/parser"
	"github.com/mars-analytics/rag-platform/internal/vectorstore"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// SourceFactory builds a tree source authorized with the job's credential.
type SourceFactory func(ctx context.Context, refreshToken string) (drive.TreeSource, error)

// skipError marks a file as intentionally not indexable. Skips are terminal
// and never retried.
type skipError struct {
	reason string
}

func (e *skipError) Error() string { return "skipped: " + e.reason }

// Processor executes one per-file ingestion job end to end: download,
// parse, embed, index, record provenance.
type Processor struct {
	sources  SourceFactory
	parser   *parser.Parser
	embedder embedding.Embedder
	index    vectorstore.Index
	graph    graphstore.Store
	tasks    TaskStore
	log      *logger.Logger

	maxAttempts int
	backoff     time.Duration
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(
	sources SourceFactory,
	p *parser.Parser,
	embedder embedding.Embedder,
	index vectorstore.Index,
	graph graphstore.Store,
	tasks TaskStore,
	cfg config.IngestConfig,
	log *logger.Logger,
) *Processor {
	return &Processor{
		sources:     sources,
		parser:      p,
		embedder:    embedder,
		index:       index,
		graph:       graph,
		tasks:       tasks,
		log:         log,
		maxAttempts: cfg.MaxAttempts,
		backoff:     time.Duration(cfg.BackoffSeconds) * time.Second,
	}
}

// Run executes the job under the retry policy: a fixed pause between
// attempts, a bounded attempt count, and abandonment afterwards. Failures
// are recorded on the task and never surface to the queue, so one poisoned
// file cannot stall the topic.
func (p *Processor) Run(ctx context.Context, job models.ProcessJob) {
	log := p.log.WithPayload(map[string]interface{}{
		"task_id":     job.TaskID,
		"sync_id":     job.SyncID,
		"document_id": job.File.ID,
		"filename":    job.File.Name,
	})

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := p.tasks.MarkRunning(ctx, job.TaskID, attempt); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to mark task running")
		}

		err := p.process(ctx, job)
		if err == nil {
			if err := p.tasks.MarkSuccess(ctx, job.TaskID); err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to mark task success")
			}
			log.Info("file indexed")
			return
		}

		var skip *skipError
		if errors.As(err, &skip) {
			if err := p.tasks.MarkSkipped(ctx, job.TaskID, skip.reason); err != nil {
				log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to mark task skipped")
			}
			log.WithPayload(map[string]interface{}{"reason": skip.reason}).Info("file skipped")
			return
		}

		lastErr = err
		log.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
			"attempt": attempt,
		}).Warn("ingestion attempt failed")

		if attempt < p.maxAttempts {
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = p.maxAttempts
			}
		}
	}

	if err := p.tasks.MarkFailed(ctx, job.TaskID, lastErr.Error()); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to mark task failed")
	}
	log.Error("file abandoned after retry budget")
}

// process is one attempt at the ingestion pipeline.
func (p *Processor) process(ctx context.Context, job models.ProcessJob) error {
	source, err := p.sources(ctx, job.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to build source: %w", err)
	}

	data, effectiveMime, err := source.Download(ctx, job.File)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", job.File.ID, err)
	}
	if len(data) == 0 {
		return &skipError{reason: "empty file content"}
	}

	texts := p.parser.ParseAndChunk(data, job.File.Name, effectiveMime)
	if len(texts) == 0 {
		return &skipError{reason: "no extractable text"}
	}

	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			Content:    text,
			DocumentID: job.File.ID,
			ProjectID:  job.ProjectID,
			TenantID:   job.TenantID,
			SourceFile: job.File.Name,
			ChunkID:    fmt.Sprintf("%s-%d", job.File.ID, i),
		}
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	// A misaligned batch would attach wrong vectors to payloads; refuse it.
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks))
	}

	points := make([]models.IndexedPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = models.IndexedPoint{
			ID:      ident.StableID(chunk.ChunkID),
			Vector:  vectors[i],
			Payload: chunk,
		}
	}

	if err := p.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	node := models.DocumentNode{
		DocumentID: job.File.ID,
		Filename:   job.File.Name,
		ProjectID:  job.ProjectID,
		TenantID:   job.TenantID,
		MimeType:   effectiveMime,
		SizeBytes:  job.File.Size,
		ChunkCount: len(chunks),
	}
	if err := p.graph.MergeDocument(ctx, node); err != nil {
		return fmt.Errorf("failed to merge document node: %w", err)
	}
	return nil
}
