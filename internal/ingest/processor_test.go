package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/internal/parser"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

type memTaskStore struct {
	mu      sync.Mutex
	records map[string]*models.TaskRecord
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{records: make(map[string]*models.TaskRecord)}
}

func (s *memTaskStore) Create(_ context.Context, record models.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = &record
	return nil
}

func (s *memTaskStore) MarkRunning(_ context.Context, taskID string, attempt int) error {
	return s.set(taskID, func(r *models.TaskRecord) {
		r.Status = models.TaskStatusRunning
		r.Attempts = attempt
	})
}

func (s *memTaskStore) MarkSuccess(_ context.Context, taskID string) error {
	return s.set(taskID, func(r *models.TaskRecord) { r.Status = models.TaskStatusSuccess })
}

func (s *memTaskStore) MarkSkipped(_ context.Context, taskID, reason string) error {
	return s.set(taskID, func(r *models.TaskRecord) {
		r.Status = models.TaskStatusSkipped
		r.Error = reason
	})
}

func (s *memTaskStore) MarkFailed(_ context.Context, taskID, reason string) error {
	return s.set(taskID, func(r *models.TaskRecord) {
		r.Status = models.TaskStatusFailed
		r.Error = reason
	})
}

func (s *memTaskStore) GetBySync(_ context.Context, syncID string) ([]models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TaskRecord
	for _, r := range s.records {
		if r.SyncID == syncID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memTaskStore) set(taskID string, apply func(*models.TaskRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[taskID]
	if !ok {
		record = &models.TaskRecord{ID: taskID}
		s.records[taskID] = record
	}
	apply(record)
	return nil
}

func (s *memTaskStore) get(taskID string) models.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[taskID]
}

type batchEmbedder struct{}

func (batchEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (batchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

// memIndex stores points keyed by id, mirroring upsert semantics.
type memIndex struct {
	mu      sync.Mutex
	points  map[int64]models.IndexedPoint
	upserts int
}

func newMemIndex() *memIndex {
	return &memIndex{points: make(map[int64]models.IndexedPoint)}
}

func (m *memIndex) EnsureCollection(context.Context) error { return nil }

func (m *memIndex) Upsert(_ context.Context, points []models.IndexedPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

func (m *memIndex) Search(context.Context, []float32, string, []string, int) ([]models.ScoredChunk, error) {
	return nil, nil
}

type memGraph struct {
	mu    sync.Mutex
	nodes map[string]models.DocumentNode
}

func newMemGraph() *memGraph { return &memGraph{nodes: make(map[string]models.DocumentNode)} }

func (g *memGraph) MergeDocument(_ context.Context, node models.DocumentNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[node.DocumentID]; !exists {
		g.nodes[node.DocumentID] = node
	}
	return nil
}

func (g *memGraph) CountDocuments(_ context.Context, projectID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var n int64
	for _, node := range g.nodes {
		if node.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

// downloadSource serves fixed file bytes and can be set to fail.
type downloadSource struct {
	content map[string][]byte
	err     error
}

func (d *downloadSource) ListChildren(context.Context, string, string) ([]models.RemoteItem, string, error) {
	return nil, "", errors.New("not implemented")
}

func (d *downloadSource) Download(_ context.Context, item models.RemoteItem) ([]byte, string, error) {
	if d.err != nil {
		return nil, "", d.err
	}
	return d.content[item.ID], "text/plain", nil
}

func factoryFor(src drive.TreeSource) SourceFactory {
	return func(context.Context, string) (drive.TreeSource, error) { return src, nil }
}

func newTestProcessor(src drive.TreeSource, tasks TaskStore, index *memIndex, graph *memGraph) *Processor {
	log := logger.New("ingest-test", "", "")
	return NewProcessor(
		factoryFor(src),
		parser.New(log),
		batchEmbedder{},
		index,
		graph,
		tasks,
		config.IngestConfig{MaxAttempts: 3, BackoffSeconds: 0, Workers: 1},
		log,
	)
}

func textJob(taskID, fileID string) models.ProcessJob {
	return models.ProcessJob{
		TaskID:    taskID,
		SyncID:    "sync-1",
		File:      models.RemoteItem{ID: fileID, Name: fileID + ".txt", Kind: models.ItemKindFile, MimeType: "text/plain", Size: 64},
		ProjectID: "p1",
		TenantID:  "1",
	}
}

func TestRunIndexesTextFile(t *testing.T) {
	content := "Report\n\n" + strings.Repeat("Observations from the latest field survey. ", 10)
	src := &downloadSource{content: map[string][]byte{"doc-1": []byte(content)}}
	tasks := newMemTaskStore()
	index := newMemIndex()
	graph := newMemGraph()

	p := newTestProcessor(src, tasks, index, graph)
	p.Run(context.Background(), textJob("t1", "doc-1"))

	if got := tasks.get("t1").Status; got != models.TaskStatusSuccess {
		t.Fatalf("task status = %s, want success", got)
	}
	if len(index.points) == 0 {
		t.Error("no points indexed")
	}
	count, _ := graph.CountDocuments(context.Background(), "p1")
	if count != 1 {
		t.Errorf("graph has %d documents, want 1", count)
	}
}

func TestRunIsIdempotentAcrossReprocessing(t *testing.T) {
	content := "Notes\n\n" + strings.Repeat("Stable content that does not change between runs. ", 8)
	src := &downloadSource{content: map[string][]byte{"doc-1": []byte(content)}}
	tasks := newMemTaskStore()
	index := newMemIndex()
	graph := newMemGraph()
	p := newTestProcessor(src, tasks, index, graph)

	p.Run(context.Background(), textJob("t1", "doc-1"))
	firstCount := len(index.points)

	p.Run(context.Background(), textJob("t2", "doc-1"))

	if len(index.points) != firstCount {
		t.Errorf("reprocessing grew the index from %d to %d points", firstCount, len(index.points))
	}
	if index.upserts != 2 {
		t.Errorf("expected 2 upsert batches, got %d", index.upserts)
	}
}

func TestRunSkipsEmptyDownload(t *testing.T) {
	src := &downloadSource{content: map[string][]byte{"doc-1": nil}}
	tasks := newMemTaskStore()
	p := newTestProcessor(src, tasks, newMemIndex(), newMemGraph())

	p.Run(context.Background(), textJob("t1", "doc-1"))

	record := tasks.get("t1")
	if record.Status != models.TaskStatusSkipped {
		t.Fatalf("task status = %s, want skipped", record.Status)
	}
	if record.Attempts != 1 {
		t.Errorf("skip consumed %d attempts, want 1", record.Attempts)
	}
}

func TestRunSkipsUnparseableFile(t *testing.T) {
	src := &downloadSource{content: map[string][]byte{"doc-1": {0x00, 0x01, 0x02, 0x03}}}
	tasks := newMemTaskStore()
	index := newMemIndex()
	p := newTestProcessor(src, tasks, index, newMemGraph())

	job := textJob("t1", "doc-1")
	job.File.MimeType = "application/octet-stream"
	p.Run(context.Background(), job)

	if got := tasks.get("t1").Status; got != models.TaskStatusSkipped {
		t.Fatalf("task status = %s, want skipped", got)
	}
	if len(index.points) != 0 {
		t.Error("unparseable file still produced index points")
	}
}

func TestRunRetriesThenAbandons(t *testing.T) {
	src := &downloadSource{err: fmt.Errorf("remote unavailable")}
	tasks := newMemTaskStore()
	p := newTestProcessor(src, tasks, newMemIndex(), newMemGraph())

	p.Run(context.Background(), textJob("t1", "doc-1"))

	record := tasks.get("t1")
	if record.Status != models.TaskStatusFailed {
		t.Fatalf("task status = %s, want failed", record.Status)
	}
	if record.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", record.Attempts)
	}
	if !strings.Contains(record.Error, "remote unavailable") {
		t.Errorf("failure reason not recorded: %q", record.Error)
	}
}
