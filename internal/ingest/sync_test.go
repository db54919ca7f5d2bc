package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mars-analytics/rag-platform/internal/credentials"
	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

type fixedCreds struct {
	token string
	err   error
}

func (c fixedCreds) RefreshToken(context.Context, string) (string, error) {
	return c.token, c.err
}

type capturePublisher struct {
	mu   sync.Mutex
	jobs []models.ProcessJob
}

func (p *capturePublisher) Publish(_ context.Context, job models.ProcessJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

// treeSource serves a static listing; Download is unused by sync.
type treeSource struct {
	children map[string][]models.RemoteItem
}

func (t *treeSource) ListChildren(_ context.Context, folderID, _ string) ([]models.RemoteItem, string, error) {
	return t.children[folderID], "", nil
}

func (t *treeSource) Download(context.Context, models.RemoteItem) ([]byte, string, error) {
	return nil, "", errors.New("not implemented")
}

func newSyncService(creds CredentialSource, src drive.TreeSource, publisher JobPublisher, tasks TaskStore) *SyncService {
	return NewSyncService(creds, factoryFor(src), publisher, tasks, logger.New("sync-test", "", ""))
}

func TestStartSyncDispatchesOneJobPerFile(t *testing.T) {
	src := &treeSource{children: map[string][]models.RemoteItem{
		"root": {
			{ID: "f1", Name: "a.txt", Kind: models.ItemKindFile},
			{ID: "sub", Name: "docs", Kind: models.ItemKindFolder},
		},
		"sub": {
			{ID: "f2", Name: "b.pdf", Kind: models.ItemKindFile},
		},
	}}
	publisher := &capturePublisher{}
	tasks := newMemTaskStore()
	svc := newSyncService(fixedCreds{token: "tok"}, src, publisher, tasks)

	count, err := svc.StartSync(context.Background(), models.SyncJob{
		SyncID: "s1", ProjectID: "p1", FolderID: "root", TenantID: "1", OwnerID: "o1",
	})
	if err != nil {
		t.Fatalf("StartSync: %v", err)
	}
	if count != 2 {
		t.Errorf("dispatched %d jobs, want 2", count)
	}
	if len(publisher.jobs) != 2 {
		t.Fatalf("published %d jobs, want 2", len(publisher.jobs))
	}
	for _, job := range publisher.jobs {
		if job.RefreshToken != "tok" {
			t.Errorf("job missing credential")
		}
		if job.File.Kind == models.ItemKindFolder {
			t.Errorf("folder dispatched as job: %+v", job.File)
		}
	}

	records, _ := tasks.GetBySync(context.Background(), "s1")
	if len(records) != 2 {
		t.Fatalf("got %d task records, want 2", len(records))
	}
	for _, r := range records {
		if r.Status != models.TaskStatusPending {
			t.Errorf("task %s status = %s, want pending", r.ID, r.Status)
		}
	}
}

func TestStartSyncAbortsWithoutCredential(t *testing.T) {
	publisher := &capturePublisher{}
	tasks := newMemTaskStore()
	svc := newSyncService(fixedCreds{err: credentials.ErrNoCredential}, &treeSource{}, publisher, tasks)

	count, err := svc.StartSync(context.Background(), models.SyncJob{
		SyncID: "s1", FolderID: "root", OwnerID: "o1",
	})
	if !errors.Is(err, credentials.ErrNoCredential) {
		t.Fatalf("got %v, want ErrNoCredential", err)
	}
	if count != 0 {
		t.Errorf("dispatched %d jobs without credential", count)
	}
	if len(publisher.jobs) != 0 {
		t.Error("jobs were published without credential")
	}

	records, _ := tasks.GetBySync(context.Background(), "s1")
	if len(records) != 0 {
		t.Errorf("%d task records created without credential", len(records))
	}
}

func TestStartSyncEmptyFolder(t *testing.T) {
	svc := newSyncService(fixedCreds{token: "tok"}, &treeSource{}, &capturePublisher{}, newMemTaskStore())

	count, err := svc.StartSync(context.Background(), models.SyncJob{SyncID: "s1", FolderID: "root"})
	if err != nil {
		t.Fatalf("StartSync: %v", err)
	}
	if count != 0 {
		t.Errorf("dispatched %d jobs from empty folder", count)
	}
}
