package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// CredentialSource resolves an owner's remote-source credential.
type CredentialSource interface {
	RefreshToken(ctx context.Context, ownerID string) (string, error)
}

// SyncService expands a folder sync request into per-file jobs on the
// queue.
type SyncService struct {
	creds     CredentialSource
	sources   SourceFactory
	publisher JobPublisher
	tasks     TaskStore
	log       *logger.Logger
	now       func() time.Time
}

// NewSyncService wires a SyncService from its collaborators.
func NewSyncService(
	creds CredentialSource,
	sources SourceFactory,
	publisher JobPublisher,
	tasks TaskStore,
	log *logger.Logger,
) *SyncService {
	return &SyncService{
		creds:     creds,
		sources:   sources,
		publisher: publisher,
		tasks:     tasks,
		log:       log,
		now:       time.Now,
	}
}

// StartSync crawls the folder and publishes one job per file, returning how
// many jobs were dispatched. The credential check runs first: without a
// usable token nothing is crawled and credentials.ErrNoCredential is
// returned unwrapped for the transport layer to classify.
func (s *SyncService) StartSync(ctx context.Context, req models.SyncJob) (int, error) {
	token, err := s.creds.RefreshToken(ctx, req.OwnerID)
	if err != nil {
		return 0, err
	}

	source, err := s.sources(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to build source: %w", err)
	}

	files, err := drive.NewCrawler(source).ListFiles(ctx, req.FolderID)
	if err != nil {
		return 0, fmt.Errorf("failed to crawl folder %s: %w", req.FolderID, err)
	}

	dispatched := 0
	for _, file := range files {
		taskID := uuid.NewString()
		record := models.TaskRecord{
			ID:          taskID,
			SyncID:      req.SyncID,
			DocumentID:  file.ID,
			Filename:    file.Name,
			ProjectID:   req.ProjectID,
			TenantID:    req.TenantID,
			Status:      models.TaskStatusPending,
			SubmittedAt: s.now(),
		}
		if err := s.tasks.Create(ctx, record); err != nil {
			return dispatched, fmt.Errorf("failed to record task for %s: %w", file.ID, err)
		}

		job := models.ProcessJob{
			TaskID:       taskID,
			SyncID:       req.SyncID,
			File:         file,
			ProjectID:    req.ProjectID,
			TenantID:     req.TenantID,
			RefreshToken: token,
		}
		if err := s.publisher.Publish(ctx, job); err != nil {
			return dispatched, fmt.Errorf("failed to publish job for %s: %w", file.ID, err)
		}
		dispatched++
	}

	s.log.WithPayload(map[string]interface{}{
		"sync_id":    req.SyncID,
		"folder_id":  req.FolderID,
		"dispatched": dispatched,
	}).Info("sync dispatched")
	return dispatched, nil
}
