// Package server exposes the platform's HTTP API.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mars-analytics/rag-platform/internal/artifact"
	"github.com/mars-analytics/rag-platform/internal/credentials"
	"github.com/mars-analytics/rag-platform/internal/graphstore"
	"github.com/mars-analytics/rag-platform/internal/history"
	"github.com/mars-analytics/rag-platform/internal/ingest"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/internal/orchestrator"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// API provides the HTTP handlers.
type API struct {
	sync         *ingest.SyncService
	orchestrator *orchestrator.Orchestrator
	history      history.Store
	tasks        ingest.TaskStore
	graph        graphstore.Store
	artifacts    artifact.ContentStore
	logger       *logger.Logger
}

// NewAPI creates the handler set.
func NewAPI(
	sync *ingest.SyncService,
	orch *orchestrator.Orchestrator,
	hist history.Store,
	tasks ingest.TaskStore,
	graph graphstore.Store,
	artifacts artifact.ContentStore,
	log *logger.Logger,
) *API {
	return &API{
		sync:         sync,
		orchestrator: orch,
		history:      hist,
		tasks:        tasks,
		graph:        graph,
		artifacts:    artifacts,
		logger:       log,
	}
}

// SyncHandler starts a folder synchronization. It returns as soon as the
// per-file jobs are dispatched; completion is observed through the tasks
// endpoint.
func (a *API) SyncHandler(c *gin.Context) {
	var payload struct {
		ProjectID string `json:"project_id" binding:"required"`
		FolderID  string `json:"folder_id" binding:"required"`
		TenantID  string `json:"tenant_id" binding:"required"`
		OwnerID   string `json:"owner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid sync payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	job := models.SyncJob{
		SyncID:    uuid.NewString(),
		ProjectID: payload.ProjectID,
		FolderID:  payload.FolderID,
		TenantID:  payload.TenantID,
		OwnerID:   payload.OwnerID,
	}

	dispatched, err := a.sync.StartSync(c.Request.Context(), job)
	if errors.Is(err, credentials.ErrNoCredential) {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "No drive credential on file for this owner"})
		return
	}
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to start sync")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sync"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"sync_id":    job.SyncID,
		"dispatched": dispatched,
	})
}

// QueryHandler answers one chat message. The orchestrator absorbs internal
// failures, so this endpoint always returns a normal reply payload.
func (a *API) QueryHandler(c *gin.Context) {
	var payload struct {
		SessionID  string   `json:"session_id" binding:"required"`
		TenantID   string   `json:"tenant_id" binding:"required"`
		ProjectIDs []string `json:"project_ids"`
		Message    string   `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid query payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	resp := a.orchestrator.ProcessMessage(c.Request.Context(), orchestrator.Request{
		SessionID:  payload.SessionID,
		TenantID:   payload.TenantID,
		ProjectIDs: payload.ProjectIDs,
		Message:    payload.Message,
	})

	c.JSON(http.StatusOK, resp)
}

// ClearHistoryHandler deletes a session's conversation log.
func (a *API) ClearHistoryHandler(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := a.history.Clear(c.Request.Context(), sessionID); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to clear history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "cleared": true})
}

// TasksHandler returns the task records of one sync.
func (a *API) TasksHandler(c *gin.Context) {
	syncID := c.Query("sync_id")
	if syncID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_id is required"})
		return
	}

	records, err := a.tasks.GetBySync(c.Request.Context(), syncID)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to load tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sync_id": syncID, "tasks": records})
}

// ProjectStatsHandler reports the indexed document count of one project
// from the provenance graph.
func (a *API) ProjectStatsHandler(c *gin.Context) {
	projectID := c.Param("project_id")

	count, err := a.graph.CountDocuments(c.Request.Context(), projectID)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to count project documents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project_id": projectID, "document_count": count})
}

// ArtifactHandler serves a generated artifact by its content id.
func (a *API) ArtifactHandler(c *gin.Context) {
	id := c.Param("id")

	data, err := a.artifacts.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+id)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// HealthHandler reports process liveness.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
