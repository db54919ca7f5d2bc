package models

import "time"

// SyncJob is the request that triggers a full folder synchronization.
// It expands into zero or more ProcessJobs, one per non-folder item.
type SyncJob struct {
	SyncID    string `json:"sync_id"`
	ProjectID string `json:"project_id"`
	FolderID  string `json:"folder_id"`
	TenantID  string `json:"tenant_id"`
	OwnerID   string `json:"owner_id"`
}

// ProcessJob is one independently retryable per-file ingestion task.
// RefreshToken is an opaque credential; it is carried for the lifetime of
// the job only and must never be logged in full.
type ProcessJob struct {
	TaskID       string     `json:"task_id"`
	SyncID       string     `json:"sync_id"`
	File         RemoteItem `json:"file"`
	ProjectID    string     `json:"project_id"`
	TenantID     string     `json:"tenant_id"`
	RefreshToken string     `json:"refresh_token"`
}

// TaskStatus is the lifecycle state of a per-file task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusSkipped TaskStatus = "skipped"
	TaskStatusFailed  TaskStatus = "failed"
)

// TaskRecord is the persisted status of one per-file task. Callers observe
// sync completion indirectly by polling these records.
type TaskRecord struct {
	ID          string     `bson:"_id"`
	SyncID      string     `bson:"sync_id"`
	DocumentID  string     `bson:"document_id"`
	Filename    string     `bson:"filename"`
	ProjectID   string     `bson:"project_id"`
	TenantID    string     `bson:"tenant_id"`
	Status      TaskStatus `bson:"status"`
	Attempts    int        `bson:"attempts"`
	Error       string     `bson:"error,omitempty"`
	SubmittedAt time.Time  `bson:"submitted_at"`
	CompletedAt time.Time  `bson:"completed_at,omitempty"`
}
