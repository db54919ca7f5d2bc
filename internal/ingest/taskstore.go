package ingest

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mars-analytics/rag-platform/internal/models"
)

// TaskStore persists per-file task status so callers can poll a sync's
// progress.
type TaskStore interface {
	Create(ctx context.Context, record models.TaskRecord) error
	MarkRunning(ctx context.Context, taskID string, attempt int) error
	MarkSuccess(ctx context.Context, taskID string) error
	MarkSkipped(ctx context.Context, taskID, reason string) error
	MarkFailed(ctx context.Context, taskID, reason string) error
	GetBySync(ctx context.Context, syncID string) ([]models.TaskRecord, error)
}

// MongoTaskStore is the production TaskStore backed by a Mongo collection.
type MongoTaskStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

var _ TaskStore = (*MongoTaskStore)(nil)

// NewMongoTaskStore wraps the task collection of an established database.
func NewMongoTaskStore(db *mongo.Database, collectionName string) *MongoTaskStore {
	return &MongoTaskStore{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

// Create inserts the initial pending record for a task.
func (s *MongoTaskStore) Create(ctx context.Context, record models.TaskRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create task %s: %w", record.ID, err)
	}
	return nil
}

// MarkRunning records the start of an attempt.
func (s *MongoTaskStore) MarkRunning(ctx context.Context, taskID string, attempt int) error {
	return s.update(ctx, taskID, bson.M{
		"status":   models.TaskStatusRunning,
		"attempts": attempt,
	})
}

// MarkSuccess records terminal success.
func (s *MongoTaskStore) MarkSuccess(ctx context.Context, taskID string) error {
	return s.update(ctx, taskID, bson.M{
		"status":       models.TaskStatusSuccess,
		"error":        "",
		"completed_at": s.now(),
	})
}

// MarkSkipped records that the file was intentionally not indexed.
func (s *MongoTaskStore) MarkSkipped(ctx context.Context, taskID, reason string) error {
	return s.update(ctx, taskID, bson.M{
		"status":       models.TaskStatusSkipped,
		"error":        reason,
		"completed_at": s.now(),
	})
}

// MarkFailed records terminal failure after the retry budget is spent.
func (s *MongoTaskStore) MarkFailed(ctx context.Context, taskID, reason string) error {
	return s.update(ctx, taskID, bson.M{
		"status":       models.TaskStatusFailed,
		"error":        reason,
		"completed_at": s.now(),
	})
}

// GetBySync returns every task record of one sync, oldest first.
func (s *MongoTaskStore) GetBySync(ctx context.Context, syncID string) ([]models.TaskRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"sync_id": syncID})
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for sync %s: %w", syncID, err)
	}
	defer cursor.Close(ctx)

	var records []models.TaskRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode tasks for sync %s: %w", syncID, err)
	}
	return records, nil
}

func (s *MongoTaskStore) update(ctx context.Context, taskID string, fields bson.M) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	return nil
}
