package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mars-analytics/rag-platform/internal/config"
)

// New connects to MongoDB and returns the configured database handle.
func New(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	uri := fmt.Sprintf("mongodb://%s", cfg.Address)
	opts := options.Client().ApplyURI(uri)
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// HealthCheck verifies the MongoDB connection.
func HealthCheck(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return fmt.Errorf("mongo client is not initialized")
	}
	return client.Ping(ctx, readpref.Primary())
}
