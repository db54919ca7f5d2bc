package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/mars-analytics/rag-platform/internal/config"
)

// Client wraps the Milvus SDK client together with its configuration.
// It is constructed once at process start and passed to its consumers.
type Client struct {
	Client client.Client
	Config *config.MilvusConfig
}

// New connects to Milvus and returns a Client handle.
func New(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	return &Client{Client: c, Config: cfg}, nil
}

// Close shuts down the connection to Milvus.
func (c *Client) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// HealthCheck verifies the Milvus connection.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}
