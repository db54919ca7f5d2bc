package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/mars-analytics/rag-platform/internal/config"
)

// Client holds the administrative Kafka connection and configuration.
// Writers and readers are created per topic by the ingest package.
type Client struct {
	Conn   *kafka.Conn
	Config *config.KafkaConfig
}

// New dials the first broker and makes sure the configured job topic exists.
func New(cfg *config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}
	if cfg.JobTopic == "" {
		return nil, fmt.Errorf("no Kafka job topic configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to dial Kafka: %w", err)
	}

	partitions, err := conn.ReadPartitions()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read Kafka partitions: %w", err)
	}
	exists := false
	for _, p := range partitions {
		if p.Topic == cfg.JobTopic {
			exists = true
			break
		}
	}

	if !exists {
		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.JobTopic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create Kafka topic '%s': %w", cfg.JobTopic, err)
		}
	}

	return &Client{Conn: conn, Config: cfg}, nil
}

// Close shuts down the administrative connection.
func (c *Client) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}

// HealthCheck verifies the Kafka connection.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka client is not initialized")
	}
	_, err := c.Conn.Controller()
	return err
}
