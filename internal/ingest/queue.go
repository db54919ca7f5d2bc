// Package ingest dispatches per-file ingestion jobs and processes them into
// the vector and graph stores.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/models"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

// JobPublisher hands per-file jobs to the queue for asynchronous
// processing.
type JobPublisher interface {
	Publish(ctx context.Context, job models.ProcessJob) error
}

// KafkaPublisher is the production JobPublisher writing to the job topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ JobPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a writer for the configured job topic.
func NewKafkaPublisher(cfg *config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.JobTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	return &KafkaPublisher{writer: writer}
}

// Publish serializes the job and writes it keyed by document id, so retries
// of the same file land on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, job models.ProcessJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.TaskID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.File.ID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.TaskID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Consumer reads per-file jobs from the queue and hands each to a handler.
// A message is committed once the handler returns, whatever the outcome:
// the retry budget lives inside job processing, not in queue redelivery.
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a group reader on the job topic.
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.JobTopic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, job models.ProcessJob)) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to fetch job message")
			continue
		}

		var job models.ProcessJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			c.log.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Error("dropping undecodable job message")
		} else {
			handle(ctx, job)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to commit job message")
		}
	}
}

// Close shuts down the reader and leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
