package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/database/kafka"
	"github.com/mars-analytics/rag-platform/internal/database/milvus"
	"github.com/mars-analytics/rag-platform/internal/database/mongo"
	"github.com/mars-analytics/rag-platform/internal/database/neo4j"
	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/embedding"
	"github.com/mars-analytics/rag-platform/internal/graphstore"
	"github.com/mars-analytics/rag-platform/internal/ingest"
	"github.com/mars-analytics/rag-platform/internal/parser"
	"github.com/mars-analytics/rag-platform/internal/vectorstore"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name+"-worker", "", "")
	appLogger.Info("Starting ingestion worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Backing stores
	kafkaClient, err := kafka.New(&cfg.Databases.Kafka)
	if err != nil {
		log.Fatalf("Failed to connect to Kafka: %v", err)
	}
	defer kafkaClient.Close()

	mongoClient, mongoDB, err := mongo.New(ctx, &cfg.Databases.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	milvusClient, err := milvus.New(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	neo4jClient, err := neo4j.New(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer neo4jClient.Close(context.Background())

	// 4. Processing pipeline
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	index := vectorstore.NewMilvusIndex(milvusClient.Client, cfg.Databases.Milvus)
	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Milvus collection: %v", err)
	}

	graph := graphstore.NewNeo4jStore(neo4jClient)
	taskStore := ingest.NewMongoTaskStore(mongoDB, cfg.Databases.MongoDB.TaskCollection)

	sourceFactory := func(ctx context.Context, refreshToken string) (drive.TreeSource, error) {
		return drive.NewGoogleSource(ctx, cfg.Drive, refreshToken)
	}

	processor := ingest.NewProcessor(
		sourceFactory,
		parser.New(appLogger),
		embedder,
		index,
		graph,
		taskStore,
		cfg.Ingest,
		appLogger,
	)

	// 5. Consumer pool. Each worker owns its own group reader, so the
	// partitions of the job topic are balanced across them.
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Ingest.Workers; i++ {
		workerLogger := logger.New(fmt.Sprintf("%s-worker-%d", cfg.App.Name, i), "", "")
		consumer := ingest.NewConsumer(&cfg.Databases.Kafka, workerLogger)
		group.Go(func() error {
			defer consumer.Close()
			return consumer.Run(groupCtx, processor.Run)
		})
	}
	appLogger.Info(fmt.Sprintf("Consuming jobs with %d workers", cfg.Ingest.Workers))

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Worker pool stopped: %v", err)
	}
	appLogger.Info("Worker stopped")
}
