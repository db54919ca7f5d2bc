package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mars-analytics/rag-platform/internal/artifact"
	"github.com/mars-analytics/rag-platform/internal/config"
	"github.com/mars-analytics/rag-platform/internal/credentials"
	"github.com/mars-analytics/rag-platform/internal/database/kafka"
	"github.com/mars-analytics/rag-platform/internal/database/milvus"
	"github.com/mars-analytics/rag-platform/internal/database/minio"
	"github.com/mars-analytics/rag-platform/internal/database/mongo"
	"github.com/mars-analytics/rag-platform/internal/database/mysql"
	"github.com/mars-analytics/rag-platform/internal/database/neo4j"
	"github.com/mars-analytics/rag-platform/internal/database/redis"
	"github.com/mars-analytics/rag-platform/internal/drive"
	"github.com/mars-analytics/rag-platform/internal/embedding"
	"github.com/mars-analytics/rag-platform/internal/graphstore"
	"github.com/mars-analytics/rag-platform/internal/history"
	"github.com/mars-analytics/rag-platform/internal/ingest"
	"github.com/mars-analytics/rag-platform/internal/llm"
	"github.com/mars-analytics/rag-platform/internal/orchestrator"
	"github.com/mars-analytics/rag-platform/internal/retriever"
	"github.com/mars-analytics/rag-platform/internal/server"
	"github.com/mars-analytics/rag-platform/internal/tenant"
	"github.com/mars-analytics/rag-platform/internal/vectorstore"
	"github.com/mars-analytics/rag-platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "", "")
	appLogger.Info("Starting API server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Backing stores
	db, err := mysql.New(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer mysql.Close(db)

	rdb, err := redis.New(ctx, &cfg.Databases.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

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

	minioClient, err := minio.New(ctx, &cfg.Databases.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	neo4jClient, err := neo4j.New(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer neo4jClient.Close(context.Background())

	// 4. Ingestion side: credentials, task records, job queue
	credStore := credentials.NewStore(db)
	if err := credStore.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate credential schema: %v", err)
	}

	taskStore := ingest.NewMongoTaskStore(mongoDB, cfg.Databases.MongoDB.TaskCollection)

	// The admin connection makes sure the job topic exists before the first
	// sync publishes to it.
	kafkaClient, err := kafka.New(&cfg.Databases.Kafka)
	if err != nil {
		log.Fatalf("Failed to connect to Kafka: %v", err)
	}
	defer kafkaClient.Close()

	publisher := ingest.NewKafkaPublisher(&cfg.Databases.Kafka)
	defer publisher.Close()

	sourceFactory := func(ctx context.Context, refreshToken string) (drive.TreeSource, error) {
		return drive.NewGoogleSource(ctx, cfg.Drive, refreshToken)
	}
	syncService := ingest.NewSyncService(credStore, sourceFactory, publisher, taskStore, appLogger)

	// 5. Query side: embedding, vector search, generation, artifacts
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	index := vectorstore.NewMilvusIndex(milvusClient.Client, cfg.Databases.Milvus)
	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Milvus collection: %v", err)
	}

	generator, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	historyStore := history.NewRedisStore(rdb, cfg.Chat.HistoryLimit, time.Duration(cfg.Chat.HistoryTTLSeconds)*time.Second)
	normalizer := tenant.NewNormalizer(cfg.Chat.TenantAliases)
	contextRetriever := retriever.New(embedder, index, normalizer)
	artifactStore := artifact.NewMinIOStore(minioClient, cfg.Databases.MinIO.Bucket)
	artifacts := artifact.NewService(artifactStore)
	graph := graphstore.NewNeo4jStore(neo4jClient)

	orch := orchestrator.New(historyStore, contextRetriever, generator, artifacts, cfg.Chat, appLogger)

	// 6. HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	api := server.NewAPI(syncService, orch, historyStore, taskStore, graph, artifactStore, appLogger)
	server.RegisterRoutes(router, api)

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: router,
	}

	go func() {
		appLogger.Info("HTTP server listening at " + *listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP server shutdown did not finish cleanly: " + err.Error())
	}
	appLogger.Info("Server stopped")
}
