package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MilvusConfig defines the connection and collection settings for Milvus.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus service address
	Collection string `yaml:"collection"` // collection holding document chunks
	Dim        int    `yaml:"dim"`        // embedding dimension, fixed for the collection lifetime
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig defines the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MongoConfig defines the MongoDB connection settings.
type MongoConfig struct {
	Address        string `yaml:"address"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	TaskCollection string `yaml:"taskCollection"` // per-file task records
}

// Neo4jConfig defines the Neo4j connection settings.
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// KafkaConfig defines the Kafka connection and topic settings.
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	JobTopic string   `yaml:"jobTopic"` // per-file ingestion jobs
	GroupID  string   `yaml:"groupID"`  // worker consumer group
}

// MinIOConfig defines the MinIO object storage settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"` // bucket holding generated artifacts
	Secure    bool   `yaml:"secure"`
}

// DatabaseConfigs groups the configuration of every backing store.
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`
	Redis   RedisConfig  `yaml:"redis"`
	MySQL   MySQLConfig  `yaml:"mysql"`
	MongoDB MongoConfig  `yaml:"mongodb"`
	Neo4j   Neo4jConfig  `yaml:"neo4j"`
	Kafka   KafkaConfig  `yaml:"kafka"`
	MinIO   MinIOConfig  `yaml:"minio"`
}

// GeminiConfig holds the Gemini model settings.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OpenAIConfig holds the OpenAI model settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// OllamaConfig holds the Ollama model settings.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the answer generator.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "gemini" or "openai"
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// EmbeddingConfig selects and configures the embedding encoder.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "gemini", "openai" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// DriveConfig holds the OAuth application settings used to exchange a user's
// refresh token for an access token.
type DriveConfig struct {
	ClientID     string `yaml:"clientID"`
	ClientSecret string `yaml:"clientSecret"`
	PageSize     int    `yaml:"pageSize"` // items per children page
}

// IngestConfig tunes the per-file processing pipeline.
type IngestConfig struct {
	MaxAttempts    int `yaml:"maxAttempts"`    // bounded retry per task
	BackoffSeconds int `yaml:"backoffSeconds"` // fixed delay between attempts
	Workers        int `yaml:"workers"`        // concurrent per-file workers
}

// ChatConfig tunes the interactive query path.
type ChatConfig struct {
	HistoryLimit       int               `yaml:"historyLimit"`       // max entries kept per session
	HistoryTTLSeconds  int               `yaml:"historyTTLSeconds"`  // sliding expiry on the session log
	RetrieveLimit      int               `yaml:"retrieveLimit"`      // context items per query
	ProjectNames       map[string]string `yaml:"projectNames"`       // project id -> display name
	DefaultProjectName string            `yaml:"defaultProjectName"` // fallback label
	TenantAliases      map[string]string `yaml:"tenantAliases"`      // explicit tenant id normalization
}

// AppInfo contains basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggerConfig defines the logger settings.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Drive     DriveConfig     `yaml:"drive"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Chat      ChatConfig      `yaml:"chat"`
	Databases DatabaseConfigs `yaml:"databases"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Drive.PageSize <= 0 {
		c.Drive.PageSize = 100
	}
	if c.Ingest.MaxAttempts <= 0 {
		c.Ingest.MaxAttempts = 3
	}
	if c.Ingest.BackoffSeconds <= 0 {
		c.Ingest.BackoffSeconds = 5
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 20
	}
	if c.Chat.HistoryTTLSeconds <= 0 {
		c.Chat.HistoryTTLSeconds = 3600
	}
	if c.Chat.RetrieveLimit <= 0 {
		c.Chat.RetrieveLimit = 5
	}
	if c.Chat.DefaultProjectName == "" {
		c.Chat.DefaultProjectName = "Analytics Project"
	}
	if c.Databases.MongoDB.TaskCollection == "" {
		c.Databases.MongoDB.TaskCollection = "ingest_tasks"
	}
}
