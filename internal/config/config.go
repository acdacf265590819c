package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"docsearch/internal/chunker"
)

// Config holds all configuration for the application.
type Config struct {
	ChunkSize           int
	ChunkOverlap        int
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingDimension  int
	EmbeddingMaxRetries int
	EmbeddingRetryDelay time.Duration
	QdrantURL           string
	QdrantCollection    string
	DBPath              string
	UploadMaxBytes      int64
	IngestDir           string
	APIPort             string
	LogLevel            slog.Level
	LogFormat           string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the numeric ones.
// If a .env file exists in the current directory or a parent, it is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "nomic-embed-text-v1.5"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "document_embeddings"),
		DBPath:           getEnv("DB_PATH", "./data/docsearch.db"),
		APIPort:          getEnv("API_PORT", "8000"),
		IngestDir:        os.Getenv("INGEST_DIR"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.EmbeddingDimension, err = getEnvInt("EMBEDDING_DIMENSION", 768); err != nil {
		return nil, err
	}
	if cfg.EmbeddingMaxRetries, err = getEnvInt("EMBEDDING_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.EmbeddingRetryDelay, err = getEnvDuration("EMBEDDING_RETRY_DELAY", time.Second); err != nil {
		return nil, err
	}
	uploadMax, err := getEnvInt("UPLOAD_MAX_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}
	cfg.UploadMaxBytes = int64(uploadMax)

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the data directory for the SQLite file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges that cannot be expressed by defaults.
func (c *Config) Validate() error {
	if err := c.Chunker().Validate(); err != nil {
		return fmt.Errorf("CHUNK_SIZE/CHUNK_OVERLAP: %w", err)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be greater than 0")
	}
	if c.EmbeddingMaxRetries < 0 || c.EmbeddingMaxRetries > 10 {
		return fmt.Errorf("EMBEDDING_MAX_RETRIES must be 0-10, got %d", c.EmbeddingMaxRetries)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be greater than 0")
	}
	if c.IngestDir != "" {
		info, err := os.Stat(c.IngestDir)
		if err != nil {
			return fmt.Errorf("INGEST_DIR is not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("INGEST_DIR must be a directory, got %q", c.IngestDir)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Chunker returns the chunking thresholds.
func (c *Config) Chunker() chunker.Config {
	return chunker.Config{
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}
