package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Optional: when unset the in-memory stores back everything
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"papyr-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`

	// Pipeline tunables
	MaxUploadBytes   int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	ChunkWindowSize  int   `envconfig:"CHUNK_WINDOW_SIZE" default:"1000"`
	ChunkOverlap     int   `envconfig:"CHUNK_OVERLAP" default:"200"`
	RetrievalK       int   `envconfig:"RETRIEVAL_K" default:"4"`
	HistoryWindow    int   `envconfig:"HISTORY_WINDOW" default:"10"`
	PromptByteBudget int   `envconfig:"PROMPT_BYTE_BUDGET" default:"24000"`
	IndexQueueSize   int   `envconfig:"INDEX_QUEUE_SIZE" default:"256"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PAPYR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasPostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
