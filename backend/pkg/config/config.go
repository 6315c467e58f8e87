package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apperrors "shipgraph/backend/pkg/errors"
)

// Store backends
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Graph store
	StoreBackend  string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Language model
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ModelID        string
	EmbeddingModel string
	MaxTokens      int // completion limit
	ContextWindow  int // prompt plus completion limit of ModelID
	Temperature    float64
	OracleAttempts int
	PromptPath     string // optional override of the built-in structuring prompt
	TokenCounting  bool

	// Pipeline
	ChunkSize      int
	ArtifactDir    string
	ExportWorkbook bool

	// Query
	SimilarityThreshold float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", StoreNeo4j)),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		ModelID:             getEnv("MODEL_ID", "gpt-3.5-turbo-16k"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		MaxTokens:           getEnvInt("MAX_TOKENS", 10000),
		ContextWindow:       getEnvInt("CONTEXT_WINDOW", 16385),
		Temperature:         getEnvFloat("TEMPERATURE", 1.0),
		OracleAttempts:      getEnvInt("ORACLE_ATTEMPTS", 1),
		PromptPath:          getEnv("PROMPT_PATH", ""),
		TokenCounting:       getEnvBool("TOKEN_COUNTING", true),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 5),
		ArtifactDir:         getEnv("ARTIFACT_DIR", "artifacts"),
		ExportWorkbook:      getEnvBool("EXPORT_WORKBOOK", false),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case StoreMemory:
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND", fmt.Sprintf("unknown backend %q", c.StoreBackend))
	}
	if c.ModelID == "" {
		return apperrors.NewConfigMissingRequired("MODEL_ID")
	}
	if c.ChunkSize < 1 {
		return apperrors.NewConfigValidationFailed("CHUNK_SIZE", "must be at least 1")
	}
	if c.OracleAttempts < 1 {
		return apperrors.NewConfigValidationFailed("ORACLE_ATTEMPTS", "must be at least 1")
	}
	if c.MaxTokens < 1 {
		return apperrors.NewConfigValidationFailed("MAX_TOKENS", "must be positive")
	}
	if c.ContextWindow <= c.MaxTokens {
		return apperrors.NewConfigValidationFailed("CONTEXT_WINDOW", "must exceed MAX_TOKENS")
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return apperrors.NewConfigValidationFailed("SIMILARITY_THRESHOLD", "must be within [-1, 1]")
	}
	// The API key is optional so OpenAI-compatible local servers work without one
	return nil
}

// PromptTokenBudget is the room left for the prompt once the completion
// limit is reserved
func (c *Config) PromptTokenBudget() int {
	return c.ContextWindow - c.MaxTokens
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
