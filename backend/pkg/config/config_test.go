package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shipgraph/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("SIMILARITY_THRESHOLD", "")
	t.Setenv("MODEL_ID", "")
	t.Setenv("MAX_TOKENS", "")
	t.Setenv("CONTEXT_WINDOW", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreNeo4j, cfg.StoreBackend)
	assert.Equal(t, 5, cfg.ChunkSize)
	assert.Equal(t, 0.2, cfg.SimilarityThreshold)
	assert.Equal(t, "gpt-3.5-turbo-16k", cfg.ModelID)
	assert.Equal(t, 1, cfg.OracleAttempts)
	assert.Equal(t, 6385, cfg.PromptTokenBudget())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("CHUNK_SIZE", "3")
	t.Setenv("SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("EXPORT_WORKBOOK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.ChunkSize)
	assert.Equal(t, 0.75, cfg.SimilarityThreshold)
	assert.True(t, cfg.ExportWorkbook)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:   StoreNeo4j,
			Neo4jURI:       "bolt://localhost:7687",
			Neo4jUser:      "neo4j",
			Neo4jPassword:  "password",
			ModelID:        "gpt-3.5-turbo-16k",
			MaxTokens:      10000,
			ContextWindow:  16385,
			OracleAttempts: 1,
			ChunkSize:      5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory skips neo4j credentials", mutate: func(c *Config) { c.StoreBackend = StoreMemory; c.Neo4jPassword = "" }},
		{name: "missing password", mutate: func(c *Config) { c.Neo4jPassword = "" }, field: "NEO4J_PASSWORD", wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sqlite" }, field: "STORE_BACKEND", wantErr: true},
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }, field: "CHUNK_SIZE", wantErr: true},
		{name: "completion fills context window", mutate: func(c *Config) { c.MaxTokens = c.ContextWindow }, field: "CONTEXT_WINDOW", wantErr: true},
		{name: "threshold out of range", mutate: func(c *Config) { c.SimilarityThreshold = 1.5 }, field: "SIMILARITY_THRESHOLD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))

			var missing *apperrors.ErrConfigMissingRequired
			var invalid *apperrors.ErrConfigValidationFailed
			switch {
			case errors.As(err, &missing):
				assert.Equal(t, tt.field, missing.Field)
			case errors.As(err, &invalid):
				assert.Equal(t, tt.field, invalid.Field)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}
